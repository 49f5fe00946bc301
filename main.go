package main

import (
	"FableStudio/cmd"
)

func main() {
	cmd.Execute()
}
