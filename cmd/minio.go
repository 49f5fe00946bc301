package cmd

import (
	"context"
	"fmt"
	"log"

	"FableStudio/config"
	"FableStudio/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the asset bucket",
	Long:  `List the audio assets stored in the MinIO bucket, optionally filtered by prefix.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO config: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		client := storage.GetMinioClient()
		ctx := context.Background()

		var count int
		var totalSize int64
		for object := range client.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
			Prefix:    minioPrefix,
			Recursive: true,
		}) {
			if object.Err != nil {
				log.Fatalf("Failed to list objects: %v", object.Err)
			}
			fmt.Printf("%12d  %s\n", object.Size, object.Key)
			count++
			totalSize += object.Size
		}
		fmt.Printf("%d objects, %d bytes total\n", count, totalSize)
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "assets/", "filter objects by prefix")
}
