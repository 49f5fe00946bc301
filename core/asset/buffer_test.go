package asset

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// buildWAV produces a canonical 16-bit PCM RIFF/WAVE stream of silence.
func buildWAV(t *testing.T, channels, sampleRate, frames int) []byte {
	t.Helper()
	return buildWAVSamples(t, channels, sampleRate, make([]int16, frames*channels))
}

func buildWAVSamples(t *testing.T, channels, sampleRate int, samples []int16) []byte {
	t.Helper()
	var pcm bytes.Buffer
	for _, s := range samples {
		binary.Write(&pcm, binary.LittleEndian, s)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+pcm.Len()))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*2)) // byte rate
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))            // block align
	binary.Write(&buf, binary.LittleEndian, uint16(16))                    // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(pcm.Len()))
	buf.Write(pcm.Bytes())
	return buf.Bytes()
}

func TestDecodeWAVMono(t *testing.T) {
	data := buildWAVSamples(t, 1, 8000, []int16{0, 16384, -16384, 32767})

	buf, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if buf.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", buf.SampleRate)
	}
	if len(buf.Samples) != 4 {
		t.Fatalf("Samples = %d, want 4", len(buf.Samples))
	}
	if math.Abs(buf.Samples[1]-0.5) > 1e-3 {
		t.Errorf("Samples[1] = %v, want ~0.5", buf.Samples[1])
	}
	if math.Abs(buf.Samples[2]+0.5) > 1e-3 {
		t.Errorf("Samples[2] = %v, want ~-0.5", buf.Samples[2])
	}
}

func TestDecodeWAVDownmixesStereo(t *testing.T) {
	// Left at half scale, right silent: the mono mix sits at a quarter.
	data := buildWAVSamples(t, 2, 44100, []int16{16384, 0, 16384, 0})

	buf, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if len(buf.Samples) != 2 {
		t.Fatalf("Samples = %d frames, want 2", len(buf.Samples))
	}
	for i, s := range buf.Samples {
		if math.Abs(s-0.25) > 1e-3 {
			t.Errorf("Samples[%d] = %v, want ~0.25", i, s)
		}
	}
}

func TestDecodeWAVDuration(t *testing.T) {
	data := buildWAV(t, 1, 44100, 44100/2) // half a second

	buf, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if buf.DurationMs != 500 {
		t.Errorf("DurationMs = %d, want 500", buf.DurationMs)
	}
}

func TestDecodeWAVRejectsMalformedInput(t *testing.T) {
	cases := map[string][]byte{
		"too short":   []byte("RIFF"),
		"wrong magic": bytes.Repeat([]byte("x"), 64),
	}
	for name, data := range cases {
		if _, err := DecodeWAV(data); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	// Non-PCM format code.
	data := buildWAV(t, 1, 8000, 100)
	binary.LittleEndian.PutUint16(data[20:22], 3) // IEEE float
	if _, err := DecodeWAV(data); err == nil {
		t.Errorf("non-PCM format: expected an error")
	}
}
