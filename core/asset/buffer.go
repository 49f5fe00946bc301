package asset

import (
	"encoding/binary"
	"fmt"
)

// Buffer is a decoded audio asset: normalized mono samples plus the total
// duration of the asset.
type Buffer struct {
	Samples    []float64
	SampleRate int
	DurationMs int64
}

// DecodeWAV decodes 16-bit PCM WAV bytes into a Buffer, downmixing to mono.
// Only the canonical RIFF/WAVE layout with PCM data is supported; anything
// else is an error, which the cache treats as a resolution failure.
func DecodeWAV(data []byte) (*Buffer, error) {
	if len(data) < 44 {
		return nil, fmt.Errorf("wav data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var (
		numChannels   int
		sampleRate    int
		bitsPerSample int
		pcm           []byte
	)

	// Walk the chunk list; fmt must precede data.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("fmt chunk too short: %d bytes", chunkSize)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, fmt.Errorf("unsupported wav format %d, want PCM", audioFormat)
			}
			numChannels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		if chunkSize%2 == 1 {
			chunkSize++
		}
		offset = body + chunkSize
	}

	if numChannels == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("missing fmt chunk")
	}
	if bitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported bit depth %d, want 16", bitsPerSample)
	}
	if pcm == nil {
		return nil, fmt.Errorf("missing data chunk")
	}

	frameSize := 2 * numChannels
	frames := len(pcm) / frameSize
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < numChannels; ch++ {
			raw := int16(binary.LittleEndian.Uint16(pcm[i*frameSize+ch*2 : i*frameSize+ch*2+2]))
			sum += float64(raw) / 32768.0
		}
		samples[i] = sum / float64(numChannels)
	}

	return &Buffer{
		Samples:    samples,
		SampleRate: sampleRate,
		DurationMs: int64(frames) * 1000 / int64(sampleRate),
	}, nil
}
