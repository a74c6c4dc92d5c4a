// ABOUTME: WAV audio decoder
// ABOUTME: Decodes 16-bit and 24-bit PCM WAV files, skipping unknown chunks
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
)

// WAVDecoder decodes RIFF/WAVE PCM files
type WAVDecoder struct{}

type wavFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// Decode reads the fmt and data chunks of a WAV stream
func (d *WAVDecoder) Decode(r io.Reader) ([][]float32, int, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, 0, fmt.Errorf("WAV data too short: %w", err)
	}
	if string(riff[0:4]) != "RIFF" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(riff[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	var format *wavFormat
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return nil, 0, fmt.Errorf("invalid WAV file: missing data chunk")
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, 0, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if size < 16 {
				return nil, 0, fmt.Errorf("invalid fmt chunk size %d", size)
			}
			format = &wavFormat{
				AudioFormat:   binary.LittleEndian.Uint16(body[0:]),
				NumChannels:   binary.LittleEndian.Uint16(body[2:]),
				SampleRate:    binary.LittleEndian.Uint32(body[4:]),
				ByteRate:      binary.LittleEndian.Uint32(body[8:]),
				BlockAlign:    binary.LittleEndian.Uint16(body[12:]),
				BitsPerSample: binary.LittleEndian.Uint16(body[14:]),
			}
		case "data":
			if format == nil {
				return nil, 0, fmt.Errorf("invalid WAV file: data chunk before fmt chunk")
			}
			data := make([]byte, size)
			n, err := io.ReadFull(r, data)
			if err != nil && err != io.ErrUnexpectedEOF {
				return nil, 0, fmt.Errorf("failed to read data chunk: %w", err)
			}
			return decodeWAVData(format, data[:n])
		default:
			// Chunks are word aligned
			skip := int64(size) + int64(size&1)
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, 0, fmt.Errorf("failed to skip %q chunk: %w", id, err)
			}
		}
	}
}

func decodeWAVData(format *wavFormat, data []byte) ([][]float32, int, error) {
	if format.AudioFormat != 1 {
		return nil, 0, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", format.AudioFormat)
	}
	if format.NumChannels == 0 {
		return nil, 0, fmt.Errorf("unsupported channel count: 0")
	}

	var bytesPerSample int
	switch format.BitsPerSample {
	case 16:
		bytesPerSample = 2
	case 24:
		bytesPerSample = 3
	default:
		return nil, 0, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitsPerSample)
	}

	numChannels := int(format.NumChannels)
	frameSize := bytesPerSample * numChannels
	frames := len(data) / frameSize

	channels := make([][]float32, numChannels)
	for ch := range channels {
		channels[ch] = make([]float32, frames)
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			off := i*frameSize + ch*bytesPerSample
			if bytesPerSample == 2 {
				channels[ch][i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(data[off:])))
			} else {
				val := int32(data[off]) | int32(data[off+1])<<8 | int32(data[off+2])<<16
				if val&0x800000 != 0 {
					val |= ^0xFFFFFF
				}
				channels[ch][i] = audio.SampleFromInt32(val, 24)
			}
		}
	}

	return channels, int(format.SampleRate), nil
}
