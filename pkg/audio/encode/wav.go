// ABOUTME: WAV container encoder
// ABOUTME: Writes canonical 44-byte RIFF/WAVE headers followed by 16-bit stereo PCM
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
)

// HeaderSize is the size of a canonical PCM WAV header
const HeaderSize = 44

// WAVHeader represents the header structure of a WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + data bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16 // NumChannels * BitsPerSample / 8
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// NewWAVHeader builds the header for dataSize bytes of 16-bit PCM
func NewWAVHeader(sampleRate, channels int, dataSize uint32) WAVHeader {
	bitsPerSample := uint16(16)
	numChannels := uint16(channels)

	return WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// WAVEncoder encodes stereo channels into a complete WAV file
type WAVEncoder struct {
	sampleRate int
	pcm        *PCMEncoder
}

// NewWAV creates a new WAV encoder
func NewWAV(format audio.Format, opts ...Option) (*WAVEncoder, error) {
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", format.SampleRate)
	}

	pcm, err := NewPCM(format, opts...)
	if err != nil {
		return nil, err
	}

	return &WAVEncoder{
		sampleRate: format.SampleRate,
		pcm:        pcm,
	}, nil
}

// Encode produces header and payload in a single allocation
func (e *WAVEncoder) Encode(left, right []float32) ([]byte, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("channel length mismatch: left=%d right=%d", len(left), len(right))
	}

	interleaved := audio.Interleave(left, right)
	dataSize := uint32(len(interleaved) * 2)
	header := NewWAVHeader(e.sampleRate, audio.Channels, dataSize)

	output := make([]byte, HeaderSize+int(dataSize))
	if _, err := binary.Encode(output, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}

	e.pcm.put(output[HeaderSize:], interleaved)
	return output, nil
}

// Close releases resources
func (e *WAVEncoder) Close() error {
	return e.pcm.Close()
}

// EncodeWAV encodes a stereo take at the given sample rate with wrapping narrowing
func EncodeWAV(left, right []float32, sampleRate int) ([]byte, error) {
	format := audio.DefaultFormat()
	format.SampleRate = sampleRate

	encoder, err := NewWAV(format)
	if err != nil {
		return nil, err
	}
	defer encoder.Close()

	return encoder.Encode(left, right)
}
