// ABOUTME: Decoder interface definition and file dispatch
// ABOUTME: Turns audio files into 44.1kHz stereo buffers for track import
package decode

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio/resample"
)

// Decoder decodes a complete audio stream into planar float channels
type Decoder interface {
	// Decode reads the whole stream and returns its channels and sample rate
	Decode(r io.Reader) (channels [][]float32, sampleRate int, err error)
}

// NewDecoder returns the decoder for a file extension
func NewDecoder(ext string) (Decoder, error) {
	switch strings.ToLower(ext) {
	case ".wav":
		return &WAVDecoder{}, nil
	case ".mp3":
		return &MP3Decoder{}, nil
	case ".flac":
		return &FLACDecoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .wav, .mp3, .flac)", ext)
	}
}

// DecodeFile loads an audio file as a track-ready buffer
func DecodeFile(path string) (*audio.Buffer, error) {
	decoder, err := NewDecoder(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	channels, sampleRate, err := decoder.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	log.Printf("Loaded %s (sample rate: %d Hz, channels: %d)", filepath.Base(path), sampleRate, len(channels))

	return ToTrackBuffer(channels, sampleRate)
}

// ToTrackBuffer converts decoded channels to 44.1kHz stereo.
// Mono is duplicated to both sides; channels beyond two are dropped.
func ToTrackBuffer(channels [][]float32, sampleRate int) (*audio.Buffer, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("decoded audio has no channels")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("decoded audio has invalid sample rate %d", sampleRate)
	}

	left := channels[0]
	right := channels[0]
	if len(channels) > 1 {
		right = channels[1]
	}

	if sampleRate != audio.SampleRate {
		r := resample.New(sampleRate, audio.SampleRate)
		left = r.Resample(left)
		right = r.Resample(right)
	} else if len(channels) == 1 {
		right = make([]float32, len(left))
		copy(right, left)
	}

	return audio.NewStereo(left, right)
}
