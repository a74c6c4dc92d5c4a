// ABOUTME: PCM audio encoder
// ABOUTME: Interleaves float32 channels into little-endian 16-bit PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
)

// PCMEncoder encodes raw 16-bit PCM without a container
type PCMEncoder struct {
	saturate bool
}

// Option configures PCM narrowing
type Option func(*PCMEncoder)

// WithSaturation clamps out-of-range samples instead of wrapping them
func WithSaturation(saturate bool) Option {
	return func(e *PCMEncoder) {
		e.saturate = saturate
	}
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format, opts ...Option) (*PCMEncoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	if format.Channels != audio.Channels {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: %d)", format.Channels, audio.Channels)
	}

	e := &PCMEncoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Encode interleaves both channels and converts them to PCM bytes
func (e *PCMEncoder) Encode(left, right []float32) ([]byte, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("channel length mismatch: left=%d right=%d", len(left), len(right))
	}

	interleaved := audio.Interleave(left, right)
	output := make([]byte, len(interleaved)*2)
	e.put(output, interleaved)
	return output, nil
}

// put writes interleaved samples into dst, which must hold 2 bytes per sample
func (e *PCMEncoder) put(dst []byte, interleaved []float32) {
	for i, sample := range interleaved {
		var sample16 int16
		if e.saturate {
			sample16 = audio.SampleToInt16Saturate(sample)
		} else {
			sample16 = audio.SampleToInt16(sample)
		}
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(sample16))
	}
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
