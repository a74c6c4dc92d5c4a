// ABOUTME: Audio type definitions
// ABOUTME: Defines the fixed stereo format, immutable buffers and sample conversions
package audio

import (
	"fmt"
	"math"
	"time"
)

const (
	// Fixed engine format
	SampleRate = 44100
	Channels   = 2
	BitDepth   = 16

	// DefaultBlockSize is the capture block length in frames
	DefaultBlockSize = 2048

	// Int16Scale maps [-1.0, 1.0] onto 16-bit PCM
	Int16Scale = 0x7FFF
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat returns the engine's 16-bit stereo 44.1kHz PCM format
func DefaultFormat() Format {
	return Format{
		Codec:      "pcm",
		SampleRate: SampleRate,
		Channels:   Channels,
		BitDepth:   BitDepth,
	}
}

// Buffer is a fixed-length block of planar float32 samples.
// A Buffer is never modified after NewBuffer returns; callers must not
// write into the slices returned by Channel.
type Buffer struct {
	sampleRate int
	channels   [][]float32
}

// NewBuffer wraps channel slices in a Buffer. All channels must have the same length.
func NewBuffer(sampleRate int, channels ...[]float32) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("buffer needs at least one channel")
	}
	for ch := 1; ch < len(channels); ch++ {
		if len(channels[ch]) != len(channels[0]) {
			return nil, fmt.Errorf("channel %d has %d frames, channel 0 has %d",
				ch, len(channels[ch]), len(channels[0]))
		}
	}
	return &Buffer{sampleRate: sampleRate, channels: channels}, nil
}

// NewStereo builds a 44.1kHz stereo buffer
func NewStereo(left, right []float32) (*Buffer, error) {
	return NewBuffer(SampleRate, left, right)
}

// SampleRate returns the buffer sample rate
func (b *Buffer) SampleRate() int { return b.sampleRate }

// NumChannels returns the number of channels
func (b *Buffer) NumChannels() int { return len(b.channels) }

// Frames returns the length of each channel in samples
func (b *Buffer) Frames() int {
	if len(b.channels) == 0 {
		return 0
	}
	return len(b.channels[0])
}

// Channel returns the samples of one channel
func (b *Buffer) Channel(ch int) []float32 {
	return b.channels[ch]
}

// Duration returns the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.sampleRate)
}

// SampleToInt16 narrows a float sample to 16-bit PCM the way a
// fixed-width integer store does: truncate toward zero, then wrap
// modulo 2^16. NaN and infinities become 0.
func SampleToInt16(sample float32) int16 {
	v := float64(sample) * Int16Scale
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	wrapped := math.Mod(math.Trunc(v), 65536)
	return int16(int32(wrapped))
}

// SampleToInt16Saturate narrows a float sample to 16-bit PCM, clamping
// out-of-range values instead of wrapping.
func SampleToInt16Saturate(sample float32) int16 {
	v := float64(sample) * Int16Scale
	if math.IsNaN(v) {
		return 0
	}
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// SampleFromInt16 converts a 16-bit PCM sample to float
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / Int16Scale
}

// SampleFromInt32 converts a signed integer sample of the given bit depth to float
func SampleFromInt32(sample int32, bitDepth int) float32 {
	full := float32(int64(1) << (bitDepth - 1))
	return float32(sample) / full
}
