// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 audio to planar float channels via go-mp3
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MP3 audio
type MP3Decoder struct{}

// Decode reads the whole MP3 stream. go-mp3 always produces 16-bit stereo.
func (d *MP3Decoder) Decode(r io.Reader) ([][]float32, int, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 decode error: %w", err)
	}

	// 2 channels * 2 bytes per sample
	frames := len(pcm) / 4
	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(pcm[i*4:])))
		right[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(pcm[i*4+2:])))
	}

	return [][]float32{left, right}, decoder.SampleRate(), nil
}
