// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC audio frame by frame via mewkiz/flac
package decode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct{}

// Decode parses every frame of the stream
func (d *FLACDecoder) Decode(r io.Reader) ([][]float32, int, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	numChannels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)

	channels := make([][]float32, numChannels)
	if info.NSamples > 0 {
		for ch := range channels {
			channels[ch] = make([]float32, 0, info.NSamples)
		}
	}

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("flac frame error: %w", err)
		}

		for ch := 0; ch < numChannels; ch++ {
			for _, sample := range frame.Subframes[ch].Samples[:frame.BlockSize] {
				channels[ch] = append(channels[ch], audio.SampleFromInt32(sample, bitDepth))
			}
		}
	}

	return channels, int(info.SampleRate), nil
}
