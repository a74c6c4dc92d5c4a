// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Used to bring imported tracks to the engine's 44.1kHz rate
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	ratio      float64
}

// New creates a new resampler
func New(inputRate, outputRate int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// OutputLength calculates how many output samples a channel of inputLen samples produces
func (r *Resampler) OutputLength(inputLen int) int {
	return int(int64(inputLen) * int64(r.outputRate) / int64(r.inputRate))
}

// Resample converts one whole channel to the output rate.
// The last input sample is held for positions past the end.
func (r *Resampler) Resample(input []float32) []float32 {
	if r.inputRate == r.outputRate {
		output := make([]float32, len(input))
		copy(output, input)
		return output
	}

	output := make([]float32, r.OutputLength(len(input)))
	last := len(input) - 1

	for i := range output {
		pos := float64(i) * r.ratio
		idx := int(pos)

		if idx >= last {
			output[i] = input[last]
			continue
		}

		// Linear interpolation
		frac := float32(pos - float64(idx))
		output[i] = input[idx]*(1-frac) + input[idx+1]*frac
	}

	return output
}

// ResampleChannels converts every channel with the same ratio
func (r *Resampler) ResampleChannels(channels [][]float32) [][]float32 {
	result := make([][]float32, len(channels))
	for ch, samples := range channels {
		result[ch] = r.Resample(samples)
	}
	return result
}
