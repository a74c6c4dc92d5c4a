// ABOUTME: Tests for the linear resampler
// ABOUTME: Verifies output lengths, passthrough and interpolation
package resample

import (
	"math"
	"testing"
)

func TestOutputLength(t *testing.T) {
	tests := []struct {
		name       string
		inputRate  int
		outputRate int
		inputLen   int
		want       int
	}{
		{"same rate", 44100, 44100, 1000, 1000},
		{"downsample 48k", 48000, 44100, 48000, 44100},
		{"upsample 22k", 22050, 44100, 100, 200},
		{"empty", 48000, 44100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.inputRate, tt.outputRate)
			if got := r.OutputLength(tt.inputLen); got != tt.want {
				t.Errorf("OutputLength(%d) = %d, want %d", tt.inputLen, got, tt.want)
			}
		})
	}
}

func TestResamplePassthrough(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3}
	r := New(44100, 44100)

	output := r.Resample(input)
	if len(output) != len(input) {
		t.Fatalf("expected %d samples, got %d", len(input), len(output))
	}
	for i := range input {
		if output[i] != input[i] {
			t.Errorf("sample %d: got %f, want %f", i, output[i], input[i])
		}
	}

	output[0] = 9
	if input[0] == 9 {
		t.Error("passthrough must copy the input")
	}
}

func TestResampleUpsampleInterpolates(t *testing.T) {
	r := New(22050, 44100)
	output := r.Resample([]float32{0, 1, 0})

	want := []float32{0, 0.5, 1, 0.5, 0, 0}
	if len(output) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(output))
	}
	for i := range want {
		if math.Abs(float64(output[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d: got %f, want %f", i, output[i], want[i])
		}
	}
}

func TestResampleChannels(t *testing.T) {
	r := New(48000, 44100)
	channels := [][]float32{make([]float32, 480), make([]float32, 480)}

	result := r.ResampleChannels(channels)
	if len(result) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(result))
	}
	for ch := range result {
		if len(result[ch]) != 441 {
			t.Errorf("channel %d: expected 441 samples, got %d", ch, len(result[ch]))
		}
	}
}
