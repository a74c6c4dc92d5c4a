// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts planar float audio between sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation over planar float32 channels. Handles both
// upsampling and downsampling.
//
// Example:
//
//	r := resample.New(48000, 44100)
//	left = r.Resample(left)
package resample
