// ABOUTME: Audio encoder package for serializing finished takes
// ABOUTME: Provides Encoder interface and implementations for raw PCM and WAV
// Package encode provides encoders for stereo float32 audio.
//
// Supports: raw 16-bit PCM, canonical 16-bit PCM WAV
//
// Samples in [-1.0, 1.0] are scaled by 32767. Out-of-range samples wrap by
// default, matching a fixed-width integer store; WithSaturation clamps them.
//
// Example:
//
//	encoder, err := encode.NewWAV(audio.DefaultFormat())
//	data, err := encoder.Encode(left, right)
package encode
