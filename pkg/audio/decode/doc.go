// ABOUTME: Audio decoder package for importing files into tracks
// ABOUTME: Provides Decoder interface and implementations for WAV, MP3, FLAC
// Package decode loads audio files into engine buffers.
//
// Supports: WAV (16-bit and 24-bit PCM), MP3, FLAC
//
// Decoders produce planar float32 channels at the file's native rate.
// DecodeFile converts the result to 44.1kHz stereo so it can be loaded
// into a track slot.
//
// Example:
//
//	buf, err := decode.DecodeFile("drums.flac")
//	err = engine.LoadTrack(0, buf)
package decode
