// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer, sample conversions and the block merger
// Package audio provides the fundamental audio types used by the four-track engine.
//
// This package defines:
//   - Format: Describes a PCM stream format (sample rate, channels, bit depth)
//   - Buffer: Immutable planar float32 audio, fixed at 44.1kHz stereo for recordings
//
// It also provides the capture helpers used when a take is finished:
//   - MergeBlocks: flattens fixed-size capture blocks into one channel
//   - Interleave: reorders two channels into L/R sample pairs
//
// Example:
//
//	left := audio.MergeBlocks(leftBlocks, frames)
//	right := audio.MergeBlocks(rightBlocks, frames)
//	buf, err := audio.NewStereo(left, right)
//	pcm := audio.SampleToInt16(buf.Channel(0)[0])
package audio
