// ABOUTME: Audio device package hosting the real-time block callback
// ABOUTME: Provides the Processor/Host interfaces and a malgo duplex host
// Package device connects the engine to a sound card.
//
// A Host calls Processor.Process once per block with planar float32
// capture input and a planar output buffer to fill. The malgo host opens
// one duplex miniaudio device so capture and playback share a clock.
//
// Example:
//
//	host := device.NewMalgo(device.Config{SampleRate: 44100, Channels: 2, BlockSize: 2048})
//	err := host.Start(engine)
//	defer host.Close()
package device
