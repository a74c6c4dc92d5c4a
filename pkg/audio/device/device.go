// ABOUTME: Real-time audio host interface
// ABOUTME: Defines the block processor driven by capture/playback devices
package device

// Processor handles one real-time block. in and out hold one planar
// slice per channel, all of equal length. Implementations must not
// block or allocate.
type Processor interface {
	Process(in, out [][]float32)
}

// ProcessorFunc adapts a function to the Processor interface
type ProcessorFunc func(in, out [][]float32)

// Process calls f(in, out)
func (f ProcessorFunc) Process(in, out [][]float32) {
	f(in, out)
}

// Host delivers blocks to a Processor at real-time cadence
type Host interface {
	// Start begins delivering blocks to p
	Start(p Processor) error

	// Close stops the device and releases resources
	Close() error
}

// Config describes the requested device format
type Config struct {
	SampleRate int
	Channels   int
	BlockSize  int // frames per callback
}
