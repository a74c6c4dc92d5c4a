// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for stereo float audio encoders
package encode

// Encoder encodes a pair of float32 channels to bytes
type Encoder interface {
	// Encode converts the left and right channels to encoded audio data
	Encode(left, right []float32) ([]byte, error)

	// Close releases encoder resources
	Close() error
}
