// ABOUTME: Encoded clip produced by stopping a recording
// ABOUTME: Carries WAV bytes plus identification and timing
package fourtrack

import (
	"time"
)

// Clip is one finished take encoded as WAV
type Clip struct {
	ID         string
	CreatedAt  time.Time
	Frames     int
	SampleRate int
	Tracks     []int // tracks that received the take
	Data       []byte
}

// Duration returns the length of the take
func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames) * time.Second / time.Duration(c.SampleRate)
}

// Timestamp is the creation time in ISO-8601 UTC with milliseconds
func (c *Clip) Timestamp() string {
	return c.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z")
}

// Filename names a saved clip after its timestamp
func (c *Clip) Filename() string {
	return c.Timestamp() + ".wav"
}
