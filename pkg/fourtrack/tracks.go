// ABOUTME: Track store holding the last committed take per slot
// ABOUTME: Buffers are shared by pointer and never mutated
package fourtrack

import (
	"time"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
)

// TrackStore holds one optional buffer per track.
// It is only touched from the control context.
type TrackStore struct {
	buffers [NumTracks]*audio.Buffer
}

// TrackInfo describes a track slot
type TrackInfo struct {
	Index    int
	Loaded   bool
	Frames   int
	Duration time.Duration
}

// Get returns the buffer of a track, or nil when empty
func (s *TrackStore) Get(index int) *audio.Buffer {
	return s.buffers[index]
}

// Set replaces the buffer of a track; nil clears it
func (s *TrackStore) Set(index int, buf *audio.Buffer) {
	s.buffers[index] = buf
}

// Commit assigns buf to every armed track and returns their indexes
func (s *TrackStore) Commit(setup TrackSetup, buf *audio.Buffer) []int {
	armed := setup.Armed()
	for _, i := range armed {
		s.buffers[i] = buf
	}
	return armed
}

// Info returns a description of every track
func (s *TrackStore) Info() []TrackInfo {
	info := make([]TrackInfo, NumTracks)
	for i, buf := range s.buffers {
		info[i].Index = i
		if buf != nil {
			info[i].Loaded = true
			info[i].Frames = buf.Frames()
			info[i].Duration = buf.Duration()
		}
	}
	return info
}
