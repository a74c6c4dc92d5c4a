// ABOUTME: Track setup, engine state and error definitions
// ABOUTME: Per-call track flags supplied by the caller on record and play
package fourtrack

import (
	"errors"
	"fmt"
)

// NumTracks is the number of track slots
const NumTracks = 4

var (
	// ErrAlreadyRecording is returned by Record while a take is in progress
	ErrAlreadyRecording = errors.New("already recording")

	// ErrInvalidTrack is returned for a track index outside 0..3
	ErrInvalidTrack = errors.New("invalid track index")

	// ErrFormatMismatch is returned when a loaded buffer is not 44.1kHz stereo
	ErrFormatMismatch = errors.New("buffer format mismatch")
)

// TrackFlags are the per-track switches for one record or play call
type TrackFlags struct {
	Muted bool // not routed to the output
	Mixed bool // routed into the mix bus, so it is captured with the input
	Armed bool // overwritten by the next finished take
}

// TrackSetup holds the flags for all four tracks
type TrackSetup [NumTracks]TrackFlags

// Armed returns the indexes of armed tracks
func (s TrackSetup) Armed() []int {
	var armed []int
	for i, flags := range s {
		if flags.Armed {
			armed = append(armed, i)
		}
	}
	return armed
}

// State is the engine state
type State int

const (
	Idle State = iota
	Recording
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Playing:
		return "playing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func checkTrack(index int) error {
	if index < 0 || index >= NumTracks {
		return fmt.Errorf("%w: %d", ErrInvalidTrack, index)
	}
	return nil
}
