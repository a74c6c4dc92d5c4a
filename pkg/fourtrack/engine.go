// ABOUTME: Recording and playback engine for the four-track recorder
// ABOUTME: State machine owning the graph, track store and in-flight capture
package fourtrack

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio/encode"
	"github.com/google/uuid"
)

const (
	// DefaultRingBlocks is the capture queue depth (about 3s at 2048 frames)
	DefaultRingBlocks = 64
)

// Config configures an Engine
type Config struct {
	// Frames per capture block (default: 2048)
	BlockSize int

	// Capture queue depth in blocks (default: 64)
	RingBlocks int

	// Mix bus and monitor gains, zero means unity
	MixGain     float32
	MonitorGain float32

	// MonitorOff silences the live monitor path to the output
	MonitorOff bool

	// Saturate clamps out-of-range samples when encoding instead of wrapping
	Saturate bool

	// OnClip is called with every encoded take, after Stop releases the engine
	OnClip func(*Clip)
}

// Stats counts real-time capture activity
type Stats struct {
	BlocksCaptured int64
	BlocksDropped  int64
	FramesCaptured int64
	ClipsEncoded   int64
	QueuedBlocks   int
}

// Engine is the four-track recorder. Record, Stop, Play and PreviewTrack
// run in the control context and are serialized; Process runs in the
// real-time context and never blocks.
type Engine struct {
	config      Config
	drainPeriod time.Duration
	graph       *Graph
	ring        *blockRing
	encoder     *encode.WAVEncoder

	// Shared with the real-time context
	recording atomic.Bool
	inFlight  atomic.Int32
	captured  atomic.Int64
	dropped   atomic.Int64
	frames    atomic.Int64
	clips     atomic.Int64

	// Control context
	mu        sync.Mutex
	tracks    TrackStore
	session   *CaptureSession
	setup     TrackSetup
	drainStop chan struct{}
	drainDone chan struct{}
}

// NewEngine creates an idle engine with four empty tracks
func NewEngine(config Config) (*Engine, error) {
	if config.BlockSize == 0 {
		config.BlockSize = audio.DefaultBlockSize
	}
	if config.BlockSize < 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", config.BlockSize)
	}
	if config.RingBlocks == 0 {
		config.RingBlocks = DefaultRingBlocks
	}
	if config.RingBlocks < 0 {
		return nil, fmt.Errorf("ring blocks must be positive, got %d", config.RingBlocks)
	}

	encoder, err := encode.NewWAV(audio.DefaultFormat(), encode.WithSaturation(config.Saturate))
	if err != nil {
		return nil, fmt.Errorf("failed to create WAV encoder: %w", err)
	}

	e := &Engine{
		config:      config,
		drainPeriod: time.Duration(config.BlockSize) * time.Second / audio.SampleRate,
		ring:        newBlockRing(config.RingBlocks, config.BlockSize),
		encoder:     encoder,
	}
	e.graph = NewGraph(GraphConfig{
		BlockSize:   config.BlockSize,
		MixGain:     config.MixGain,
		MonitorGain: config.MonitorGain,
		MonitorOff:  config.MonitorOff,
	}, e.ingest)

	return e, nil
}

// Process renders one real-time block: in is the live input, out is filled
// with the monitor mix plus audible tracks.
func (e *Engine) Process(in, out [][]float32) {
	e.graph.Process(in, out)
}

// ingest is the processor node tap. It runs in the real-time context.
func (e *Engine) ingest(left, right []float32) {
	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)

	if !e.recording.Load() {
		return
	}

	if !e.ring.push(left, right) {
		e.dropped.Add(1)
		return
	}
	e.captured.Add(1)
	e.frames.Add(int64(len(left)))
}

// Record starts a recording pass. Tracks with a buffer that are mixed or
// not muted start playing from zero; setup is kept for Stop.
func (e *Engine) Record(setup TrackSetup) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recording.Load() {
		return ErrAlreadyRecording
	}

	e.graph.StopAll()

	var starts []TrackStart
	for i, flags := range setup {
		buf := e.tracks.Get(i)
		if buf == nil || !(flags.Mixed || !flags.Muted) {
			continue
		}
		starts = append(starts, TrackStart{
			Index:  i,
			Buffer: buf,
			Route:  Route{Output: !flags.Muted, Mix: flags.Mixed},
		})
		log.Printf("Starting track %d (muted=%v, mixed=%v)", i+1, flags.Muted, flags.Mixed)
	}

	session := NewCaptureSession()
	e.session = session
	e.setup = setup
	e.ring.reset()
	e.startDrain(session)
	e.recording.Store(true)

	// Voices and the tap go live on the same block
	e.graph.StartTracks(starts, true)

	log.Printf("Recording started (armed tracks: %v)", oneBased(setup.Armed()))
	return nil
}

// Stop ends a recording pass and returns the encoded take. Armed tracks
// from the Record setup receive the new buffer. When nothing is being
// recorded, Stop only halts playback and returns a nil clip.
func (e *Engine) Stop() (*Clip, error) {
	clip, err := e.stop()
	if clip != nil && e.config.OnClip != nil {
		e.config.OnClip(clip)
	}
	return clip, err
}

func (e *Engine) stop() (*Clip, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	wasRecording := e.recording.Swap(false)
	if stopped := e.graph.StopAll(); stopped > 0 {
		log.Printf("Stopped %d track(s)", stopped)
	}

	if !wasRecording {
		return nil, nil
	}

	e.waitInFlight()
	e.stopDrain()
	e.ring.drain(e.session.Append)

	session := e.session
	e.session = nil

	buf, err := session.Flatten()
	if err != nil {
		return nil, fmt.Errorf("failed to flatten capture: %w", err)
	}

	armed := e.tracks.Commit(e.setup, buf)

	data, err := e.encoder.Encode(buf.Channel(0), buf.Channel(1))
	if err != nil {
		return nil, fmt.Errorf("failed to encode take: %w", err)
	}
	e.clips.Add(1)

	clip := &Clip{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now(),
		Frames:     buf.Frames(),
		SampleRate: buf.SampleRate(),
		Tracks:     armed,
		Data:       data,
	}

	log.Printf("Recording stopped: %d frames (%v) in %d blocks, committed to tracks %v",
		clip.Frames, clip.Duration().Round(time.Millisecond), session.Blocks(), oneBased(armed))
	if dropped := e.dropped.Load(); dropped > 0 {
		log.Printf("Warning: %d capture block(s) dropped since start", dropped)
	}

	return clip, nil
}

// Play halts anything sounding and starts every unmuted track from zero
func (e *Engine) Play(setup TrackSetup) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltLocked()

	var starts []TrackStart
	for i, flags := range setup {
		if flags.Muted {
			continue
		}
		starts = append(starts, TrackStart{Index: i, Buffer: e.tracks.Get(i), Route: Route{Output: true}})
	}
	if n := e.graph.StartTracks(starts, false); n > 0 {
		log.Printf("Playing %d track(s)", n)
	}
	return nil
}

// PreviewTrack halts anything sounding and plays one track on its own
func (e *Engine) PreviewTrack(index int) error {
	if err := checkTrack(index); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltLocked()

	if e.graph.StartTrack(index, e.tracks.Get(index), Route{Output: true}) {
		log.Printf("Previewing track %d", index+1)
	}
	return nil
}

// haltLocked stops all voices; a take in progress is discarded (must hold e.mu)
func (e *Engine) haltLocked() {
	if e.recording.Swap(false) {
		e.waitInFlight()
		e.stopDrain()
		e.ring.reset()
		e.session = nil
		log.Printf("Recording discarded")
	}
	e.graph.StopAll()
}

// LoadTrack replaces a track's buffer with imported audio
func (e *Engine) LoadTrack(index int, buf *audio.Buffer) error {
	if err := checkTrack(index); err != nil {
		return err
	}
	if buf == nil {
		return fmt.Errorf("%w: nil buffer", ErrFormatMismatch)
	}
	if buf.SampleRate() != audio.SampleRate || buf.NumChannels() != audio.Channels {
		return fmt.Errorf("%w: got %dHz/%dch, want %dHz/%dch", ErrFormatMismatch,
			buf.SampleRate(), buf.NumChannels(), audio.SampleRate, audio.Channels)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tracks.Set(index, buf)
	log.Printf("Loaded track %d: %d frames", index+1, buf.Frames())
	return nil
}

// ClearTrack empties a track slot
func (e *Engine) ClearTrack(index int) error {
	if err := checkTrack(index); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.tracks.Set(index, nil)
	return nil
}

// Track returns the stored buffer of a track, or nil
func (e *Engine) Track(index int) *audio.Buffer {
	if checkTrack(index) != nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.tracks.Get(index)
}

// Tracks describes all track slots
func (e *Engine) Tracks() []TrackInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.tracks.Info()
}

// State returns the current engine state. Playback returns to Idle on its
// own once every voice has run out.
func (e *Engine) State() State {
	if e.recording.Load() {
		return Recording
	}
	if e.graph.Sounding() {
		return Playing
	}
	return Idle
}

// Stats returns capture counters
func (e *Engine) Stats() Stats {
	return Stats{
		BlocksCaptured: e.captured.Load(),
		BlocksDropped:  e.dropped.Load(),
		FramesCaptured: e.frames.Load(),
		ClipsEncoded:   e.clips.Load(),
		QueuedBlocks:   e.ring.len(),
	}
}

// Graph exposes the audio graph for topology inspection
func (e *Engine) Graph() *Graph {
	return e.graph
}

// Close halts playback and discards any take in progress
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltLocked()
	return e.encoder.Close()
}

// waitInFlight spins until the real-time context leaves ingest
func (e *Engine) waitInFlight() {
	for e.inFlight.Load() != 0 {
		runtime.Gosched()
	}
}

// startDrain moves ring blocks into the session every drainPeriod (must hold e.mu)
func (e *Engine) startDrain(session *CaptureSession) {
	e.drainStop = make(chan struct{})
	e.drainDone = make(chan struct{})

	go func(stop <-chan struct{}, done chan<- struct{}) {
		defer close(done)

		ticker := time.NewTicker(e.drainPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.ring.drain(session.Append)
			case <-stop:
				return
			}
		}
	}(e.drainStop, e.drainDone)
}

// stopDrain waits for the drain goroutine to exit (must hold e.mu)
func (e *Engine) stopDrain() {
	if e.drainStop == nil {
		return
	}
	close(e.drainStop)
	<-e.drainDone
	e.drainStop = nil
	e.drainDone = nil
}

func oneBased(indexes []int) []int {
	result := make([]int, len(indexes))
	for i, idx := range indexes {
		result[i] = idx + 1
	}
	return result
}
