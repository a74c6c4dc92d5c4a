// ABOUTME: Tests for the recording and playback engine
// ABOUTME: Tests stop semantics, arming, mute/mix routing and playback
package fourtrack

import (
	"errors"
	"testing"
	"time"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
)

const testBlock = 4

func newTestEngine(t *testing.T, config Config) *Engine {
	t.Helper()
	if config.BlockSize == 0 {
		config.BlockSize = testBlock
	}
	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestStopWithoutRecording(t *testing.T) {
	called := false
	engine := newTestEngine(t, Config{OnClip: func(*Clip) { called = true }})

	for i := 0; i < 2; i++ {
		clip, err := engine.Stop()
		if err != nil {
			t.Fatalf("stop failed: %v", err)
		}
		if clip != nil {
			t.Error("expected no clip when idle")
		}
	}

	if called {
		t.Error("expected no callback when idle")
	}
	for _, info := range engine.Tracks() {
		if info.Loaded {
			t.Errorf("track %d unexpectedly loaded", info.Index)
		}
	}
}

func TestStopTwiceAfterRecording(t *testing.T) {
	clips := 0
	engine := newTestEngine(t, Config{OnClip: func(*Clip) { clips++ }})

	if err := engine.Record(TrackSetup{{Armed: true}}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	engine.Process(planar(testBlock, 0.1), planar(testBlock, 0))

	first, err := engine.Stop()
	if err != nil || first == nil {
		t.Fatalf("expected clip, got %v, %v", first, err)
	}
	second, err := engine.Stop()
	if err != nil || second != nil {
		t.Fatalf("expected no clip on second stop, got %v, %v", second, err)
	}
	if clips != 1 {
		t.Errorf("expected 1 callback, got %d", clips)
	}
	if engine.Track(0) == nil {
		t.Error("expected first take to survive second stop")
	}
}

func TestArmedTracksShareTake(t *testing.T) {
	engine := newTestEngine(t, Config{})

	setup := TrackSetup{{Armed: true}, {}, {Armed: true}, {}}
	if err := engine.Record(setup); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if engine.State() != Recording {
		t.Errorf("expected recording, got %v", engine.State())
	}

	engine.Process(planar(testBlock, 0.5), planar(testBlock, 0))
	engine.Process(planar(testBlock, 0.5), planar(testBlock, 0))

	clip, err := engine.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if clip.Frames != 2*testBlock {
		t.Errorf("expected %d frames, got %d", 2*testBlock, clip.Frames)
	}
	if len(clip.Data) != 44+2*testBlock*4 {
		t.Errorf("expected %d WAV bytes, got %d", 44+2*testBlock*4, len(clip.Data))
	}
	if len(clip.Tracks) != 2 || clip.Tracks[0] != 0 || clip.Tracks[1] != 2 {
		t.Errorf("expected tracks [0 2], got %v", clip.Tracks)
	}

	if engine.Track(0) == nil || engine.Track(0) != engine.Track(2) {
		t.Error("expected tracks 0 and 2 to share the take")
	}
	if engine.Track(1) != nil || engine.Track(3) != nil {
		t.Error("expected tracks 1 and 3 to stay empty")
	}
	if engine.State() != Idle {
		t.Errorf("expected idle, got %v", engine.State())
	}
}

func TestPlayDiscardsRecording(t *testing.T) {
	engine := newTestEngine(t, Config{})

	engine.Record(TrackSetup{{}, {Armed: true}})
	engine.Process(planar(testBlock, 0.5), planar(testBlock, 0))

	engine.Play(TrackSetup{{Armed: true}})
	if engine.State() == Recording {
		t.Fatal("expected play to end the recording")
	}

	clip, err := engine.Stop()
	if err != nil || clip != nil {
		t.Fatalf("expected discarded take, got %v, %v", clip, err)
	}
	if engine.Track(0) != nil || engine.Track(1) != nil {
		t.Error("expected no track to receive a discarded take")
	}
}

func TestRecordTwice(t *testing.T) {
	engine := newTestEngine(t, Config{})

	if err := engine.Record(TrackSetup{}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := engine.Record(TrackSetup{}); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("expected ErrAlreadyRecording, got %v", err)
	}
}

func TestRecordRouting(t *testing.T) {
	tests := []struct {
		name        string
		flags       TrackFlags
		wantOutput  float32
		wantCapture float32
	}{
		{"muted and mixed", TrackFlags{Muted: true, Mixed: true}, 0, 0.25},
		{"audible only", TrackFlags{}, 0.25, 0},
		{"audible and mixed", TrackFlags{Mixed: true}, 0.25, 0.25},
		{"muted and unmixed", TrackFlags{Muted: true}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, Config{MonitorOff: true})
			if err := engine.LoadTrack(0, constBuffer(t, 0.25, 2*testBlock)); err != nil {
				t.Fatalf("load failed: %v", err)
			}

			setup := TrackSetup{tt.flags, {Armed: true}}
			if err := engine.Record(setup); err != nil {
				t.Fatalf("record failed: %v", err)
			}

			out := planar(testBlock, 0)
			engine.Process(planar(testBlock, 0), out)

			for i, v := range out[0] {
				if v != tt.wantOutput {
					t.Errorf("output sample %d: expected %v, got %v", i, tt.wantOutput, v)
				}
			}

			if _, err := engine.Stop(); err != nil {
				t.Fatalf("stop failed: %v", err)
			}

			take := engine.Track(1)
			if take == nil || take.Frames() != testBlock {
				t.Fatalf("expected %d frame take", testBlock)
			}
			for i, v := range take.Channel(0) {
				if v != tt.wantCapture {
					t.Errorf("captured sample %d: expected %v, got %v", i, tt.wantCapture, v)
				}
			}
		})
	}
}

func TestRecordIgnoresBlocksBeforeAndAfter(t *testing.T) {
	engine := newTestEngine(t, Config{})

	engine.Process(planar(testBlock, 0.9), planar(testBlock, 0))
	engine.Record(TrackSetup{{Armed: true}})
	engine.Process(planar(testBlock, 0.1), planar(testBlock, 0))
	clip, _ := engine.Stop()
	engine.Process(planar(testBlock, 0.9), planar(testBlock, 0))

	if clip.Frames != testBlock {
		t.Errorf("expected %d frames, got %d", testBlock, clip.Frames)
	}
	for i, v := range engine.Track(0).Channel(0) {
		if !near(v, 0.1) {
			t.Errorf("sample %d: expected 0.1, got %v", i, v)
		}
	}
}

func TestRingOverflowDropsBlocks(t *testing.T) {
	engine := newTestEngine(t, Config{RingBlocks: 1})
	engine.drainPeriod = time.Hour

	engine.Record(TrackSetup{{Armed: true}})
	for i := 0; i < 3; i++ {
		engine.Process(planar(testBlock, 0.1), planar(testBlock, 0))
	}

	stats := engine.Stats()
	if stats.BlocksDropped != 2 {
		t.Errorf("expected 2 dropped blocks, got %d", stats.BlocksDropped)
	}

	clip, err := engine.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if clip.Frames != testBlock {
		t.Errorf("expected %d frames, got %d", testBlock, clip.Frames)
	}
}

func TestPlayStartsUnmutedTracks(t *testing.T) {
	engine := newTestEngine(t, Config{MonitorOff: true})
	engine.LoadTrack(0, constBuffer(t, 0.25, testBlock))
	engine.LoadTrack(1, constBuffer(t, 0.5, testBlock))

	if err := engine.Play(TrackSetup{{}, {Muted: true}}); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if engine.State() != Playing {
		t.Errorf("expected playing, got %v", engine.State())
	}

	out := planar(testBlock, 0)
	engine.Process(planar(testBlock, 0), out)
	for i, v := range out[0] {
		if v != 0.25 {
			t.Errorf("sample %d: expected 0.25, got %v", i, v)
		}
	}

	if engine.State() != Idle {
		t.Errorf("expected idle once tracks run out, got %v", engine.State())
	}
}

func TestPreviewTrack(t *testing.T) {
	engine := newTestEngine(t, Config{MonitorOff: true})
	engine.LoadTrack(0, constBuffer(t, 0.25, testBlock))
	engine.LoadTrack(2, constBuffer(t, 0.5, testBlock))

	engine.Play(TrackSetup{})
	if err := engine.PreviewTrack(2); err != nil {
		t.Fatalf("preview failed: %v", err)
	}

	out := planar(testBlock, 0)
	engine.Process(planar(testBlock, 0), out)
	for i, v := range out[0] {
		if v != 0.5 {
			t.Errorf("sample %d: expected only track 3, got %v", i, v)
		}
	}
}

func TestPreviewEmptyAndInvalid(t *testing.T) {
	engine := newTestEngine(t, Config{})

	if err := engine.PreviewTrack(1); err != nil {
		t.Errorf("expected empty preview to be a no-op, got %v", err)
	}
	if engine.State() != Idle {
		t.Errorf("expected idle, got %v", engine.State())
	}

	for _, index := range []int{-1, 4} {
		if err := engine.PreviewTrack(index); !errors.Is(err, ErrInvalidTrack) {
			t.Errorf("index %d: expected ErrInvalidTrack, got %v", index, err)
		}
	}
}

func TestLoadTrackFormat(t *testing.T) {
	engine := newTestEngine(t, Config{})

	mono, err := audio.NewBuffer(audio.SampleRate, make([]float32, 4))
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.LoadTrack(0, mono); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("expected ErrFormatMismatch, got %v", err)
	}
	if err := engine.LoadTrack(0, nil); !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("expected ErrFormatMismatch for nil, got %v", err)
	}

	engine.LoadTrack(3, constBuffer(t, 0.1, 8))
	if !engine.Tracks()[3].Loaded || engine.Tracks()[3].Frames != 8 {
		t.Errorf("expected track 4 loaded with 8 frames, got %+v", engine.Tracks()[3])
	}
	if err := engine.ClearTrack(3); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if engine.Tracks()[3].Loaded {
		t.Error("expected track 4 cleared")
	}
}

func TestRecordRestartsTracksFromZero(t *testing.T) {
	engine := newTestEngine(t, Config{MonitorOff: true})

	left := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	buf, err := audio.NewStereo(left, left)
	if err != nil {
		t.Fatal(err)
	}
	engine.LoadTrack(0, buf)

	engine.Play(TrackSetup{})
	engine.Process(planar(testBlock, 0), planar(testBlock, 0))

	engine.Record(TrackSetup{})
	out := planar(testBlock, 0)
	engine.Process(planar(testBlock, 0), out)
	if out[0][0] != 1 {
		t.Errorf("expected track restarted at frame 0, got %v", out[0][0])
	}
}

func TestUnarmedTracksKeepBuffers(t *testing.T) {
	engine := newTestEngine(t, Config{})
	prior := constBuffer(t, 0.75, 2*testBlock)
	if err := engine.LoadTrack(1, prior); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := engine.Record(TrackSetup{{Armed: true}, {}, {Armed: true}, {}}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	engine.Process(planar(testBlock, 0.1), planar(testBlock, 0))
	if _, err := engine.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if engine.Track(1) != prior {
		t.Error("expected unarmed track 2 to keep its buffer")
	}
	if engine.Track(3) != nil {
		t.Error("expected unarmed track 4 to stay empty")
	}
	if engine.Track(0) == prior || engine.Track(0) != engine.Track(2) {
		t.Error("expected armed tracks to share the new take")
	}
}

func TestOverdubAlignedWithMixedTrack(t *testing.T) {
	engine := newTestEngine(t, Config{MonitorOff: true})

	ramp := []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}
	buf, err := audio.NewStereo(ramp, ramp)
	if err != nil {
		t.Fatal(err)
	}
	engine.LoadTrack(0, buf)

	// Earlier playback must not shift the overdub
	engine.Play(TrackSetup{})
	engine.Process(planar(testBlock, 0), planar(testBlock, 0))

	if err := engine.Record(TrackSetup{{Muted: true, Mixed: true}, {Armed: true}}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !engine.Graph().Capturing() {
		t.Fatal("expected the tap open once Record returns")
	}
	engine.Process(planar(testBlock, 0), planar(testBlock, 0))
	engine.Process(planar(testBlock, 0), planar(testBlock, 0))

	if _, err := engine.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if engine.Graph().Capturing() {
		t.Error("expected the tap closed after Stop")
	}

	take := engine.Track(1).Channel(0)
	if len(take) != len(ramp) {
		t.Fatalf("expected %d frames, got %d", len(ramp), len(take))
	}
	for i := range ramp {
		if take[i] != ramp[i] {
			t.Errorf("frame %d: expected %v, got %v", i, ramp[i], take[i])
		}
	}
}
