// ABOUTME: Tests for Prometheus metrics
// ABOUTME: Tests that engine statistics are exported at scrape time
package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/fourtrack"
)

type fakeSource struct {
	stats fourtrack.Stats
	state fourtrack.State
}

func (f *fakeSource) Stats() fourtrack.Stats { return f.stats }
func (f *fakeSource) State() fourtrack.State { return f.state }
func (f *fakeSource) Tracks() []fourtrack.TrackInfo {
	return []fourtrack.TrackInfo{{Index: 0, Loaded: true}, {Index: 1}, {Index: 2, Loaded: true}, {Index: 3}}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetricsExportEngineStats(t *testing.T) {
	source := &fakeSource{
		stats: fourtrack.Stats{BlocksCaptured: 12, BlocksDropped: 3, ClipsEncoded: 2},
		state: fourtrack.Recording,
	}
	m := NewMetrics(source)

	body := scrape(t, m)

	want := []string{
		"fourtrack_blocks_captured_total 12",
		"fourtrack_blocks_dropped_total 3",
		"fourtrack_clips_encoded_total 2",
		"fourtrack_engine_state 1",
		"fourtrack_tracks_loaded 2",
	}
	for _, line := range want {
		if !strings.Contains(body, line) {
			t.Errorf("expected %q in scrape output", line)
		}
	}

	// Values are read live
	source.stats.BlocksCaptured = 20
	if !strings.Contains(scrape(t, m), "fourtrack_blocks_captured_total 20") {
		t.Error("expected updated capture count")
	}
}

func TestMetricsClipCounters(t *testing.T) {
	m := NewMetrics(&fakeSource{})
	m.ClipsSaved.Inc()
	m.ClipUploadFails.Inc()
	m.ClipBytes.Observe(1024)

	body := scrape(t, m)
	for _, line := range []string{
		"fourtrack_clips_saved_total 1",
		"fourtrack_clip_upload_failures_total 1",
		"fourtrack_clip_bytes_count 1",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("expected %q in scrape output", line)
		}
	}
}

func TestSeparateRegistries(t *testing.T) {
	// Two recorders in one process must not collide
	NewMetrics(&fakeSource{})
	NewMetrics(&fakeSource{})
}
