// ABOUTME: Audio graph and mixer with explicit node connections
// ABOUTME: Routes live input, track voices, the mix bus and the capture processor
package fourtrack

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/audio"
)

// NodeID identifies a node in the audio graph
type NodeID int

const (
	NodeInput     NodeID = iota // live capture input
	NodeMixBus                  // gain bus feeding the processor
	NodeProcessor               // fixed-size block tap feeding capture
	NodeOutput                  // device output sink
	nodeTrackBase
)

// TrackNode returns the source node of a track
func TrackNode(index int) NodeID {
	return nodeTrackBase + NodeID(index)
}

// Track returns the track index of a source node
func (n NodeID) Track() (int, bool) {
	if n < nodeTrackBase || n >= nodeTrackBase+NumTracks {
		return 0, false
	}
	return int(n - nodeTrackBase), true
}

func (n NodeID) String() string {
	switch n {
	case NodeInput:
		return "input"
	case NodeMixBus:
		return "mix"
	case NodeProcessor:
		return "processor"
	case NodeOutput:
		return "output"
	}
	if index, ok := n.Track(); ok {
		return fmt.Sprintf("track%d", index+1)
	}
	return fmt.Sprintf("node(%d)", int(n))
}

// Connection is a directed edge between two nodes
type Connection struct {
	From NodeID
	To   NodeID
}

func (c Connection) String() string {
	return c.From.String() + "->" + c.To.String()
}

// Route selects where a started track is heard
type Route struct {
	Output bool
	Mix    bool
}

// voice is the playback handle of one started track.
// pos is owned by the real-time context.
type voice struct {
	track int
	buf   *audio.Buffer
	pos   int
	done  atomic.Bool
}

// render adds the next len(dstL) frames of the voice into dst without advancing
func (v *voice) render(dstL, dstR []float32) {
	left := v.buf.Channel(0)
	right := left
	if v.buf.NumChannels() > 1 {
		right = v.buf.Channel(1)
	}

	remaining := len(left) - v.pos
	n := min(len(dstL), remaining)
	for i := 0; i < n; i++ {
		dstL[i] += left[v.pos+i]
		dstR[i] += right[v.pos+i]
	}
}

func (v *voice) advance(n int) {
	v.pos += n
	if v.pos >= v.buf.Frames() {
		v.done.Store(true)
	}
}

type patchEntry struct {
	voice    *voice
	toOutput bool
	toMix    bool
}

// patch is an immutable routing snapshot read by the real-time context.
// capture gates the processor tap so it opens on the same block as the
// voices it was published with.
type patch struct {
	entries []patchEntry
	capture bool
}

// TrackStart is one track to start in a StartTracks batch
type TrackStart struct {
	Index  int
	Buffer *audio.Buffer
	Route  Route
}

// GraphConfig configures the mixer. Zero gains mean unity.
type GraphConfig struct {
	BlockSize   int
	MixGain     float32
	MonitorGain float32
	MonitorOff  bool // silence the processor -> output path
}

// Graph owns the node topology and renders blocks.
// Topology changes happen in the control context and are published to the
// real-time context by swapping an immutable patch.
type Graph struct {
	config GraphConfig
	tap    func(left, right []float32)

	mu      sync.Mutex
	edges   map[Connection]struct{}
	voices  [NumTracks]*voice
	capture bool
	patch   atomic.Pointer[patch]

	// Real-time scratch
	mixL []float32
	mixR []float32
}

// NewGraph builds the fixed input -> mix -> processor -> output chain.
// tap receives mix bus blocks in the real-time context while capture is
// on (see StartTracks).
func NewGraph(config GraphConfig, tap func(left, right []float32)) *Graph {
	if config.BlockSize <= 0 {
		config.BlockSize = audio.DefaultBlockSize
	}
	if config.MixGain == 0 {
		config.MixGain = 1
	}
	if config.MonitorGain == 0 {
		config.MonitorGain = 1
	}
	if config.MonitorOff {
		config.MonitorGain = 0
	}

	g := &Graph{
		config: config,
		tap:    tap,
		edges:  make(map[Connection]struct{}),
		mixL:   make([]float32, config.BlockSize),
		mixR:   make([]float32, config.BlockSize),
	}
	g.patch.Store(&patch{})

	g.mustConnect(NodeInput, NodeMixBus)
	g.mustConnect(NodeMixBus, NodeProcessor)
	g.mustConnect(NodeProcessor, NodeOutput)

	return g
}

func (g *Graph) mustConnect(from, to NodeID) {
	if err := g.Connect(from, to); err != nil {
		panic(err)
	}
}

func validEdge(from, to NodeID) bool {
	switch {
	case from == NodeInput && to == NodeMixBus:
		return true
	case from == NodeMixBus && to == NodeProcessor:
		return true
	case from == NodeProcessor && to == NodeOutput:
		return true
	}
	if _, ok := from.Track(); ok {
		return to == NodeOutput || to == NodeMixBus
	}
	return false
}

// Connect adds an edge. Only the edges the mixer can render are accepted.
func (g *Graph) Connect(from, to NodeID) error {
	if !validEdge(from, to) {
		return fmt.Errorf("invalid connection %s->%s", from, to)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.edges[Connection{From: from, To: to}] = struct{}{}
	g.publish()
	return nil
}

// Disconnect removes an edge; removing a missing edge is a no-op
func (g *Graph) Disconnect(from, to NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.edges, Connection{From: from, To: to})
	g.publish()
}

// Connections returns the current edges in a stable order
func (g *Graph) Connections() []Connection {
	g.mu.Lock()
	defer g.mu.Unlock()

	conns := make([]Connection, 0, len(g.edges))
	for c := range g.edges {
		conns = append(conns, c)
	}
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].From != conns[j].From {
			return conns[i].From < conns[j].From
		}
		return conns[i].To < conns[j].To
	})
	return conns
}

// Connected reports whether an edge exists
func (g *Graph) Connected(from, to NodeID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.edges[Connection{From: from, To: to}]
	return ok
}

// StartTrack plays buf from position zero on the track's source node.
// A nil buffer is a no-op and reports false.
func (g *Graph) StartTrack(index int, buf *audio.Buffer, route Route) bool {
	if buf == nil {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.startVoice(index, buf, route)
	g.publish()
	return true
}

// StartTracks replaces every voice with starts and sets the capture gate
// in one patch, so the first block that hears the new voices is also the
// first block the tap receives. Entries with a nil buffer are skipped.
// It returns how many tracks started.
func (g *Graph) StartTracks(starts []TrackStart, capture bool) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.voices {
		g.stopVoice(i)
	}

	started := 0
	for _, st := range starts {
		if st.Buffer == nil || st.Index < 0 || st.Index >= NumTracks {
			continue
		}
		g.startVoice(st.Index, st.Buffer, st.Route)
		started++
	}
	g.capture = capture
	g.publish()
	return started
}

// startVoice connects and registers a voice at position zero (must hold g.mu)
func (g *Graph) startVoice(index int, buf *audio.Buffer, route Route) {
	g.stopVoice(index)

	node := TrackNode(index)
	if route.Output {
		g.edges[Connection{From: node, To: NodeOutput}] = struct{}{}
	}
	if route.Mix {
		g.edges[Connection{From: node, To: NodeMixBus}] = struct{}{}
	}

	v := &voice{track: index, buf: buf}
	if buf.Frames() == 0 {
		v.done.Store(true)
	}
	g.voices[index] = v
}

// StopAll halts and disconnects every track voice, closes the capture gate
// and returns how many voices were stopped
func (g *Graph) StopAll() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	stopped := 0
	for i := range g.voices {
		if g.stopVoice(i) {
			stopped++
		}
	}
	g.capture = false
	g.publish()
	return stopped
}

// Capturing reports whether the published patch feeds the tap
func (g *Graph) Capturing() bool {
	return g.patch.Load().capture
}

// stopVoice halts one voice and removes its edges (must hold g.mu)
func (g *Graph) stopVoice(index int) bool {
	v := g.voices[index]
	if v == nil {
		return false
	}

	v.done.Store(true)
	node := TrackNode(index)
	delete(g.edges, Connection{From: node, To: NodeOutput})
	delete(g.edges, Connection{From: node, To: NodeMixBus})
	g.voices[index] = nil
	return true
}

// publish swaps in a routing snapshot built from the edges (must hold g.mu)
func (g *Graph) publish() {
	p := &patch{capture: g.capture}
	for i, v := range g.voices {
		if v == nil {
			continue
		}
		node := TrackNode(i)
		_, toOutput := g.edges[Connection{From: node, To: NodeOutput}]
		_, toMix := g.edges[Connection{From: node, To: NodeMixBus}]
		p.entries = append(p.entries, patchEntry{voice: v, toOutput: toOutput, toMix: toMix})
	}
	g.patch.Store(p)
}

// Sounding reports whether any voice is still playing
func (g *Graph) Sounding() bool {
	for _, e := range g.patch.Load().entries {
		if !e.voice.done.Load() {
			return true
		}
	}
	return false
}

// Process renders one block in the real-time context. in and out hold
// planar channels; blocks longer than the configured size are split.
func (g *Graph) Process(in, out [][]float32) {
	frames := blockFrames(in, out)
	blockSize := g.config.BlockSize

	for off := 0; off < frames; off += blockSize {
		n := min(blockSize, frames-off)
		g.processChunk(in, out, off, n)
	}
}

func blockFrames(in, out [][]float32) int {
	if len(in) > 0 {
		return len(in[0])
	}
	if len(out) > 0 {
		return len(out[0])
	}
	return 0
}

func (g *Graph) processChunk(in, out [][]float32, off, n int) {
	p := g.patch.Load()
	mixL := g.mixL[:n]
	mixR := g.mixR[:n]

	// input -> mix bus
	switch {
	case len(in) >= 2:
		copy(mixL, in[0][off:off+n])
		copy(mixR, in[1][off:off+n])
	case len(in) == 1:
		copy(mixL, in[0][off:off+n])
		copy(mixR, in[0][off:off+n])
	default:
		clear(mixL)
		clear(mixR)
	}

	// mixed tracks -> mix bus
	for _, e := range p.entries {
		if e.toMix && !e.voice.done.Load() {
			e.voice.render(mixL, mixR)
		}
	}

	if gain := g.config.MixGain; gain != 1 {
		for i := range mixL {
			mixL[i] *= gain
			mixR[i] *= gain
		}
	}

	// mix bus -> processor
	if p.capture && g.tap != nil {
		g.tap(mixL, mixR)
	}

	// processor -> output, unmuted tracks -> output
	if len(out) >= 2 {
		outL := out[0][off : off+n]
		outR := out[1][off : off+n]
		monitor := g.config.MonitorGain
		for i := range outL {
			outL[i] = mixL[i] * monitor
			outR[i] = mixR[i] * monitor
		}
		for _, e := range p.entries {
			if e.toOutput && !e.voice.done.Load() {
				e.voice.render(outL, outR)
			}
		}
	}

	for _, e := range p.entries {
		if !e.voice.done.Load() {
			e.voice.advance(n)
		}
	}
}
