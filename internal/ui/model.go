// ABOUTME: Bubbletea model for the recorder TUI
// ABOUTME: Per-track arm/mute/mix toggles plus record, stop, play and preview
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/fourtrack-go/pkg/fourtrack"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const refreshInterval = 200 * time.Millisecond

// Controller is the engine surface driven by the TUI
type Controller interface {
	Record(setup fourtrack.TrackSetup) error
	Stop() (*fourtrack.Clip, error)
	Play(setup fourtrack.TrackSetup) error
	PreviewTrack(index int) error
	State() fourtrack.State
	Tracks() []fourtrack.TrackInfo
	Stats() fourtrack.Stats
}

// Model represents the TUI state
type Model struct {
	ctrl Controller
	name string

	// Track switches, sent fresh with every record and play
	setup  fourtrack.TrackSetup
	cursor int

	// Engine snapshot
	state  fourtrack.State
	tracks []fourtrack.TrackInfo
	stats  fourtrack.Stats

	// Last action result
	status   string
	lastClip *fourtrack.Clip
	quitting bool

	width  int
	height int
}

type tickMsg time.Time

// actionMsg reports the result of an engine call
type actionMsg struct {
	action string
	clip   *fourtrack.Clip
	err    error
}

// NewModel creates a new TUI model. Track 1 starts armed.
func NewModel(ctrl Controller, name string) Model {
	m := Model{
		ctrl:   ctrl,
		name:   name,
		status: "Ready",
	}
	m.setup[0].Armed = true
	m.refresh()
	return m
}

// Init starts the refresh ticker
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.refresh()
		return m, tickEvery()
	case actionMsg:
		m.applyAction(msg)
		m.refresh()
	}

	return m, nil
}

// refresh pulls a snapshot from the engine
func (m *Model) refresh() {
	if m.ctrl == nil {
		return
	}
	m.state = m.ctrl.State()
	m.tracks = m.ctrl.Tracks()
	m.stats = m.ctrl.Stats()
}

func (m *Model) applyAction(msg actionMsg) {
	if msg.err != nil {
		m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		return
	}

	switch {
	case msg.clip != nil:
		m.lastClip = msg.clip
		m.status = fmt.Sprintf("Recorded %s to %s",
			msg.clip.Duration().Round(10*time.Millisecond), trackList(msg.clip.Tracks))
	default:
		m.status = msg.action
	}
}

// Enabled actions derived from the engine state
func (m Model) canRecord() bool  { return m.state != fourtrack.Recording }
func (m Model) canStop() bool    { return m.state != fourtrack.Idle }
func (m Model) canPlay() bool    { return m.state != fourtrack.Recording }
func (m Model) canPreview() bool { return m.state != fourtrack.Recording }

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < fourtrack.NumTracks-1 {
			m.cursor++
		}
	case "a":
		m.setup[m.cursor].Armed = !m.setup[m.cursor].Armed
	case "m":
		m.setup[m.cursor].Muted = !m.setup[m.cursor].Muted
	case "x":
		m.setup[m.cursor].Mixed = !m.setup[m.cursor].Mixed
	case "r":
		if m.canRecord() {
			return m, m.record()
		}
	case "s", " ":
		if m.canStop() {
			return m, m.stop()
		}
	case "p":
		if m.canPlay() {
			return m, m.play()
		}
	case "1", "2", "3", "4":
		if m.canPreview() {
			return m, m.preview(int(key[0] - '1'))
		}
	}

	return m, nil
}

func (m Model) record() tea.Cmd {
	ctrl, setup := m.ctrl, m.setup
	return func() tea.Msg {
		return actionMsg{action: "Recording", err: ctrl.Record(setup)}
	}
}

func (m Model) stop() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		clip, err := ctrl.Stop()
		return actionMsg{action: "Stopped", clip: clip, err: err}
	}
}

func (m Model) play() tea.Cmd {
	ctrl, setup := m.ctrl, m.setup
	return func() tea.Msg {
		return actionMsg{action: "Playing", err: ctrl.Play(setup)}
	}
}

func (m Model) preview(index int) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return actionMsg{action: fmt.Sprintf("Previewing track %d", index+1), err: ctrl.PreviewTrack(index)}
	}
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	cursorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	recordingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	onStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offStyle       = lipgloss.NewStyle().Faint(true)
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("FourTrack " + m.name))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("State: "))
	if m.state == fourtrack.Recording {
		b.WriteString(recordingStyle.Render("● recording"))
	} else {
		b.WriteString(valueStyle.Render(m.state.String()))
	}
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("   Track  Arm  Mute  Mix  Take"))
	b.WriteString("\n")
	for i := 0; i < fourtrack.NumTracks; i++ {
		b.WriteString(m.renderTrack(i))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Capture: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d blocks, %d dropped, %d clips",
		m.stats.BlocksCaptured, m.stats.BlocksDropped, m.stats.ClipsEncoded)))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Status: "))
	b.WriteString(valueStyle.Render(m.status))
	b.WriteString("\n\n")

	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderTrack(i int) string {
	prefix := "   "
	if i == m.cursor {
		prefix = cursorStyle.Render(" > ")
	}

	take := offStyle.Render("empty")
	if i < len(m.tracks) && m.tracks[i].Loaded {
		take = valueStyle.Render(m.tracks[i].Duration.Round(10 * time.Millisecond).String())
	}

	flags := m.setup[i]
	return fmt.Sprintf("%s%-6d %s  %s   %s  %s",
		prefix, i+1, toggle(flags.Armed), toggle(flags.Muted), toggle(flags.Mixed), take)
}

func (m Model) renderHelp() string {
	var actions []string
	if m.canRecord() {
		actions = append(actions, "r:Record")
	}
	if m.canStop() {
		actions = append(actions, "s:Stop")
	}
	if m.canPlay() {
		actions = append(actions, "p:Play")
	}
	if m.canPreview() {
		actions = append(actions, "1-4:Preview")
	}

	help := "↑/↓:Track  a:Arm  m:Mute  x:Mix  " + strings.Join(actions, "  ") + "  q:Quit"
	return lipgloss.NewStyle().Faint(true).Render(help)
}

func toggle(on bool) string {
	if on {
		return onStyle.Render("[x]")
	}
	return offStyle.Render("[ ]")
}

func trackList(tracks []int) string {
	if len(tracks) == 0 {
		return "no track"
	}
	names := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = fmt.Sprintf("%d", t+1)
	}
	return "track " + strings.Join(names, ", ")
}
