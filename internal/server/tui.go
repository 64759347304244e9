// ABOUTME: Relay TUI for displaying producer, listeners and window state
// ABOUTME: Real-time relay status display using bubbletea
package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RelayTUI manages the relay TUI
type RelayTUI struct {
	program  *tea.Program
	updates  chan RelayStatus
	done     chan struct{}
	stopOnce sync.Once
	quitChan chan struct{} // Signal to stop the relay
}

// RelayStatus holds relay state for the TUI
type RelayStatus struct {
	Name      string
	Addr      string
	Format    string
	Buffered  time.Duration
	Window    time.Duration
	Producer  string // remote address, empty when idle
	Since     time.Time
	Chunks    uint64
	Bytes     uint64
	Snapshots uint64
	LastSaved time.Time
	SaveError string
	Listeners []ListenerInfo
}

// ListenerInfo holds listener information for display
type ListenerInfo struct {
	Remote    string
	Connected time.Duration
	Sent      uint64
	Dropped   uint64
}

// tuiModel is the bubbletea model for the relay TUI
type tuiModel struct {
	status    RelayStatus
	startTime time.Time
	quitting  bool
	quitChan  chan struct{}
}

type tickMsg time.Time
type statusMsg RelayStatus

func (m tuiModel) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			select {
			case m.quitChan <- struct{}{}:
			default:
			}
			return m, tea.Quit
		}

	case tickMsg:
		return m, tickEvery()

	case statusMsg:
		m.status = RelayStatus(msg)
		return m, nil
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	liveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down relay...\n"
	}

	var b strings.Builder
	st := m.status

	b.WriteString(titleStyle.Render("PCM Relay"))
	b.WriteString("\n\n")

	field := func(name, value string) {
		b.WriteString(headerStyle.Render(name + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	field("Relay", st.Name)
	field("Listening", st.Addr)
	field("Format", st.Format)
	field("Uptime", time.Since(m.startTime).Round(time.Second).String())
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Producer"))
	b.WriteString("\n")
	if st.Producer == "" {
		b.WriteString(valueStyle.Render("  idle"))
	} else {
		b.WriteString(liveStyle.Render(fmt.Sprintf("  ● %s", st.Producer)))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" for %s", time.Since(st.Since).Round(time.Second))))
	}
	b.WriteString("\n")
	field("  Window", fmt.Sprintf("%s / %s %s", st.Buffered.Round(100*time.Millisecond), st.Window, bar(st.Buffered, st.Window, 20)))
	field("  Relayed", fmt.Sprintf("%d chunks, %s", st.Chunks, humanBytes(st.Bytes)))

	saved := "none"
	if !st.LastSaved.IsZero() {
		saved = fmt.Sprintf("%d (last %s)", st.Snapshots, st.LastSaved.Format("15:04:05"))
	}
	field("  Snapshots", saved)
	if st.SaveError != "" {
		b.WriteString(errorStyle.Render("  Last save failed: " + st.SaveError))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Listeners (%d)", len(st.Listeners))))
	b.WriteString("\n")
	if len(st.Listeners) == 0 {
		b.WriteString(valueStyle.Render("  No listeners connected"))
		b.WriteString("\n")
	}
	for _, l := range st.Listeners {
		b.WriteString(fmt.Sprintf("  • %s", l.Remote))
		b.WriteString(valueStyle.Render(fmt.Sprintf(" (%s, %d sent, %d dropped)", l.Connected.Round(time.Second), l.Sent, l.Dropped)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to quit"))

	return b.String()
}

// bar renders fill/total as a fixed-width gauge
func bar(fill, total time.Duration, width int) string {
	n := 0
	if total > 0 {
		n = int(int64(width) * int64(fill) / int64(total))
	}
	if n > width {
		n = width
	}
	return "[" + strings.Repeat("█", n) + strings.Repeat("░", width-n) + "]"
}

func humanBytes(n uint64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// NewRelayTUI creates a new relay TUI
func NewRelayTUI() *RelayTUI {
	return &RelayTUI{
		updates:  make(chan RelayStatus, 10),
		done:     make(chan struct{}),
		quitChan: make(chan struct{}, 1),
	}
}

// Start runs the TUI until Stop is called or the user quits
func (t *RelayTUI) Start(initial RelayStatus) error {
	m := tuiModel{
		status:    initial,
		startTime: time.Now(),
		quitChan:  t.quitChan,
	}

	t.program = tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		for {
			select {
			case status := <-t.updates:
				t.program.Send(statusMsg(status))
			case <-t.done:
				return
			}
		}
	}()

	_, err := t.program.Run()
	return err
}

// Update sends a status update to the TUI. Updates after Stop are dropped.
func (t *RelayTUI) Update(status RelayStatus) {
	select {
	case <-t.done:
	case t.updates <- status:
	default:
		// Don't block if channel is full
	}
}

// Stop stops the TUI
func (t *RelayTUI) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
		if t.program != nil {
			t.program.Quit()
		}
	})
}

// QuitChan returns the channel that signals when user wants to quit
func (t *RelayTUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
