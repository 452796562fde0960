package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/dgallion1/readaloud/internal/highlight"
	"github.com/dgallion1/readaloud/internal/reader"
	"github.com/dgallion1/readaloud/internal/session"
)

var (
	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)
)

// readerEventMsg carries a reader event into the bubbletea loop.
type readerEventMsg reader.Event

func waitForEvent(events <-chan reader.Event) tea.Cmd {
	return func() tea.Msg {
		return readerEventMsg(<-events)
	}
}

type model struct {
	desk   *session.Desk
	events <-chan reader.Event

	status    session.Status
	text      string
	highlight *highlight.Range
	message   string

	width    int
	height   int
	quitting bool
}

func newModel(desk *session.Desk, events <-chan reader.Event) model {
	m := model{
		desk:   desk,
		events: events,
		width:  80,
		height: 24,
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m *model) refresh() {
	m.status = m.desk.Status()
	m.highlight = m.status.Reader.Highlight
	if view, err := m.desk.Page(); err == nil {
		m.text = view.Text
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.message = ""
		switch msg.String() {
		case " ":
			switch {
			case !m.status.Reader.Reading:
				if err := m.desk.StartReading(); err != nil {
					m.message = err.Error()
				}
			case m.status.Reader.Paused:
				m.desk.Resume()
			default:
				m.desk.Pause()
			}

		case "s":
			m.desk.StopReading()

		case "right", "n":
			if err := m.desk.NextPage(); err != nil {
				m.message = "last page"
			}

		case "left", "p":
			if err := m.desk.PrevPage(); err != nil {
				m.message = "first page"
			}

		case "q", "Q", "ctrl+c":
			m.desk.Close()
			m.quitting = true
			return m, tea.Quit
		}
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case readerEventMsg:
		switch msg.Kind {
		case reader.EventHighlight:
			m.highlight = msg.Highlight
		default:
			m.refresh()
		}
		return m, waitForEvent(m.events)
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	state := m.status.Reader.State
	if m.status.Reader.Paused {
		state = pausedStyle.Render("paused")
	}
	line := fmt.Sprintf("page %d/%d | %s", m.status.Page, m.status.TotalPages, state)
	if m.status.Reader.Reading && m.status.Reader.ChunkCount > 0 {
		line += fmt.Sprintf(" | chunk %d/%d", m.status.Reader.ChunkIndex+1, m.status.Reader.ChunkCount)
	}
	if m.message != "" {
		line += " | " + m.message
	}
	title := ""
	if m.status.Document != nil {
		title = m.status.Document.Title
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(truncate.StringWithTail(title, uint(max(m.width, 1)), "…")))
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render(line))
	sb.WriteString("\n\n")

	// Reserve 4 lines: title, status and blank line on top, controls at the bottom.
	body := m.bodyLines(max(m.height-4, 1))
	sb.WriteString(strings.Join(body, "\n"))
	for i := len(body); i < m.height-4; i++ {
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(controlsStyle.Render("SPACE: read/pause  S: stop  ←/→: page  Q: quit"))
	return sb.String()
}

// bodyLines wraps the page and scrolls it so the spoken word stays in view.
func (m model) bodyLines(rows int) []string {
	width := max(m.width-2, 10)
	if m.highlight == nil {
		return firstN(strings.Split(wordwrap.String(m.text, width), "\n"), rows)
	}

	before, word, after := highlight.Split(m.text, *m.highlight)
	lines := strings.Split(wordwrap.String(before+wordStyle.Render(word)+after, width), "\n")
	at := strings.Count(wordwrap.String(before+word, width), "\n")

	start := max(at-rows/2, 0)
	if start+rows > len(lines) {
		start = max(len(lines)-rows, 0)
	}
	return firstN(lines[start:], rows)
}

func firstN(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}
