package watch

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/roster"
	"github.com/mcdev12/racedash/go/internal/timer"
)

var (
	clockStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Padding(0, 2)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	driverStyle  = lipgloss.NewStyle().PaddingLeft(2)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(1, 2)
)

// ViewMsg carries a recomputed timer view.
type ViewMsg timer.View

// DriversMsg carries the latest roster snapshot.
type DriversMsg models.Drivers

// ErrMsg reports a lost connection to the server.
type ErrMsg struct {
	Err error
}

// Model is the bubbletea model of the terminal dashboard
type Model struct {
	server    string
	projector *roster.Projector
	view      timer.View
	lines     []string
	count     int
	err       error
	quitting  bool
}

// NewModel creates a model for the server at server.
func NewModel(server string, mode roster.Mode) Model {
	p := roster.NewProjector(mode)
	return Model{
		server:    server,
		projector: p,
		view:      timer.View{Status: timer.StatusStopped, Display: timer.FormatElapsed(0)},
		lines:     p.RenderText(nil),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ViewMsg:
		m.view = timer.View(msg)
		if m.view.Status != timer.StatusError {
			m.err = nil
		}
		return m, nil

	case DriversMsg:
		m.lines = m.projector.RenderText(models.Drivers(msg))
		m.count = len(msg)
		return m, nil

	case ErrMsg:
		m.err = msg.Err
		m.view.Status = timer.StatusError
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Race Dashboard") + "  " + helpStyle.Render(m.server) + "\n\n")
	b.WriteString(clockStyle.Render(m.view.Display) + "  " + statusStyle(m.view.Status).Render(string(m.view.Status)) + "\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + headerStyle.Render(fmt.Sprintf("Drivers (%d)", m.count)) + "\n")
	for _, line := range m.lines {
		b.WriteString(driverStyle.Render(line) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("q/esc: quit"))

	return boxStyle.Render(b.String())
}

// Current returns the displayed timer view.
func (m Model) Current() timer.View {
	return m.view
}

// Lines returns the displayed roster lines.
func (m Model) Lines() []string {
	return m.lines
}

func statusStyle(status timer.Status) lipgloss.Style {
	switch status {
	case timer.StatusRunning:
		return runningStyle
	case timer.StatusError:
		return errorStyle
	default:
		return stoppedStyle
	}
}
