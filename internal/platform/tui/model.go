package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/core"
	"github.com/vovakirdan/dragonslayer/internal/engine"
	"github.com/vovakirdan/dragonslayer/internal/game"
)

// Console layout
const (
	consoleTickRate = 30
	minFieldWidth   = 20
	maxFieldWidth   = 144
	chromeHeight    = 7 // Header, panel border and help lines around the playfield
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8"))
	timerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	winStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	loseStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	heartStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	viewerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// StatusSource reports the game loop's latest tick.
type StatusSource interface {
	Status() engine.Status
}

// Model is the Bubble Tea model for the controller console.
type Model struct {
	source   StatusSource
	ctrl     *Controller
	cfg      config.Config
	keys     KeyMap
	help     help.Model
	screen   *core.Screen
	status   engine.Status
	width    int
	height   int
	now      func() time.Time
	quitting bool
}

// NewModel creates a console bound to the given controller.
func NewModel(source StatusSource, ctrl *Controller, cfg config.Config) Model {
	m := Model{
		source: source,
		ctrl:   ctrl,
		cfg:    cfg,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		screen: core.NewScreen(80, 16),
		status: source.Status(),
		now:    time.Now,
	}
	m.resize(80, 24)
	return m
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(consoleTickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case TickMsg:
		m.ctrl.Update(time.Time(msg))
		m.status = m.source.Status()
		return m, tickCmd(consoleTickRate)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Reset()
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if a := m.keys.MapKey(msg); a != ActionNone {
		m.ctrl.Apply(a, m.now())
	}
	return m, nil
}

// resize fits the playfield to the terminal, keeping its aspect ratio.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width

	// Terminal cells are about twice as tall as they are wide.
	w := core.Clamp(width-4, minFieldWidth, maxFieldWidth)
	h := w * m.cfg.Screen.Height / m.cfg.Screen.Width / 2
	if maxH := height - chromeHeight; h > maxH && maxH > 0 {
		h = maxH
		w = core.Clamp(h*2*m.cfg.Screen.Width/m.cfg.Screen.Height, minFieldWidth, maxFieldWidth)
	}
	m.screen.Resize(w, max(h, 4))
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.status.State

	DrawPlayfield(m.screen, s, m.cfg)
	switch s.Phase() {
	case game.PhaseIdle:
		m.screen.DrawTextCentered(m.screen.Height()/2, " Press space to start ")
	case game.PhaseOver:
		if s.Win {
			m.screen.DrawTextCentered(m.screen.Height()/2, " You win! Space to play again ")
		} else {
			m.screen.DrawTextCentered(m.screen.Height()/2, " Game over. Space to retry ")
		}
	}

	var sb strings.Builder
	sb.WriteString(m.header(s))
	sb.WriteString("\n")
	sb.WriteString(panelStyle.Render(RenderScreen(m.screen)))
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) header(s game.State) string {
	parts := []string{titleStyle.Render("DRAGONSLAYER")}

	timer := m.status.Overlay
	if timer == "" {
		timer = "-:--"
	}
	parts = append(parts, timerStyle.Render(timer))

	hearts := strings.Repeat("♥", s.Dragon.Health) + strings.Repeat("♡", m.cfg.Dragon.MaxHealth-s.Dragon.Health)
	parts = append(parts, "dragon "+heartStyle.Render(hearts))

	switch s.Phase() {
	case game.PhaseOver:
		if s.Win {
			parts = append(parts, winStyle.Render("VICTORY"))
		} else {
			parts = append(parts, loseStyle.Render("DEFEAT"))
		}
	default:
		parts = append(parts, dimStyle.Render(s.Phase().String()))
	}

	parts = append(parts, dimStyle.Render(fmt.Sprintf("fireballs %d/%d", s.ActiveFireballs(), s.PoolSize)))
	if m.status.Viewer {
		parts = append(parts, viewerStyle.Render("viewer attached"))
	}
	return strings.Join(parts, "  ")
}

// Run starts the console in the current terminal and blocks until the user
// quits or ctx is done.
func Run(ctx context.Context, source StatusSource, ctrl *Controller, cfg config.Config) error {
	p := tea.NewProgram(
		NewModel(source, ctrl, cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
