package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/dragonslayer/internal/config"
	"github.com/vovakirdan/dragonslayer/internal/core"
	"github.com/vovakirdan/dragonslayer/internal/game"
)

// Playfield characters
const (
	HeroChar     = '█'
	DragonChar   = '▓'
	FireballChar = '●'
	GroundChar   = '═'
)

// runeStyles colours playfield characters.
var runeStyles = map[rune]lipgloss.Style{
	HeroChar:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	DragonChar:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	FireballChar: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	GroundChar:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
}

// DrawPlayfield scales the game onto dst.
func DrawPlayfield(dst *core.Screen, s game.State, cfg config.Config) {
	dst.Clear()
	fw, fh := cfg.Screen.Width, cfg.Screen.Height
	w, h := dst.Width(), dst.Height()
	scale := func(r core.Rect) core.Rect { return r.Scale(fw, fh, w, h) }

	groundRow := core.Clamp((cfg.GroundLevel()+cfg.Player.Height)*h/fh, 0, h-1)
	dst.DrawHLine(0, groundRow, w, GroundChar)

	if s.Dragon.Alive {
		dst.DrawRect(scale(core.NewRect(s.Dragon.X, s.Dragon.Y, cfg.Dragon.Width, cfg.Dragon.Height)), DragonChar)
	}
	for _, fb := range s.Fireballs {
		if fb.Active {
			dst.DrawRect(scale(core.NewRect(fb.X, fb.Y, cfg.Fireball.Width, cfg.Fireball.Height)), FireballChar)
		}
	}
	dst.DrawRect(scale(core.NewRect(s.Player.X, s.Player.Y, cfg.Player.Width, cfg.Player.Height)), HeroChar)
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same rune to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			start := s.Get(x, y)

			var run strings.Builder
			for x < s.Width() && s.Get(x, y) == start {
				run.WriteRune(start)
				x++
			}

			if style, ok := runeStyles[start]; ok {
				sb.WriteString(style.Render(run.String()))
			} else {
				sb.WriteString(run.String())
			}
		}
	}
	return sb.String()
}
