package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	PoolStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ProgramStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	UserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// maxDrawnPebbles caps how many pebbles the sidebar draws individually.
const maxDrawnPebbles = 40

// RenderPebbles draws the pool as dots, eliding large pools.
func RenderPebbles(remaining uint32) string {
	if remaining == 0 {
		return InfoStyle.Render("(empty)")
	}
	if remaining > maxDrawnPebbles {
		return PoolStyle.Render(strings.Repeat("●", maxDrawnPebbles) + "…")
	}
	return PoolStyle.Render(strings.Repeat("●", int(remaining)))
}
