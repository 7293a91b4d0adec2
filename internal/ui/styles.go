package ui

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var (
	cBlue   = lipgloss.Color("39")
	cPurple = lipgloss.Color("99")
	cGreen  = lipgloss.Color("42")
	cYellow = lipgloss.Color("214")
	cRed    = lipgloss.Color("196")
	cGray   = lipgloss.Color("245")
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(cBlue).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(cBlue).
			Padding(0, 4)

	styleSectionTitle = lipgloss.NewStyle().Bold(true)

	styleMenuKey = lipgloss.NewStyle().Bold(true).Foreground(cPurple)

	styleSuccess = lipgloss.NewStyle().Foreground(cGreen)
	styleWarn    = lipgloss.NewStyle().Foreground(cYellow)
	styleError   = lipgloss.NewStyle().Foreground(cRed)
	styleDim     = lipgloss.NewStyle().Foreground(cGray)

	styleToast = lipgloss.NewStyle().
			Foreground(cGreen).
			Bold(true)
)

// renderMarkdown renders md with glamour at the given width, falling back
// to plain word wrapping when the renderer cannot be built.
func renderMarkdown(md string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return wordwrap.String(md, width)
	}
	out, err := r.Render(md)
	if err != nil {
		return wordwrap.String(md, width)
	}
	return out
}
