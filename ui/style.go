package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Terminal palette indexes shared by the TUI screens.
const (
	ColorGreen  = "10"
	ColorYellow = "11"
	ColorBlue   = "12"
	ColorRed    = "9"
	ColorGrey   = "8"
	ColorPink   = "205"
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorBlue)).Padding(0, 1)
	FooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGrey)).Italic(true)
	RowStyle    = lipgloss.NewStyle().Padding(0, 1)
	// SelectedRowStyle highlights the row under the cursor.
	SelectedRowStyle = RowStyle.Background(lipgloss.Color(ColorGrey)).Bold(true)
)

// Colorize renders text in one of the palette colors.
func Colorize(text, color string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// Bold renders text in bold, optionally colored.
func Bold(text, color string) string {
	style := lipgloss.NewStyle().Bold(true)
	if color != "" {
		style = style.Foreground(lipgloss.Color(color))
	}
	return style.Render(text)
}

// InstallState is the colored "installed"/"not installed" label of a game.
func InstallState(installed bool) string {
	if installed {
		return Colorize(PadRight("installed", 15), ColorGreen)
	}
	return Colorize(PadRight("not installed", 15), ColorRed)
}

// PadRight pads s with spaces to width before any styling is applied so
// columns stay aligned.
func PadRight(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}

// Truncate shortens s to maxLen, ending it with "..." when cut.
func Truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
