package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleScript = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleEvent = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindScript lineKind = iota
	kindEvent
	kindSystem
	kindError
)

// classifyLine determines what kind of output line this is. Event and
// command dispatches are logged tab-prefixed by the stock scripts; kernel
// errors carry the "kernel:" prefix.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "kernel:"):
		return kindError
	case strings.HasPrefix(line, "event\t"),
		strings.HasPrefix(line, "command\t"):
		return kindEvent
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	default:
		return kindScript
	}
}

// styledPlayerInput renders the echoed input line in green with "> " prefix.
func styledPlayerInput(input string) string {
	return stylePlayerInput.Render("> " + input)
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
