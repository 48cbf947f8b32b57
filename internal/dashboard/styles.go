package dashboard

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/checkboard/checkboard/internal/workflow"
)

// Palette — muted, dark-terminal friendly.
var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	blue   = lipgloss.Color("39")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(purple)
	successStyle = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	runningStyle = lipgloss.NewStyle().Foreground(blue)
	mutedStyle   = lipgloss.NewStyle().Foreground(dim)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(faint)

	titleStyle  = lipgloss.NewStyle().Foreground(purple).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(dim)
	selectStyle = lipgloss.NewStyle().Bold(true)
)

// Ballot-box glyphs, one per terminal step state.
const (
	glyphUnchecked = "☐" // ☐
	glyphChecked   = "☑" // ☑
	glyphFailed    = "☒" // ☒
)

var spinFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// stepGlyph returns the styled status indicator for a step. Running steps
// animate with the braille spinner frame.
func stepGlyph(state workflow.State, frame int) string {
	switch state {
	case workflow.Running:
		return runningStyle.Render(spinFrames[frame%len(spinFrames)])
	case workflow.Succeeded:
		return successStyle.Render(glyphChecked)
	case workflow.Failed, workflow.Aborted:
		return errorStyle.Render(glyphFailed)
	default:
		return mutedStyle.Render(glyphUnchecked)
	}
}
