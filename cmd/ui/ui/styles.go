package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Status message kinds shown under the form.
const (
	MessageTypeError   = "error"
	MessageTypeSuccess = "success"
	MessageTypeInfo    = "info"
)

// labelWidth fits the longest field label.
const labelWidth = 18

// The palette borrows the letterhead accents so the composer looks like the
// documents it produces.
var (
	ink       = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F5F5F5"}
	muted     = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#9E9E9E"}
	paper     = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#212121"}
	rule      = lipgloss.AdaptiveColor{Light: "#BDBDBD", Dark: "#424242"}
	green     = lipgloss.Color("#2E7D32")
	blue      = lipgloss.Color("#1565C0")
	errorRed  = lipgloss.Color("#C62828")
	focusBlue = lipgloss.Color("#42A5F5")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(blue).
			Bold(true).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(muted).
			Width(labelWidth)

	FocusedLabelStyle = LabelStyle.
				Foreground(focusBlue).
				Bold(true)

	// ChoiceStyle renders a cycled option such as the template name
	ChoiceStyle = lipgloss.NewStyle().
			Foreground(ink).
			Background(paper).
			Padding(0, 1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false).
			BorderForeground(rule).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ink).
			Bold(true)

	errorStyle   = lipgloss.NewStyle().Foreground(errorRed).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(green)
	infoStyle    = lipgloss.NewStyle().Foreground(muted).Italic(true)
)

// Swatch renders a small block in a template's accent color.
func Swatch(hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("■")
}

// MessageStyle picks the style for a status message type.
func MessageStyle(messageType string) lipgloss.Style {
	switch messageType {
	case MessageTypeError:
		return errorStyle
	case MessageTypeSuccess:
		return successStyle
	default:
		return infoStyle
	}
}
