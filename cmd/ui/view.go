package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zlovtnik/gletter/cmd/ui/ui"
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render("gletter composer"))
	b.WriteString("\n")

	tpl := m.templates[m.template]
	choices := lipgloss.JoinHorizontal(lipgloss.Top,
		ui.Swatch(tpl.Accent), " ", ui.ChoiceStyle.Render(tpl.Name), "  ",
		ui.ChoiceStyle.Render(m.papers[m.paper].Label), "  ",
		ui.ChoiceStyle.Render(strings.ToUpper(m.formats[m.format])),
	)
	b.WriteString(choices + "\n\n")

	var form strings.Builder
	for i := range m.inputs {
		form.WriteString(m.label(ui.Field(i)) + m.inputs[i].View() + "\n")
	}
	form.WriteString(m.label(ui.FieldContent) + "\n" + m.content.View())
	b.WriteString(ui.BoxStyle.Render(form.String()))
	b.WriteString("\n")

	if m.message != "" {
		b.WriteString(ui.MessageStyle(m.messageType).Render(m.message) + "\n")
	}

	var help []string
	for _, h := range ui.Help {
		help = append(help, ui.HelpKeyStyle.Render(h[0])+" "+h[1])
	}
	b.WriteString(ui.HelpStyle.Render(strings.Join(help, " • ")))
	return b.String()
}

func (m Model) label(f ui.Field) string {
	if int(f) == m.focus {
		return ui.FocusedLabelStyle.Render(f.Label())
	}
	return ui.LabelStyle.Render(f.Label())
}
