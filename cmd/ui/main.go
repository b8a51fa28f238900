// Command ui is a terminal letter composer that renders letterheads through
// the gletter API and saves the returned documents.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zlovtnik/gletter/cmd/ui/api"
	"github.com/zlovtnik/gletter/cmd/ui/ui"
)

var (
	defaultTemplates = []api.TemplateInfo{
		{ID: "classic", Name: "Classic", Accent: "#000000"},
		{ID: "modern_green", Name: "Modern Green", Accent: "#2E7D32"},
		{ID: "corporate_blue", Name: "Corporate Blue", Accent: "#1565C0"},
		{ID: "elegant_gray", Name: "Elegant Gray", Accent: "#424242"},
	}
	defaultPapers = []api.PaperInfo{
		{ID: "us_letter", Label: "US Letter"},
		{ID: "a4", Label: "A4"},
		{ID: "legal", Label: "Legal"},
	}
	defaultFormats = []string{"pdf", "word"}
)

// Model is the composer state
type Model struct {
	client    *api.Client
	outputDir string

	templates []api.TemplateInfo
	papers    []api.PaperInfo
	formats   []string
	template  int
	paper     int
	format    int

	inputs  []textinput.Model
	content textarea.Model
	focus   int

	busy        bool
	message     string
	messageType string

	width  int
	height int
}

func newModel(client *api.Client, outputDir string) Model {
	inputs := make([]textinput.Model, ui.FieldContent)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 200
		if ui.Field(i).Multiline() {
			ti.Placeholder = `use \n for new lines`
		}
		inputs[i] = ti
	}
	inputs[ui.FieldCompany].Placeholder = "Company name (required)"
	inputs[ui.FieldCompany].Focus()

	content := textarea.New()
	content.Placeholder = "Dear ..."
	content.SetWidth(60)
	content.SetHeight(6)
	content.CharLimit = 0

	return Model{
		client:    client,
		outputDir: outputDir,
		templates: defaultTemplates,
		papers:    defaultPapers,
		formats:   defaultFormats,
		inputs:    inputs,
		content:   content,
		width:     80,
		height:    24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetchCatalog())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.content.SetWidth(max(20, msg.Width-24))
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case catalogMsg:
		return m.applyCatalog(msg.catalog), nil
	case renderedMsg:
		m.busy = false
		m.message = fmt.Sprintf("Saved %s (%d bytes", msg.path, msg.size)
		if msg.pages > 0 {
			m.message += fmt.Sprintf(", %d pages", msg.pages)
		}
		m.message += ")"
		m.messageType = ui.MessageTypeSuccess
		return m, nil
	case errMsg:
		m.busy = false
		m.message = msg.err.Error()
		m.messageType = ui.MessageTypeError
		return m, nil
	}
	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab", "down":
		return m.moveFocus(1), nil
	case "shift+tab", "up":
		return m.moveFocus(-1), nil
	case "ctrl+t":
		m.template = (m.template + 1) % len(m.templates)
		return m, nil
	case "ctrl+p":
		m.paper = (m.paper + 1) % len(m.papers)
		return m, nil
	case "ctrl+f":
		m.format = (m.format + 1) % len(m.formats)
		return m, nil
	case "ctrl+s":
		if m.busy {
			return m, nil
		}
		req := m.request()
		if strings.TrimSpace(req.Sender.CompanyName) == "" {
			m.message = "company name is required"
			m.messageType = ui.MessageTypeError
			return m, nil
		}
		m.busy = true
		m.message = "Rendering..."
		m.messageType = ui.MessageTypeInfo
		return m, m.render(req)
	}
	return m.updateFocused(msg)
}

// moveFocus cycles through the inputs and the letter body
func (m Model) moveFocus(delta int) Model {
	m.focus = (m.focus + delta + ui.FieldCount) % ui.FieldCount
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	if ui.Field(m.focus) == ui.FieldContent {
		m.content.Focus()
	} else {
		m.content.Blur()
	}
	return m
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if ui.Field(m.focus) == ui.FieldContent {
		m.content, cmd = m.content.Update(msg)
		return m, cmd
	}
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// applyCatalog replaces the built-in choices with what the server offers,
// keeping the current selection when it still exists
func (m Model) applyCatalog(c *api.Catalog) Model {
	if c == nil {
		return m
	}
	if len(c.Templates) > 0 {
		m.template = indexOf(c.Templates, m.templates[m.template].ID, func(t api.TemplateInfo) string { return t.ID })
		m.templates = c.Templates
	}
	var papers []api.PaperInfo
	for _, p := range c.PaperSizes {
		// custom sizes need dimensions the composer does not ask for
		if p.ID != "custom" {
			papers = append(papers, p)
		}
	}
	if len(papers) > 0 {
		m.paper = indexOf(papers, m.papers[m.paper].ID, func(p api.PaperInfo) string { return p.ID })
		m.papers = papers
	}
	if len(c.Formats) > 0 {
		m.format = indexOf(c.Formats, m.formats[m.format], func(s string) string { return s })
		m.formats = c.Formats
	}
	return m
}

func indexOf[T any](items []T, id string, key func(T) string) int {
	for i, it := range items {
		if key(it) == id {
			return i
		}
	}
	return 0
}

func (m Model) value(f ui.Field) string {
	v := strings.TrimSpace(m.inputs[f].Value())
	if f.Multiline() {
		v = strings.ReplaceAll(v, `\n`, "\n")
	}
	return v
}

// request builds the render request from the form
func (m Model) request() api.LetterheadRequest {
	req := api.LetterheadRequest{
		Template:  m.templates[m.template].ID,
		PaperSize: m.papers[m.paper].ID,
		Format:    m.formats[m.format],
		Sender: api.Sender{
			CompanyName: m.value(ui.FieldCompany),
			Address:     m.value(ui.FieldAddress),
			Phone:       m.value(ui.FieldPhone),
			Email:       m.value(ui.FieldEmail),
			Website:     m.value(ui.FieldWebsite),
		},
		Content: contentHTML(m.content.Value()),
	}
	r := api.Recipient{
		Name:    m.value(ui.FieldRecipientName),
		Title:   m.value(ui.FieldRecipientTitle),
		Address: m.value(ui.FieldRecipientAddress),
	}
	if r != (api.Recipient{}) {
		req.Recipient = &r
	}
	return req
}

func main() {
	baseURL := os.Getenv("GLETTER_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client, err := api.NewClient(baseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid API URL %q: %v\n", baseURL, err)
		os.Exit(1)
	}
	if token := os.Getenv("GLETTER_TOKEN"); token != "" {
		client.SetToken(token)
	}

	outputDir := os.Getenv("GLETTER_OUTPUT_DIR")
	if outputDir == "" {
		outputDir = "."
	}

	p := tea.NewProgram(newModel(client, outputDir), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
