package main

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zlovtnik/gletter/cmd/ui/api"
)

const (
	catalogTimeout = 10 * time.Second
	renderTimeout  = 90 * time.Second
)

type catalogMsg struct{ catalog *api.Catalog }

type renderedMsg struct {
	path  string
	size  int
	pages int
}

type errMsg struct{ err error }

// fetchCatalog loads templates and paper sizes. Failure keeps the built-in
// choices, so it is reported but not fatal.
func (m Model) fetchCatalog() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
		defer cancel()
		c, err := client.Catalog(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("catalog unavailable, using defaults: %w", err)}
		}
		return catalogMsg{c}
	}
}

func (m Model) render(req api.LetterheadRequest) tea.Cmd {
	client, dir := m.client, m.outputDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
		defer cancel()
		f, err := client.RenderLetterhead(ctx, req)
		if err != nil {
			return errMsg{err}
		}
		path, err := saveFile(dir, f)
		if err != nil {
			return errMsg{err}
		}
		return renderedMsg{path: path, size: len(f.Data), pages: f.Pages}
	}
}

// saveFile writes f into dir under its server-provided name
func saveFile(dir string, f *api.File) (string, error) {
	name := filepath.Base(f.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "document"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, f.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// contentHTML turns plain text paragraphs separated by blank lines into
// escaped <p> markup
func contentHTML(text string) string {
	var b strings.Builder
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		lines := strings.Split(para, "\n")
		for i, ln := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(ln))
		}
		b.WriteString("<p>" + strings.Join(lines, "<br>") + "</p>")
	}
	return b.String()
}
