package api

import (
	"context"
	"net/http"
)

// Sender is the letterhead sender block
type Sender struct {
	CompanyName string `json:"company_name"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Recipient is the optional addressee block
type Recipient struct {
	Name    string `json:"name,omitempty"`
	Title   string `json:"title,omitempty"`
	Address string `json:"address,omitempty"`
}

// LetterheadRequest is the body of a letterhead render
type LetterheadRequest struct {
	Template  string     `json:"template"`
	PaperSize string     `json:"paper_size"`
	Format    string     `json:"format"`
	Title     string     `json:"title,omitempty"`
	Sender    Sender     `json:"sender"`
	Recipient *Recipient `json:"recipient,omitempty"`
	Content   string     `json:"letter_content,omitempty"`
}

// TemplateInfo describes one letterhead template
type TemplateInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Accent string `json:"accent_color"`
}

// PaperInfo describes one paper size
type PaperInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Catalog lists what the server can render
type Catalog struct {
	Templates  []TemplateInfo `json:"templates"`
	PaperSizes []PaperInfo    `json:"paper_sizes"`
	Formats    []string       `json:"formats"`
}

// Catalog fetches the template catalog
func (c *Client) Catalog(ctx context.Context) (*Catalog, error) {
	var out Catalog
	if err := c.Do(ctx, http.MethodGet, "/api/v1/templates", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenderLetterhead renders req and returns the document
func (c *Client) RenderLetterhead(ctx context.Context, req LetterheadRequest) (*File, error) {
	return c.Download(ctx, "/api/v1/letterheads/render", req)
}
