// Package letter holds the resolved input shared by the Word and PDF encoders.
package letter

import (
	"strings"
	"time"

	"github.com/zlovtnik/gletter/internal/render/assets"
)

// DateLayout is the fixed format of the date line.
const DateLayout = "January 02, 2006"

// Sender is the letterhead owner.
type Sender struct {
	Company string
	Address string
	Phone   string
	Email   string
	Website string
}

// AddressLines splits the multi-line address, dropping blank lines.
func (s Sender) AddressLines() []string {
	return Lines(s.Address)
}

// ContactLines returns the labelled phone, email and website lines that are set.
func (s Sender) ContactLines() []string {
	var out []string
	if v := strings.TrimSpace(s.Phone); v != "" {
		out = append(out, "Tel: "+v)
	}
	if v := strings.TrimSpace(s.Email); v != "" {
		out = append(out, "Email: "+v)
	}
	if v := strings.TrimSpace(s.Website); v != "" {
		out = append(out, "Web: "+v)
	}
	return out
}

// Recipient is the optional addressee block.
type Recipient struct {
	Name    string
	Title   string
	Address string
}

// AddressLines splits the multi-line address, dropping blank lines.
func (r Recipient) AddressLines() []string {
	return Lines(r.Address)
}

// Signature describes the closing block. Images are already resolved.
type Signature struct {
	Name      string
	Title     string
	Date      time.Time
	ShowName  bool
	ShowTitle bool
	ShowDate  bool
	Font      string
	FontSize  float64
	Color     string
	Image     *assets.Image
	Stamp     *assets.Image
}

// Lines returns the visible text lines of the signature in display order.
func (s Signature) Lines() []string {
	var out []string
	if s.ShowName && strings.TrimSpace(s.Name) != "" {
		out = append(out, strings.TrimSpace(s.Name))
	}
	if s.ShowTitle && strings.TrimSpace(s.Title) != "" {
		out = append(out, strings.TrimSpace(s.Title))
	}
	if s.ShowDate && !s.Date.IsZero() {
		out = append(out, s.Date.Format(DateLayout))
	}
	return out
}

// Letter is everything an encoder needs besides the layout plan and the
// normalized blocks.
type Letter struct {
	Title     string
	Sender    Sender
	Recipient *Recipient
	Date      time.Time
	// Content is the source markup, passed through on the print path.
	Content   string
	Logo      *assets.Image
	Signature *Signature
}

// DateLine returns the formatted letter date.
func (l Letter) DateLine() string {
	return l.Date.Format(DateLayout)
}

// DocumentTitle returns Title or a title derived from the company name.
func (l Letter) DocumentTitle() string {
	if t := strings.TrimSpace(l.Title); t != "" {
		return t
	}
	if c := strings.TrimSpace(l.Sender.Company); c != "" {
		return c + " Letter"
	}
	return "Letter"
}

// Lines splits text on newlines, trimming each line and dropping blanks.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
