package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/zlovtnik/gletter/internal/render/assets"
	"github.com/zlovtnik/gletter/internal/render/geometry"
	"github.com/zlovtnik/gletter/pkg/fp"
)

// OutputFormat is the document format a render produces
type OutputFormat string

const (
	FormatPDF  OutputFormat = "pdf"
	FormatWord OutputFormat = "word"
)

// ParseOutputFormat normalizes a format name. "docx" is accepted for word.
func ParseOutputFormat(s string) OutputFormat {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "docx", "doc":
		return FormatWord
	case "":
		return FormatPDF
	default:
		return OutputFormat(v)
	}
}

// Extension returns the file extension without the dot
func (f OutputFormat) Extension() string {
	if f == FormatWord {
		return "docx"
	}
	return "pdf"
}

// Sender holds the letterhead owner's contact fields
type Sender struct {
	CompanyName string `json:"company_name"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Recipient is the optional addressee
type Recipient struct {
	Name    string `json:"name,omitempty"`
	Title   string `json:"title,omitempty"`
	Address string `json:"address,omitempty"`
}

// Empty reports whether no recipient field is set
func (r *Recipient) Empty() bool {
	return r == nil || (strings.TrimSpace(r.Name) == "" && strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Address) == "")
}

// Logo is an already resolved logo (bytes + MIME type) or a path inside the
// image library. Data is base64 in JSON.
type Logo struct {
	Data []byte `json:"data,omitempty"`
	MIME string `json:"mime,omitempty"`
	Path string `json:"path,omitempty"`
}

// digest identifies the logo by content, or by path for library images
func (l *Logo) digest() string {
	if l == nil {
		return ""
	}
	if len(l.Data) > 0 {
		sum := sha256.Sum256(l.Data)
		return l.MIME + ":" + hex.EncodeToString(sum[:])
	}
	return "path:" + l.Path
}

// SignatureSettings holds the display settings and images of a signature
type SignatureSettings struct {
	Name      string     `json:"name,omitempty"`
	Title     string     `json:"title,omitempty"`
	ShowName  bool       `json:"show_name"`
	ShowTitle bool       `json:"show_title"`
	ShowDate  bool       `json:"show_date"`
	Font      string     `json:"font,omitempty"`
	FontSize  float64    `json:"font_size,omitempty"`
	Color     string     `json:"color,omitempty"`
	Image     assets.Ref `json:"image,omitempty"`
	Stamp     assets.Ref `json:"stamp,omitempty"`
}

// DocumentRequest is everything needed to render one letterhead
type DocumentRequest struct {
	Template     string             `json:"template"`
	PaperSize    string             `json:"paper_size"`
	CustomWidth  *float64           `json:"custom_width,omitempty"`  // inches, custom paper only
	CustomHeight *float64           `json:"custom_height,omitempty"` // inches, custom paper only
	Format       OutputFormat       `json:"format"`
	Title        string             `json:"title,omitempty"`
	Sender       Sender             `json:"sender"`
	Recipient    *Recipient         `json:"recipient,omitempty"`
	Content      string             `json:"letter_content,omitempty"`
	Logo         *Logo              `json:"logo,omitempty"`
	Signature    *SignatureSettings `json:"signature,omitempty"`
}

// Normalize fills defaults and canonicalizes enum fields in place
func (r *DocumentRequest) Normalize() {
	r.Template = strings.ToLower(strings.TrimSpace(r.Template))
	if r.Template == "" {
		r.Template = "classic"
	}
	r.PaperSize = string(geometry.ParsePaperSize(r.PaperSize))
	if r.PaperSize == "" {
		r.PaperSize = string(geometry.PaperUSLetter)
	}
	r.Format = ParseOutputFormat(string(r.Format))
	if geometry.PaperSize(r.PaperSize) != geometry.PaperCustom {
		r.CustomWidth, r.CustomHeight = nil, nil
	}
}

// Validate checks the structural rules of the request. Unknown templates and
// paper sizes are left to the layout fallback policy.
func (r DocumentRequest) Validate() fp.Result[DocumentRequest] {
	return fp.Validate(r,
		func(r DocumentRequest) error { return fp.Required("sender.company_name")(r.Sender.CompanyName) },
		func(r DocumentRequest) error { return fp.MaxLength("sender.company_name", 200)(r.Sender.CompanyName) },
		func(r DocumentRequest) error { return fp.OneOf("format", FormatPDF, FormatWord)(r.Format) },
		func(r DocumentRequest) error { return fp.Optional(fp.Email("sender.email"))(r.Sender.Email) },
		func(r DocumentRequest) error {
			if geometry.PaperSize(r.PaperSize) != geometry.PaperCustom {
				return nil
			}
			return customDimensions(r.CustomWidth, r.CustomHeight)
		},
		func(r DocumentRequest) error {
			if r.Signature == nil {
				return nil
			}
			return fp.Optional(fp.HexColor("signature.color"))(r.Signature.Color)
		},
	)
}

func customDimensions(w, h *float64) error {
	var errs fp.ValidationErrors
	if w == nil {
		errs = append(errs, fp.ValidationError{Field: "custom_width", Message: "is required for custom paper"})
	} else if err := fp.Range("custom_width", geometry.MinCustomWidth, geometry.MaxCustomWidth)(*w); err != nil {
		errs = append(errs, err.(fp.ValidationError))
	}
	if h == nil {
		errs = append(errs, fp.ValidationError{Field: "custom_height", Message: "is required for custom paper"})
	} else if err := fp.Range("custom_height", geometry.MinCustomHeight, geometry.MaxCustomHeight)(*h); err != nil {
		errs = append(errs, err.(fp.ValidationError))
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// TemplateInfo describes one template for listing
type TemplateInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FontFamily string `json:"font_family"`
	Accent     string `json:"accent_color"`
}

// PaperInfo describes one paper size for listing
type PaperInfo struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Width  float64 `json:"width_in,omitempty"`
	Height float64 `json:"height_in,omitempty"`
}

// CatalogResponse lists the available templates and paper sizes
type CatalogResponse struct {
	Templates  []TemplateInfo `json:"templates"`
	PaperSizes []PaperInfo    `json:"paper_sizes"`
	Formats    []string       `json:"formats"`
}
