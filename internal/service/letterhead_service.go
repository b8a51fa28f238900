package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zlovtnik/gletter/internal/clock"
	"github.com/zlovtnik/gletter/internal/models"
	"github.com/zlovtnik/gletter/internal/render/assets"
	"github.com/zlovtnik/gletter/internal/render/content"
	"github.com/zlovtnik/gletter/internal/render/geometry"
	"github.com/zlovtnik/gletter/internal/render/layout"
	"github.com/zlovtnik/gletter/internal/render/letter"
	"github.com/zlovtnik/gletter/internal/render/pdf"
	"github.com/zlovtnik/gletter/internal/render/word"
	"github.com/zlovtnik/gletter/pkg/fp"
)

// LetterheadService turns letterhead requests into Word or PDF documents
type LetterheadService struct {
	planner layout.Planner
	word    *word.Encoder
	pdf     *pdf.Encoder
	images  *assets.Library
	clock   clock.Clock
	tempDir string
	logger  *slog.Logger
}

// NewLetterheadService creates a new LetterheadService. Uploaded logos are
// spooled under tempDir, or the system temp dir when it is empty.
func NewLetterheadService(
	planner layout.Planner,
	wordEnc *word.Encoder,
	pdfEnc *pdf.Encoder,
	images *assets.Library,
	clk clock.Clock,
	tempDir string,
	logger *slog.Logger,
) *LetterheadService {
	return &LetterheadService{
		planner: planner,
		word:    wordEnc,
		pdf:     pdfEnc,
		images:  images,
		clock:   clock.OrSystem(clk),
		tempDir: tempDir,
		logger:  logger,
	}
}

// prepared is a request resolved into everything the encoders read
type prepared struct {
	req    models.DocumentRequest
	plan   layout.Plan
	blocks []content.Block
	letter letter.Letter
}

type logoSource func() (*assets.Image, error)

// Render produces the document in the requested format
func (s *LetterheadService) Render(ctx context.Context, req models.DocumentRequest) (*models.RenderedDocument, error) {
	p, err := s.prepare(req, requestLogo(s.images, req.Logo))
	if err != nil {
		return nil, err
	}
	return s.encode(ctx, p)
}

// RenderUpload renders req with the logo read from upload. The upload is
// spooled to a temp file that is removed before returning.
func (s *LetterheadService) RenderUpload(ctx context.Context, req models.DocumentRequest, upload io.Reader) (*models.RenderedDocument, error) {
	f, err := os.CreateTemp(s.tempDir, "logo-"+uuid.NewString()+"-*")
	if err != nil {
		return nil, NewRenderError("spool", err, "failed to store uploaded logo")
	}
	name := f.Name()
	defer func() {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove spooled logo", "path", name, "error", err)
		}
	}()

	size, copyErr := io.Copy(f, io.LimitReader(upload, assets.MaxBytes+1))
	closeErr := f.Close()
	if copyErr != nil {
		return nil, NewRenderError("spool", copyErr, "failed to store uploaded logo")
	}
	if closeErr != nil {
		return nil, NewRenderError("spool", closeErr, "failed to store uploaded logo")
	}

	logo := func() (*assets.Image, error) {
		if size == 0 {
			return nil, nil
		}
		return assets.LoadFile(name)
	}
	p, err := s.prepare(req, logo)
	if err != nil {
		return nil, err
	}
	return s.encode(ctx, p)
}

// Preview returns the print HTML the PDF path would convert
func (s *LetterheadService) Preview(ctx context.Context, req models.DocumentRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.prepare(req, requestLogo(s.images, req.Logo))
	if err != nil {
		return "", err
	}
	html, err := s.pdf.RenderHTML(p.plan, p.blocks, p.letter)
	if err != nil {
		return "", NewRenderError("preview", err, "failed to build preview")
	}
	return html, nil
}

// Catalog lists the templates, paper sizes and formats a request may name
func (s *LetterheadService) Catalog() models.CatalogResponse {
	var out models.CatalogResponse
	for _, st := range layout.Templates() {
		out.Templates = append(out.Templates, models.TemplateInfo{
			ID:         string(st.ID),
			Name:       st.Name,
			FontFamily: st.FontFamily,
			Accent:     st.Accent,
		})
	}
	for _, ps := range geometry.PaperSizes() {
		info := models.PaperInfo{ID: string(ps), Label: ps.Label()}
		if w, h, ok := geometry.Dimensions(ps, nil, nil); ok {
			info.Width, info.Height = w.Inches(), h.Inches()
		}
		out.PaperSizes = append(out.PaperSizes, info)
	}
	out.Formats = []string{string(models.FormatPDF), string(models.FormatWord)}
	return out
}

func (s *LetterheadService) prepare(req models.DocumentRequest, logoSrc logoSource) (prepared, error) {
	req.Normalize()
	if err := fp.Err(req.Validate()); err != nil {
		return prepared{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	now := s.clock.Now()

	logo, err := s.image("logo", logoSrc)
	if err != nil {
		return prepared{}, NewRenderError("logo", err, "logo image could not be used")
	}

	plan, err := s.planner.Plan(
		layout.ParseTemplateID(req.Template),
		geometry.PaperSize(req.PaperSize),
		req.CustomWidth, req.CustomHeight,
		logo != nil,
	)
	if err != nil {
		return prepared{}, NewRenderError("plan", err, err.Error())
	}
	for _, sub := range plan.Substitutions {
		s.logger.Warn("layout fallback applied",
			"substitution", sub,
			"template", req.Template,
			"paper_size", req.PaperSize,
		)
	}

	l := letter.Letter{
		Title: req.Title,
		Sender: letter.Sender{
			Company: req.Sender.CompanyName,
			Address: req.Sender.Address,
			Phone:   req.Sender.Phone,
			Email:   req.Sender.Email,
			Website: req.Sender.Website,
		},
		Date:    now,
		Content: req.Content,
		Logo:    logo,
	}
	if !req.Recipient.Empty() {
		l.Recipient = &letter.Recipient{
			Name:    req.Recipient.Name,
			Title:   req.Recipient.Title,
			Address: req.Recipient.Address,
		}
	}
	if req.Signature != nil {
		sig, err := s.signature(*req.Signature, now)
		if err != nil {
			return prepared{}, NewRenderError("signature", err, "signature image could not be used")
		}
		l.Signature = sig
	}

	return prepared{
		req:    req,
		plan:   plan,
		blocks: content.Normalize(req.Content),
		letter: l,
	}, nil
}

func (s *LetterheadService) encode(ctx context.Context, p prepared) (*models.RenderedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var doc models.RenderedDocument
	switch p.req.Format {
	case models.FormatWord:
		data, err := s.word.Render(p.plan, p.blocks, p.letter)
		if err != nil {
			return nil, NewRenderError("word", fmt.Errorf("%w: %w", ErrGeneration, err), "failed to build Word document")
		}
		doc = models.RenderedDocument{ContentType: word.ContentType, Data: data}
	case models.FormatPDF:
		out, err := s.pdf.Render(ctx, p.plan, p.blocks, p.letter)
		if err != nil {
			return nil, NewRenderError("pdf", fmt.Errorf("%w: %w", ErrGeneration, err), "failed to build PDF document")
		}
		doc = models.RenderedDocument{ContentType: pdf.ContentType, Data: out.Data, Pages: out.Pages}
	default:
		return nil, fmt.Errorf("%w: %s", ErrFormatNotSupported, p.req.Format)
	}
	doc.Filename = letterheadFilename(p.plan.Template, p.req.Sender.CompanyName, p.letter.Date, p.req.Format.Extension())

	s.logger.Info("letterhead rendered",
		"template", p.plan.Template,
		"paper_size", p.plan.Paper,
		"format", p.req.Format,
		"bytes", len(doc.Data),
		"duration", time.Since(start),
	)
	return &doc, nil
}

// requestLogo reads inline logo bytes first, then a path in the image library
func requestLogo(images *assets.Library, logo *models.Logo) logoSource {
	return func() (*assets.Image, error) {
		switch {
		case logo == nil:
			return nil, nil
		case len(logo.Data) > 0:
			return assets.Decode(logo.Data)
		case logo.Path != "":
			return images.Load(logo.Path)
		}
		return nil, nil
	}
}

// image runs src and applies the fallback policy to a failure. A nil image
// with a nil error means the text fallback is drawn.
func (s *LetterheadService) image(kind string, src logoSource) (*assets.Image, error) {
	img, err := src()
	if err == nil {
		return img, nil
	}
	if perr := s.planner.Policy.ImageError(err); perr != nil {
		return nil, perr
	}
	s.logger.Warn("image unavailable, using text fallback", "image", kind, "error", err)
	return nil, nil
}

func (s *LetterheadService) signature(set models.SignatureSettings, now time.Time) (*letter.Signature, error) {
	sig := &letter.Signature{
		Name:      set.Name,
		Title:     set.Title,
		Date:      now,
		ShowName:  set.ShowName,
		ShowTitle: set.ShowTitle,
		ShowDate:  set.ShowDate,
		Font:      set.Font,
		FontSize:  set.FontSize,
		Color:     set.Color,
	}
	var err error
	if sig.Image, err = s.image("signature", s.refSource(set.Image)); err != nil {
		return nil, err
	}
	if sig.Stamp, err = s.image("stamp", s.refSource(set.Stamp)); err != nil {
		return nil, err
	}
	return sig, nil
}

func (s *LetterheadService) refSource(ref assets.Ref) logoSource {
	return func() (*assets.Image, error) {
		if ref.Empty() {
			return nil, nil
		}
		return fp.Unwrap(s.images.Resolve(ref))
	}
}

// letterheadFilename builds letterhead_<template>_<company>_<date>.<ext>
func letterheadFilename(tpl layout.TemplateID, company string, date time.Time, ext string) string {
	slug := strings.ToLower(sanitizeFilename(company))
	if slug == "" {
		slug = "company"
	}
	return fmt.Sprintf("letterhead_%s_%s_%s.%s", tpl.Slug(), slug, date.Format("2006-01-02"), ext)
}
