package layout

import (
	"errors"
	"fmt"

	"github.com/zlovtnik/gletter/internal/render/geometry"
)

var (
	// ErrUnknownTemplate is returned by a strict planner for unrecognized templates.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrUnknownPaperSize is returned by a strict planner for unrecognized or
	// incomplete paper sizes.
	ErrUnknownPaperSize = errors.New("unknown paper size")
	// ErrImageUnavailable is returned when a logo or signature image cannot be
	// used and the policy does not allow a text fallback.
	ErrImageUnavailable = errors.New("image unavailable")
)

// ImageFallback decides what happens when an image cannot be read or decoded.
type ImageFallback int

const (
	// ImageFallbackText replaces the image with styled text and keeps rendering.
	ImageFallbackText ImageFallback = iota
	// ImageFallbackFail aborts the render.
	ImageFallbackFail
)

// FallbackPolicy makes the substitution rules for bad input explicit.
// The zero value is the permissive default.
type FallbackPolicy struct {
	PaperFallback    geometry.PaperSize
	TemplateFallback TemplateID
	Images           ImageFallback
	// Strict turns unknown templates and paper sizes into errors instead of
	// substituting the fallbacks.
	Strict bool
}

// DefaultPolicy substitutes US Letter, the classic template and text in place
// of broken images.
func DefaultPolicy() FallbackPolicy {
	return FallbackPolicy{
		PaperFallback:    geometry.PaperUSLetter,
		TemplateFallback: Classic,
		Images:           ImageFallbackText,
	}
}

func (p FallbackPolicy) paper() geometry.PaperSize {
	if p.PaperFallback == "" || p.PaperFallback == geometry.PaperCustom || !p.PaperFallback.Known() {
		return geometry.PaperUSLetter
	}
	return p.PaperFallback
}

func (p FallbackPolicy) template() TemplateID {
	if !p.TemplateFallback.Known() {
		return Classic
	}
	return p.TemplateFallback
}

// ImageError applies the image rule to err. It returns nil when rendering
// should continue with the text fallback.
func (p FallbackPolicy) ImageError(err error) error {
	if err == nil || p.Images == ImageFallbackText {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrImageUnavailable, err)
}
