// Package pdf renders letterheads to print HTML and converts them to PDF.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-pdf/fpdf"

	"github.com/zlovtnik/gletter/internal/render/geometry"
)

// ContentType is the MIME type of generated documents.
const ContentType = "application/pdf"

var (
	// ErrNoDrawing is returned by NativeConverter for pages without a Draw func.
	ErrNoDrawing = errors.New("page has no native drawing")
	// ErrInvalidOutput is returned when a converter produced something that is
	// not a readable PDF.
	ErrInvalidOutput = errors.New("converter produced an invalid PDF")
)

// Options are the fixed rendering options handed to every backend.
type Options struct {
	// DefaultFont is used when a template font is not available.
	DefaultFont string
	// EnableRemote allows the backend to load remote resources.
	EnableRemote bool
	// HTML5 selects HTML5 parsing of the source document.
	HTML5 bool
	// DPI is the raster resolution for images.
	DPI float64
	// Media is the CSS media type emulated while printing.
	Media string
}

// DefaultOptions returns the standard print options.
func DefaultOptions() Options {
	return Options{
		DefaultFont:  "Helvetica",
		EnableRemote: true,
		HTML5:        true,
		DPI:          150,
		Media:        "print",
	}
}

// Page is one document handed to a converter. HTML is used by browser
// backends, Draw by NativeConverter. Both describe the same layout.
type Page struct {
	Title   string
	Author  string
	Created time.Time
	HTML    []byte
	Width   geometry.Length
	Height  geometry.Length
	Options Options
	Draw    func(doc *fpdf.Fpdf) error
}

// Converter turns a page into PDF bytes written to w.
type Converter interface {
	Convert(ctx context.Context, p Page, w io.Writer) error
}

// ChromiumConverter prints pages with headless Chrome.
type ChromiumConverter struct {
	ExecPath string
	Timeout  time.Duration
}

// NewChromiumConverter returns a converter using the browser at execPath, or
// the one chromedp finds when execPath is empty.
func NewChromiumConverter(execPath string, timeout time.Duration) *ChromiumConverter {
	return &ChromiumConverter{ExecPath: execPath, Timeout: timeout}
}

// Convert loads the page HTML into a blank tab and prints it.
func (c *ChromiumConverter) Convert(ctx context.Context, p Page, w io.Writer) error {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	if !p.Options.EnableRemote {
		allocOpts = append(allocOpts, chromedp.Flag("host-resolver-rules", "MAP * ~NOTFOUND"))
	}
	if c.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancelRun := chromedp.NewContext(allocCtx)
	defer cancelRun()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, timeout)
	defer cancelTimeout()

	media := p.Options.Media
	if media == "" {
		media = "print"
	}
	scale := 1.0
	if p.Options.DPI > 0 {
		scale = p.Options.DPI / 96
	}

	var out []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(p.HTML)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := emulation.SetEmulatedMedia().WithMedia(media).Do(ctx); err != nil {
				return err
			}
			return emulation.SetDeviceMetricsOverride(
				int64(p.Width.Inches()*96), int64(p.Height.Inches()*96), scale, false,
			).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithPaperWidth(p.Width.Inches()).
				WithPaperHeight(p.Height.Inches()).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			if err == nil {
				out = buf
			}
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("chromedp run failed: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// NativeConverter draws pages with fpdf without a browser. It ignores the
// page HTML.
type NativeConverter struct{}

// NewNativeConverter returns a NativeConverter.
func NewNativeConverter() *NativeConverter {
	return &NativeConverter{}
}

func (NativeConverter) Convert(ctx context.Context, p Page, w io.Writer) error {
	if p.Draw == nil {
		return ErrNoDrawing
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: p.Width.Points(), Ht: p.Height.Points()},
	})
	doc.SetCreator("gletter", true)
	if p.Title != "" {
		doc.SetTitle(p.Title, true)
	}
	if p.Author != "" {
		doc.SetAuthor(p.Author, true)
	}
	if !p.Created.IsZero() {
		doc.SetCreationDate(p.Created)
	}

	if err := p.Draw(doc); err != nil {
		return fmt.Errorf("native draw: %w", err)
	}
	if err := doc.Error(); err != nil {
		return fmt.Errorf("native draw: %w", err)
	}
	return doc.Output(w)
}
