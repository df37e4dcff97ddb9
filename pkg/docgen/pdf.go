// Package docgen renders assembled OCR markdown into output documents.
//
// The main renderer produces a paginated PDF: one paragraph per markdown
// line, one inline picture per embedded image. Rendering is a single forward
// pass over the lines with no backtracking. A secondary renderer emits a
// standalone HTML page.
package docgen

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/ocrtools/ocrdoc/pkg/mdimage"
)

// Config holds layout options for the PDF renderer.
type Config struct {
	PageSize string  // fpdf page size name, e.g. "A4"
	FontName string  // core font used for text paragraphs
	FontSize float64 // in points
	MarginPt float64 // uniform page margin in points
	Logger   *slog.Logger
}

// DefaultConfig returns the layout used by the CLI.
func DefaultConfig() Config {
	return Config{
		PageSize: "A4",
		FontName: "Helvetica",
		FontSize: 11,
		MarginPt: 36,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Paragraph is one unit of the rendered document: either a line of text or a
// single inline picture.
type Paragraph struct {
	Text   string
	Alt    string // alt text of a picture paragraph
	Image  []byte // decoded image bytes when this is a picture paragraph
	Format string // image type for the PDF writer ("PNG", "JPEG", "GIF")
}

// IsPicture reports whether the paragraph carries an inline picture.
func (p Paragraph) IsPicture() bool { return p.Image != nil }

// Layout walks the assembled markdown line by line and produces the ordered
// paragraph sequence of the rendered document.
//
// A line without embedded images becomes exactly one text paragraph, empty
// lines included so vertical spacing survives. A line with images yields the
// residual text first (only when non-empty), then one picture paragraph per
// image in order of appearance. Images that fail to decode are logged and
// skipped; the rest of their line is still emitted.
func Layout(markdown string, logger *slog.Logger) []Paragraph {
	if logger == nil {
		logger = slog.Default()
	}
	var paras []Paragraph
	for _, line := range strings.Split(markdown, "\n") {
		tags := mdimage.ScanTags(line)
		if len(tags) == 0 {
			paras = append(paras, Paragraph{Text: line})
			continue
		}
		if rest := mdimage.StripTags(line, tags); rest != "" {
			paras = append(paras, Paragraph{Text: rest})
		}
		for _, tag := range tags {
			data, format, err := tag.Decode()
			if err != nil {
				logger.Error("skipping embedded image", "alt", tag.Alt, "error", err)
				continue
			}
			paras = append(paras, Paragraph{Alt: tag.Alt, Image: data, Format: format})
		}
	}
	return paras
}

// RenderPDF lays out the assembled markdown and emits the paginated document.
// Per-picture placement failures are logged and skipped, matching the layout
// pass; any other failure aborts the render.
func RenderPDF(markdown string, cfg Config) ([]byte, error) {
	logger := cfg.logger()

	pdf := fpdf.New("P", "pt", cfg.PageSize, "")
	pdf.SetMargins(cfg.MarginPt, cfg.MarginPt, cfg.MarginPt)
	pdf.SetAutoPageBreak(true, cfg.MarginPt)
	pdf.AddPage()
	pdf.SetFont(cfg.FontName, "", cfg.FontSize)

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*cfg.MarginPt
	lineHt := cfg.FontSize * 1.4

	seq := 0
	encodeFailures := 0
	for _, para := range Layout(markdown, logger) {
		if !para.IsPicture() {
			if para.Text == "" {
				pdf.Ln(lineHt)
			} else {
				pdf.MultiCell(contentW, lineHt, winAnsi(para.Text, &encodeFailures), "", "L", false)
			}
			continue
		}
		// every picture gets its own registration name, placed or not
		name := fmt.Sprintf("inline-%d", seq)
		seq++
		if err := placeImage(pdf, name, para, contentW, cfg.MarginPt); err != nil {
			logger.Error("skipping embedded image", "alt", para.Alt, "error", err)
		}
	}
	if encodeFailures > 0 {
		logger.Warn("text contains characters outside the document font encoding",
			"paragraphs", encodeFailures)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// winAnsi converts text to the cp1252 encoding the core fonts use. Runes
// outside the codepage are substituted and the failure counted so the caller
// can warn once per document.
func winAnsi(text string, failures *int) string {
	encoded, err := charmap.Windows1252.NewEncoder().String(text)
	if err == nil {
		return encoded
	}
	*failures++
	encoded, err = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).String(text)
	if err != nil {
		return text
	}
	return encoded
}

// placeImage registers and draws one inline picture at the cursor, scaled
// down to the content width, breaking the page first when it would not fit.
// Registration errors are cleared so one bad image cannot poison the rest of
// the document.
func placeImage(pdf *fpdf.Fpdf, name string, para Paragraph, contentW, margin float64) error {
	opts := fpdf.ImageOptions{ImageType: para.Format, ReadDpi: false}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(para.Image))
	if pdf.Err() {
		err := pdf.Error()
		pdf.ClearError()
		return fmt.Errorf("register image: %w", err)
	}

	w, h := info.Width(), info.Height()
	if w > contentW {
		h = h * contentW / w
		w = contentW
	}
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+h > pageH-margin {
		pdf.AddPage()
	}

	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), w, h, true, opts, 0, "")
	if pdf.Err() {
		err := pdf.Error()
		pdf.ClearError()
		return fmt.Errorf("draw image: %w", err)
	}
	return nil
}
