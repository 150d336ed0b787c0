// Package render — PDF renderer.
// Lays out the Markdown document with gofpdf: headings, bullet lines,
// horizontal rules and paragraphs. Image references that point at a
// downloaded local file are embedded; remote ones are printed as text.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/gaurav-prasanna/wipipe/core"
)

const (
	pdfMaxImageWidth = 170.0 // mm, A4 width minus margins
	pdfDefaultDPI    = 96.0
)

var (
	imageLineRegex = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]+)\)$`)
	linkRegex      = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
)

// PDFRenderer renders the Markdown document as a PDF.
type PDFRenderer struct {
	md *MarkdownRenderer
}

// NewPDFRenderer creates a PDFRenderer on top of md.
func NewPDFRenderer(md *MarkdownRenderer) *PDFRenderer {
	return &PDFRenderer{md: md}
}

// Render converts the record's Markdown document into PDF bytes.
func (r *PDFRenderer) Render(_ context.Context, rec *core.WorkItemRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(fmt.Sprintf("Work Item #%d: %s", rec.ID, rec.Title), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	images := 0
	for _, line := range strings.Split(r.md.Document(rec), "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			pdf.Ln(3)

		case trimmed == "---":
			pdf.Ln(2)
			x, y := pdf.GetX(), pdf.GetY()
			pdf.SetDrawColor(180, 180, 180)
			pdf.Line(x, y, x+pdfMaxImageWidth, y)
			pdf.Ln(3)

		case strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			renderHeading(pdf, tr(strings.TrimSpace(trimmed[level:])), level)

		case imageLineRegex.MatchString(trimmed):
			m := imageLineRegex.FindStringSubmatch(trimmed)
			if embedImage(pdf, fmt.Sprintf("img%d", images), m[2]) {
				images++
				continue
			}
			pdf.SetFont("Helvetica", "I", 9)
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("[image: %s] %s", m[1], m[2])), "", "L", false)

		case strings.HasPrefix(trimmed, "- "):
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr("• "+cleanInlineMarkdown(trimmed[2:])), "", "L", false)

		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(line)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// embedImage places a local image file on the page. It reports false, leaving
// the document untouched, when the file is missing or not a PNG, JPEG or GIF.
func embedImage(pdf *gofpdf.Fpdf, name, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false
	}
	var imageType string
	switch format {
	case "png":
		imageType = "PNG"
	case "jpeg":
		imageType = "JPG"
	case "gif":
		imageType = "GIF"
	default:
		return false
	}

	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if !pdf.Ok() {
		return false
	}

	w := float64(cfg.Width) * 25.4 / pdfDefaultDPI
	if w > pdfMaxImageWidth {
		w = pdfMaxImageWidth
	}
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), w, 0, true, opts, 0, "")
	pdf.Ln(2)
	return true
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, cleanInlineMarkdown(text), "", "L", false)
	pdf.Ln(2)
}

// cleanInlineMarkdown strips bold markers and turns links into "text (url)".
func cleanInlineMarkdown(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = linkRegex.ReplaceAllString(text, "$1 ($2)")
	return strings.TrimSpace(text)
}
