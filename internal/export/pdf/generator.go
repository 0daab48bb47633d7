// internal/export/pdf/generator.go

// Package pdf renders one consent submission into a paginated report with
// embedded signature images. Image fetches degrade to a placeholder line,
// never abort the report.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/common/metrics"
	"formdesk-workers/internal/export/consent"
	"formdesk-workers/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// SignatureFallback is the line rendered in place of a signature image
// that could not be fetched or resolved.
const SignatureFallback = "[Signature image unavailable]"

// Page geometry in millimeters (A4 portrait).
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	textWidth    = pageWidth - 2*marginLeft
	safeBottom   = pageHeight - marginBottom

	lineHeight   = 5.0
	fieldSpacing = 3.0

	signatureWidth  = 60.0
	signatureHeight = 25.0
)

var imageExtensions = map[string]string{
	".png":  "PNG",
	".jpg":  "JPG",
	".jpeg": "JPG",
	".gif":  "GIF",
}

// SignatureFetcher downloads a signature image by its bare filename from a
// client site. Satisfied by the wordpress client.
type SignatureFetcher interface {
	FetchSignature(ctx context.Context, siteURL, filename string) ([]byte, error)
}

// Report is a finished consent document plus enough metadata for callers
// and tests to assert degradation behavior without parsing PDF bytes.
type Report struct {
	FileName string
	Data     []byte
	Pages    int

	// SignatureFallbacks lists the filenames whose images could not be
	// embedded and were replaced with the fallback line.
	SignatureFallbacks []string
}

type Generator struct {
	fetcher SignatureFetcher
	logger  logger.Logger
}

func NewGenerator(fetcher SignatureFetcher, log logger.Logger) *Generator {
	return &Generator{
		fetcher: fetcher,
		logger:  log.WithFields(map[string]interface{}{"component": "pdf"}),
	}
}

// Generate renders the consent submission into a PDF. Fields are emitted
// in canonical order, one at a time; signature images are fetched
// sequentially in field order so pagination stays deterministic.
func (g *Generator) Generate(ctx context.Context, sub models.Submission, site *models.ClientSite) (*Report, error) {
	company := consent.CompanyName(sub.Data)
	report := &Report{
		FileName: "consent-form-" + strings.ReplaceAll(company, " ", "-") + ".pdf",
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Title block, page 1 only.
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(textWidth, 8, tr("Client Consent Form: "+company), "", 1, "L", false, 0, "")
	ruleY := pdf.GetY() + 1
	pdf.SetLineWidth(0.4)
	pdf.Line(marginLeft, ruleY, pageWidth-marginLeft, ruleY)
	pdf.SetY(ruleY + 3)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(textWidth, lineHeight, "Submitted "+sub.SubmittedAt.Format("January 2, 2006 3:04 PM"), "", 1, "L", false, 0, "")
	pdf.SetY(pdf.GetY() + 2*fieldSpacing)

	for _, field := range consent.OrderFields(sub.Data) {
		value := ""
		if field.Value != nil {
			value = *field.Value
		}

		switch {
		case isSignatureFilename(value):
			if fellBack := g.renderSignature(ctx, pdf, tr, field.Label, value, site); fellBack {
				report.SignatureFallbacks = append(report.SignatureFallbacks, value)
			}
		case value == consent.AgreementSentinel:
			renderAgreement(pdf, tr, field.Label)
		default:
			renderText(pdf, tr, field.Label, value)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render consent pdf for %s: %w", company, err)
	}

	report.Data = buf.Bytes()
	report.Pages = pdf.PageNo()
	return report, nil
}

// isSignatureFilename reports whether the value is a bare image filename,
// i.e. has a known image extension and carries no URL scheme.
func isSignatureFilename(value string) bool {
	if value == "" || strings.Contains(value, "://") {
		return false
	}
	_, ok := imageExtensions[strings.ToLower(path.Ext(value))]
	return ok
}

// ensureRoom starts a new page when the next block of the given height
// would cross the safe bottom margin.
func ensureRoom(pdf *gofpdf.Fpdf, height float64) {
	if pdf.GetY()+height > safeBottom {
		pdf.AddPage()
		pdf.SetY(marginTop)
	}
}

func writeLabel(pdf *gofpdf.Fpdf, tr func(string) string, label string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetX(marginLeft)
	pdf.CellFormat(textWidth, lineHeight, tr(label), "", 1, "L", false, 0, "")
}

// renderText emits a label plus word-wrapped value. Wrapped body text may
// continue onto the next page; the label never starts alone at a page
// bottom.
func renderText(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	if value == "" {
		value = "—"
	}

	pdf.SetFont("Helvetica", "", 10)
	lines := pdf.SplitText(tr(value), textWidth)

	ensureRoom(pdf, 2*lineHeight)
	writeLabel(pdf, tr, label)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range lines {
		ensureRoom(pdf, lineHeight)
		pdf.SetX(marginLeft)
		pdf.CellFormat(textWidth, lineHeight, line, "", 1, "L", false, 0, "")
	}
	pdf.SetY(pdf.GetY() + fieldSpacing)
}

// renderAgreement emits a compact checkmark acknowledgment line in place
// of the raw sentinel text. Glyph "4" is the ZapfDingbats check.
func renderAgreement(pdf *gofpdf.Fpdf, tr func(string) string, label string) {
	ensureRoom(pdf, lineHeight)
	pdf.SetX(marginLeft)
	pdf.SetFont("ZapfDingbats", "", 10)
	pdf.CellFormat(6, lineHeight, "4", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(textWidth-6, lineHeight, tr(label+": accepted and agreed"), "", 1, "L", false, 0, "")
	pdf.SetY(pdf.GetY() + fieldSpacing)
}

// renderSignature embeds the signature image at fixed dimensions, or the
// fallback line when the image cannot be resolved or fetched. Returns true
// when it fell back.
func (g *Generator) renderSignature(ctx context.Context, pdf *gofpdf.Fpdf, tr func(string) string, label, filename string, site *models.ClientSite) bool {
	ensureRoom(pdf, lineHeight+signatureHeight+fieldSpacing)
	writeLabel(pdf, tr, label)

	if site == nil || site.WordPressURL == "" {
		g.logger.Warn("no site url to resolve signature, using placeholder",
			map[string]interface{}{"filename": filename})
		return g.fallback(pdf)
	}

	data, err := g.fetcher.FetchSignature(ctx, site.WordPressURL, filename)
	if err != nil {
		g.logger.Warn("signature fetch failed, using placeholder",
			map[string]interface{}{"filename": filename, "error": err.Error()})
		return g.fallback(pdf)
	}

	opts := gofpdf.ImageOptions{ImageType: imageExtensions[strings.ToLower(path.Ext(filename))]}
	pdf.RegisterImageOptionsReader(filename, opts, bytes.NewReader(data))
	if pdf.Err() {
		g.logger.Warn("signature image unreadable, using placeholder",
			map[string]interface{}{"filename": filename, "error": pdf.Error().Error()})
		pdf.ClearError()
		return g.fallback(pdf)
	}

	y := pdf.GetY()
	pdf.ImageOptions(filename, marginLeft, y, signatureWidth, signatureHeight, false, opts, 0, "")
	pdf.SetY(y + signatureHeight + fieldSpacing)
	return false
}

func (g *Generator) fallback(pdf *gofpdf.Fpdf) bool {
	metrics.SignatureFetchFailures.Inc()
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetX(marginLeft)
	pdf.CellFormat(textWidth, lineHeight, SignatureFallback, "", 1, "L", false, 0, "")
	pdf.SetY(pdf.GetY() + fieldSpacing)
	return true
}
