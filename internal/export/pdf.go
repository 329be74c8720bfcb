package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"freshr-backend/internal/models"
)

const (
	pdfMargin     = 20.0
	pdfLineHeight = 6.0
	pdfFont       = "Helvetica"
)

// RenderPDF writes the outline as an A4 document: a cover page followed by
// one page per slide, with bullet lists breaking onto new pages as needed.
func RenderPDF(p *models.GeneratedPresentationData, theme Theme) ([]byte, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	pal := theme.Palette()

	pdf := fpdf.New("P", "mm", "A4", "")
	stamp := packageTime
	if !p.CreatedAt.IsZero() {
		stamp = p.CreatedAt.UTC()
	}
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(p.Title, true)
	pdf.SetCreator("FRESHR", false)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, 0)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	setText := func(hex string) { pdf.SetTextColor(rgb(hex)) }
	centered := func(s string, y float64) {
		pdf.Text((pageW-pdf.GetStringWidth(s))/2, y, s)
	}

	pdf.SetFooterFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetFont(pdfFont, "", 8)
		setText(pal.Secondary)
		centered(tr(creditLine), pageH-10)
	})

	// Cover
	pdf.AddPage()
	pdf.SetFillColor(rgb(pal.Primary))
	pdf.Rect(0, 0, pageW, 80, "F")

	setText(pal.TitleText)
	pdf.SetFont(pdfFont, "B", 32)
	for i, line := range pdf.SplitLines([]byte(tr(p.Title)), contentW) {
		centered(string(line), 40+float64(i)*13)
	}
	if p.Subtitle != "" {
		pdf.SetFont(pdfFont, "", 16)
		for i, line := range pdf.SplitLines([]byte(tr(p.Subtitle)), contentW) {
			centered(string(line), 55+float64(i)*7)
		}
	}

	setText(pal.Text)
	pdf.SetFont(pdfFont, "", 12)
	centered(tr(fmt.Sprintf("%d slides • %s", len(p.Slides), p.EstimatedDuration)), 70)
	pdf.SetFont(pdfFont, "I", 10)
	pdf.Text(pdfMargin, 100, tr("Generated on "+stamp.Format("1/2/2006")))

	for i, slide := range p.Slides {
		pdf.AddPage()

		pdf.SetFillColor(rgb(pal.Primary))
		pdf.Rect(0, 0, pageW, 15, "F")
		setText(pal.TitleText)
		pdf.SetFont(pdfFont, "", 10)
		pdf.Text(pdfMargin, 10, fmt.Sprintf("Slide %d of %d", i+1, len(p.Slides)))

		y := 25.0
		setText(pal.Accent)
		pdf.SetFont(pdfFont, "B", 20)
		for _, line := range pdf.SplitLines([]byte(tr(slide.Title)), contentW) {
			pdf.Text(pdfMargin, y, string(line))
			y += 8
		}
		y += 10

		pdf.SetDrawColor(rgb(pal.Secondary))
		pdf.SetLineWidth(0.5)
		pdf.Line(pdfMargin, y, pageW-pdfMargin, y)
		y += 10

		setText(pal.Text)
		if slide.Format == models.SlideFormatBulletpoint {
			for n, item := range bulletItems(slide.Content) {
				if y > pageH-40 {
					pdf.AddPage()
					setText(pal.Text)
					y = pdfMargin
				}
				pdf.SetFont(pdfFont, "B", 12)
				pdf.Text(pdfMargin, y, fmt.Sprintf("%d.", n+1))

				pdf.SetFont(pdfFont, "", 12)
				lines := pdf.SplitLines([]byte(tr(item)), contentW-10)
				for j, line := range lines {
					pdf.Text(pdfMargin+7, y+float64(j)*pdfLineHeight, string(line))
				}
				y += float64(len(lines))*pdfLineHeight + 6
			}
			continue
		}

		pdf.SetFont(pdfFont, "", 12)
		for _, line := range pdf.SplitLines([]byte(tr(slide.Content)), contentW) {
			pdf.Text(pdfMargin, y, string(line))
			y += pdfLineHeight
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
