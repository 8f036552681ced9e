// Package pdf renders generated plan text into the styled multi-page
// document that is emailed to the customer: a dark cover page with the
// customer's details followed by content pages with the plan body.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/ozzie78066/bulkbot/internal/pkg/metrics"
)

// Document is the input to a render: cover details plus the plan body.
type Document struct {
	Title     string
	Name      string
	Email     string
	Allergies string
	Body      string
}

// Palette: slate-900 background, slate-100 text, blue-500 accent.
var (
	colorBg     = [3]int{15, 23, 42}
	colorText   = [3]int{226, 232, 240}
	colorAccent = [3]int{59, 130, 246}
)

const footerLine = "Stay hydrated, consistent & rested – results will come."

// Renderer produces the finished PDF bytes for a Document.
type Renderer struct {
	headerFont string
	bodyFont   string
}

// NewRenderer creates a Renderer using the built-in core fonts.
func NewRenderer() *Renderer {
	return &Renderer{headerFont: "Helvetica", bodyFont: "Times"}
}

// Render lays out the cover page and content pages and returns the PDF.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.PDFRenderDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	if doc.Title == "" {
		doc.Title = "PERSONAL GYM & MEAL PLAN"
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 22)
	pageW, pageH := pdf.GetPageSize()

	// Paint the background on every page, including auto-added ones.
	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(colorBg[0], colorBg[1], colorBg[2])
		pdf.Rect(0, 0, pageW, pageH, "F")
		pdf.SetY(18)
	})

	r.coverPage(pdf, doc, pageW)
	r.contentPages(pdf, doc)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) coverPage(pdf *fpdf.Fpdf, doc Document, pageW float64) {
	pdf.AddPage()

	pdf.SetY(60)
	pdf.SetFont(r.headerFont, "B", 34)
	pdf.SetTextColor(colorAccent[0], colorAccent[1], colorAccent[2])
	pdf.MultiCell(0, 14, doc.Title, "", "C", false)

	pdf.SetY(150)
	pdf.SetFont(r.bodyFont, "", 14)
	pdf.SetTextColor(colorText[0], colorText[1], colorText[2])
	pdf.MultiCell(0, 8, fmt.Sprintf("Name : %s", doc.Name), "", "C", false)
	pdf.MultiCell(0, 8, fmt.Sprintf("Email: %s", doc.Email), "", "C", false)
	pdf.MultiCell(0, 8, fmt.Sprintf("Allergies: %s", doc.Allergies), "", "C", false)
}

func (r *Renderer) contentPages(pdf *fpdf.Fpdf, doc Document) {
	pdf.AddPage()

	// Underlined section header.
	header := "Your Plan"
	pdf.SetFont(r.headerFont, "B", 18)
	pdf.SetTextColor(colorAccent[0], colorAccent[1], colorAccent[2])
	pdf.CellFormat(0, 10, header, "", 1, "C", false, 0, "")
	headerW := pdf.GetStringWidth(header)
	pageW, _ := pdf.GetPageSize()
	x := (pageW - headerW) / 2
	y := pdf.GetY()
	pdf.SetDrawColor(colorAccent[0], colorAccent[1], colorAccent[2])
	pdf.Line(x, y, x+headerW, y)
	pdf.Ln(6)

	pdf.SetFont(r.bodyFont, "", 13)
	pdf.SetTextColor(colorText[0], colorText[1], colorText[2])
	pdf.MultiCell(0, 7, doc.Body, "", "L", false)

	pdf.Ln(10)
	pdf.SetFont(r.bodyFont, "I", 11)
	pdf.CellFormat(0, 8, footerLine, "", 1, "C", false, 0, "")
}
