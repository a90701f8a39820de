package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/foxxcyber/pex/internal/models"
)

type rgb struct{ r, g, b int }

var (
	colorHeaderBand = rgb{200, 0, 0}
	colorTitle      = rgb{255, 255, 0}
	colorSubtitle   = rgb{255, 165, 0}
	colorTableHead  = rgb{150, 0, 0}
	colorStripe     = rgb{245, 245, 245}
	colorBlack      = rgb{0, 0, 0}

	statusColors = map[models.Status]rgb{
		models.StatusExpired:  {255, 0, 0},
		models.StatusCritical: {255, 140, 0},
		models.StatusSafe:     {0, 128, 0},
	}
)

// Column widths in mm, summing to the A4 printable width
var pdfWidths = []float64{30, 70, 14, 24, 14, 38}

const (
	rowHeight    = 6.0
	bottomMargin = 15.0
)

// The core PDF fonts are Windows-1252 encoded
var cp1252 = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

func latin1(s string) string {
	out, _, err := transform.String(cp1252, s)
	if err != nil {
		return s
	}
	return out
}

// WritePDF renders the expiry report for products, in the given order
func WritePDF(w io.Writer, products []models.Product, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, bottomMargin)
	pdf.SetTitle(Title, true)
	pdf.AddPage()

	// Header band
	setFill(pdf, colorHeaderBand)
	pdf.Rect(0, 0, 210, 40, "F")

	setText(pdf, colorTitle)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(0, 14)
	pdf.CellFormat(210, 10, latin1(Title), "", 1, "C", false, 0, "")

	setText(pdf, colorSubtitle)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(0, 26)
	pdf.CellFormat(210, 6, latin1(generatedLine(generatedAt)), "", 1, "C", false, 0, "")

	pdf.SetXY(10, 45)
	tableHead(pdf)

	_, pageHeight := pdf.GetPageSize()
	for i, p := range products {
		if pdf.GetY()+rowHeight > pageHeight-bottomMargin {
			pdf.AddPage()
			tableHead(pdf)
		}
		tableRow(pdf, p, i%2 == 1)
	}

	pdf.Ln(4)
	setText(pdf, colorBlack)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, latin1(totalLine(len(products))), "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func tableHead(pdf *fpdf.Fpdf) {
	setFill(pdf, colorTableHead)
	setText(pdf, colorTitle)
	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range headers {
		pdf.CellFormat(pdfWidths[i], rowHeight+1, latin1(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func tableRow(pdf *fpdf.Fpdf, p models.Product, striped bool) {
	fill := rgb{255, 255, 255}
	if striped {
		fill = colorStripe
	}
	setFill(pdf, fill)

	cells := row(p)
	last := len(cells) - 1
	for i, text := range cells {
		if i == last {
			setText(pdf, statusColors[p.Status])
			pdf.SetFont("Helvetica", statusStyle(p.Status), 8)
		} else {
			setText(pdf, colorBlack)
			pdf.SetFont("Helvetica", "", 8)
		}
		align := "L"
		if i == 2 || i == 4 {
			align = "R"
		}
		pdf.CellFormat(pdfWidths[i], rowHeight, fit(pdf, latin1(text), pdfWidths[i]), "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)
}

func statusStyle(s models.Status) string {
	if s == models.StatusSafe {
		return ""
	}
	return "B"
}

// fit shortens text until it fits a cell of width w
func fit(pdf *fpdf.Fpdf, text string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	b := []byte(text)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+"...") > limit {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
