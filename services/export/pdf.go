package export

import (
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

const (
	pdfMargin     = 10.0
	pdfLabelWidth = 28.0
	pdfLineHeight = 5.0
	pdfFont       = "Helvetica"
)

// PDF writes t as an A4 landscape document.
func PDF(w io.Writer, t Table) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin) // rows are broken manually
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	colW := pdfLabelWidth
	if n := len(t.Columns); n > 0 {
		colW = (pageW - 2*pdfMargin - pdfLabelWidth) / float64(n)
	}

	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// header
	pdf.SetFont(pdfFont, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(pdfLabelWidth, 8, "Day", "1", 0, "C", true, 0, "")
	for _, col := range t.Columns {
		pdf.CellFormat(colW, 8, tr(col), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 8)
	for r, row := range t.Rows {
		cells := make([][][]byte, len(row))
		lines := 1
		for c, text := range row {
			cells[c] = pdf.SplitLines([]byte(tr(text)), colW-2)
			if n := len(cells[c]); n > lines {
				lines = n
			}
		}
		rowH := float64(lines)*pdfLineHeight + 2

		_, pageH := pdf.GetPageSize()
		if pdf.GetY()+rowH > pageH-pdfMargin {
			pdf.AddPage()
		}
		x, y := pdf.GetXY()

		label := ""
		if r < len(t.RowLabels) {
			label = t.RowLabels[r]
		}
		pdf.SetFont(pdfFont, "B", 9)
		pdf.SetFillColor(245, 245, 245)
		pdf.Rect(x, y, pdfLabelWidth, rowH, "FD")
		pdf.SetXY(x, y)
		pdf.CellFormat(pdfLabelWidth, rowH, tr(label), "", 0, "C", false, 0, "")

		pdf.SetFont(pdfFont, "", 8)
		for c := range row {
			cx := x + pdfLabelWidth + float64(c)*colW
			style := "D"
			if t.highlighted(r, c) {
				pdf.SetFillColor(255, 224, 224)
				style = "FD"
			}
			pdf.Rect(cx, y, colW, rowH, style)

			top := y + (rowH-float64(len(cells[c]))*pdfLineHeight)/2
			for l, line := range cells[c] {
				pdf.SetXY(cx+1, top+float64(l)*pdfLineHeight)
				pdf.CellFormat(colW-2, pdfLineHeight, strings.TrimSpace(string(line)), "", 0, "C", false, 0, "")
			}
		}
		pdf.SetXY(x, y+rowH)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}
