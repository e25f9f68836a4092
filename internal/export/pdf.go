package export

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/signintech/gopdf"
)

// ErrFontUnavailable means the TTF font needed to render PDFs could not be loaded.
var ErrFontUnavailable = errors.New("pdf font unavailable")

const (
	fontFamily = "body"

	pageMargin  = 36.0
	rowHeight   = 20.0
	titleSize   = 16
	bodySize    = 10
	footerSpace = 60.0
)

//go:embed fonts/LiberationSerif-Regular.ttf
var defaultFont []byte

// PDFWriter renders the marksheet as an A4 table.
type PDFWriter struct {
	fontPath string
}

// NewPDFWriter creates a PDFWriter using the TTF font at fontPath. An empty
// path selects the bundled Liberation Serif.
func NewPDFWriter(fontPath string) *PDFWriter {
	return &PDFWriter{fontPath: fontPath}
}

func (p *PDFWriter) loadFont(pdf *gopdf.GoPdf) error {
	if p.fontPath == "" {
		return pdf.AddTTFFontData(fontFamily, defaultFont)
	}
	if _, err := os.Stat(p.fontPath); err != nil {
		return err
	}
	return pdf.AddTTFFont(fontFamily, p.fontPath)
}

// Write renders m to w. Rows continue on new pages with the header repeated;
// the last page ends with a signature line.
func (p *PDFWriter) Write(w io.Writer, m *Marksheet) error {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := p.loadFont(&pdf); err != nil {
		return fmt.Errorf("%w: %v", ErrFontUnavailable, err)
	}

	pageW := gopdf.PageSizeA4.W
	pageH := gopdf.PageSizeA4.H
	header := m.Header()
	widths := columnWidths(len(m.Subjects), pageW-2*pageMargin)

	newPage := func() error {
		pdf.AddPage()
		if err := pdf.SetFont(fontFamily, "", titleSize); err != nil {
			return err
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.SetXY(pageMargin, pageMargin)
		if err := pdf.Cell(nil, "Student Marksheet"); err != nil {
			return err
		}

		if err := pdf.SetFont(fontFamily, "", bodySize); err != nil {
			return err
		}
		pdf.SetTextColor(100, 100, 100)
		pdf.SetXY(pageMargin, pageMargin+22)
		if err := pdf.Cell(nil, m.Institute); err != nil {
			return err
		}
		pdf.SetXY(pageMargin, pageMargin+36)
		if err := pdf.Cell(nil, "Generated on: "+m.GeneratedAt.Format("02 Jan 2006")); err != nil {
			return err
		}

		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(230, 230, 230)
		return drawRow(&pdf, pageMargin+56, widths, header, true)
	}

	if err := newPage(); err != nil {
		return err
	}
	y := pageMargin + 56 + rowHeight

	for _, s := range m.Students {
		if y+rowHeight > pageH-footerSpace {
			if err := newPage(); err != nil {
				return err
			}
			y = pageMargin + 56 + rowHeight
		}
		if err := drawRow(&pdf, y, widths, textRow(s, m.Subjects), false); err != nil {
			return err
		}
		y += rowHeight
	}

	if y+footerSpace > pageH-pageMargin {
		if err := newPage(); err != nil {
			return err
		}
	}
	sigY := pageH - pageMargin - 20
	pdf.SetLineWidth(0.5)
	pdf.Line(pageW-pageMargin-160, sigY, pageW-pageMargin, sigY)
	pdf.SetXY(pageW-pageMargin-160, sigY+4)
	if err := pdf.Cell(nil, "Authorised Signature"); err != nil {
		return err
	}

	if _, err := pdf.WriteTo(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawRow(pdf *gopdf.GoPdf, y float64, widths []float64, cells []string, fill bool) error {
	x := pageMargin
	for i, text := range cells {
		if fill {
			if err := pdf.Rectangle(x, y, x+widths[i], y+rowHeight, "F", 0, 0); err != nil {
				return err
			}
		}
		pdf.SetXY(x, y)
		err := pdf.CellWithOption(&gopdf.Rect{W: widths[i], H: rowHeight}, fit(pdf, text, widths[i]-4), gopdf.CellOption{
			Align:  gopdf.Center | gopdf.Middle,
			Border: gopdf.AllBorders,
		})
		if err != nil {
			return err
		}
		x += widths[i]
	}
	return nil
}

// columnWidths gives the name column three shares and every other column one.
func columnWidths(subjects int, total float64) []float64 {
	cols := subjects + 4
	unit := total / float64(cols+2)
	widths := make([]float64, cols)
	for i := range widths {
		widths[i] = unit
	}
	widths[1] = unit * 3
	return widths
}

// fit trims text with an ellipsis until it fits the width.
func fit(pdf *gopdf.GoPdf, text string, width float64) string {
	if w, err := pdf.MeasureTextWidth(text); err != nil || w <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if w, err := pdf.MeasureTextWidth(candidate); err == nil && w <= width {
			return candidate
		}
	}
	return string(runes)
}
