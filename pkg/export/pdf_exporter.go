package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/limaJavier/timetabler/pkg/model"
)

// PDFExporter draws a timetable as a grid with one column per day and one row per slot.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) Render(timetable model.Timetable, title string) ([]byte, error) {
	if len(timetable) == 0 {
		return nil, fmt.Errorf("pdf requires at least one day")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	const slotWidth, lineHeight = 15.0, 4.5
	dayWidth := (277.0 - slotWidth) / float64(len(timetable))

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(slotWidth, 8, "Slot", "1", 0, "C", false, 0, "")
	for day := range timetable {
		pdf.CellFormat(dayWidth, 8, DayName(day), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for slot := range timetable[0] {
		cells := make([][]string, len(timetable))
		rows := 1
		for day := range timetable {
			text := ""
			if slot < len(timetable[day]) {
				text = cellText(timetable[day][slot])
			}
			cells[day] = pdf.SplitText(text, dayWidth-2)
			rows = max(rows, len(cells[day]))
		}
		height := float64(rows) * lineHeight

		x, y := pdf.GetXY()
		pdf.CellFormat(slotWidth, height, SlotName(slot), "1", 0, "C", false, 0, "")
		for day, lines := range cells {
			left := x + slotWidth + float64(day)*dayWidth
			pdf.Rect(left, y, dayWidth, height, "D")
			pdf.SetXY(left+1, y)
			pdf.MultiCell(dayWidth-2, lineHeight, strings.Join(lines, "\n"), "", "L", false)
		}
		pdf.SetXY(x, y+height)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
