package export

import (
	"fmt"

	"github.com/limaJavier/timetabler/pkg/model"
)

type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Render encodes a timetable and returns the bytes with their content type.
func Render(timetable model.Timetable, format Format, title string) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		content, err := NewCSVExporter().Render(timetable)
		return content, "text/csv", err
	case FormatPDF:
		content, err := NewPDFExporter().Render(timetable, title)
		return content, "application/pdf", err
	default:
		return nil, "", fmt.Errorf("unsupported export format %q", format)
	}
}
