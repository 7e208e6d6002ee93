package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/limaJavier/timetabler/pkg/model"
)

var csvHeader = []string{"Day", "Slot", "Subject", "Code", "Teacher", "Classroom"}

// CSVExporter writes one record per event of the day/slot grid, in day then slot order.
// Lunch markers leave every column after the subject empty.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Render(timetable model.Timetable) ([]byte, error) {
	if len(timetable) == 0 {
		return nil, fmt.Errorf("csv requires at least one day")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for day, slots := range timetable {
		for slot, events := range slots {
			for _, event := range events {
				if err := writer.Write(csvRecord(day, slot, event)); err != nil {
					return nil, fmt.Errorf("write csv record for %s slot %s: %w", DayName(day), SlotName(slot), err)
				}
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func csvRecord(day, slot int, event model.Event) []string {
	if event.IsLunch() {
		return []string{DayName(day), SlotName(slot), event.Event, "", "", ""}
	}
	return []string{DayName(day), SlotName(slot), event.Subject, event.SubjectCode, event.Teacher, event.Classroom}
}
