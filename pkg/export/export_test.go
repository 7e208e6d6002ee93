package export

import (
	"bytes"
	"testing"

	"github.com/limaJavier/timetabler/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTimetable() model.Timetable {
	math := model.Event{Subject: "Mathematics", SubjectCode: "MATH101", Teacher: "Alice", Classroom: "Room A"}
	physics := model.Event{Subject: "Physics", SubjectCode: "PHY101", Teacher: "Bruno", Classroom: "Room B"}
	return model.Timetable{
		{{math, physics}, {{Event: model.LunchBreak}}, {}},
		{{}, {{Event: model.LunchBreak}}, {math}},
	}
}

func TestCSVExporter(t *testing.T) {
	content, contentType, err := Render(sampleTimetable(), FormatCSV, "")

	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t,
		"Day,Slot,Subject,Code,Teacher,Classroom\n"+
			"Monday,1,Mathematics,MATH101,Alice,Room A\n"+
			"Monday,1,Physics,PHY101,Bruno,Room B\n"+
			"Monday,2,Lunch Break,,,\n"+
			"Tuesday,2,Lunch Break,,,\n"+
			"Tuesday,3,Mathematics,MATH101,Alice,Room A\n",
		string(content))

	_, err = NewCSVExporter().Render(model.Timetable{})
	assert.Error(t, err)
}

func TestCSVExporterQuotesCells(t *testing.T) {
	event := model.Event{Subject: "Art, Music", SubjectCode: "ART1", Teacher: "Ana \"Lu\"", Classroom: "Hall"}

	content, err := NewCSVExporter().Render(model.Timetable{{{event}}})

	require.NoError(t, err)
	assert.Equal(t,
		"Day,Slot,Subject,Code,Teacher,Classroom\n"+
			"Monday,1,\"Art, Music\",ART1,\"Ana \"\"Lu\"\"\",Hall\n",
		string(content))
}

func TestPDFExporter(t *testing.T) {
	content, contentType, err := Render(sampleTimetable(), FormatPDF, "Weekly timetable")

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))

	_, err = NewPDFExporter().Render(model.Timetable{}, "")
	assert.Error(t, err)
}

func TestUnsupportedFormat(t *testing.T) {
	_, _, err := Render(sampleTimetable(), Format("xlsx"), "")
	assert.Error(t, err)
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Monday", DayName(0))
	assert.Equal(t, "Sunday", DayName(6))
	assert.Equal(t, "Day 8", DayName(7))
}
