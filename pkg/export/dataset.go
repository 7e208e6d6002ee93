package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/limaJavier/timetabler/pkg/model"
)

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// DayName names a day index, falling back to "Day N" past a week.
func DayName(day int) string {
	if day < len(dayNames) {
		return dayNames[day]
	}
	return fmt.Sprintf("Day %d", day+1)
}

// SlotName is the one-based slot label.
func SlotName(slot int) string {
	return strconv.Itoa(slot + 1)
}

// cellText summarizes a slot for grid layouts.
func cellText(events []model.Event) string {
	lines := make([]string, 0, len(events))
	for _, event := range events {
		if event.IsLunch() {
			lines = append(lines, event.Event)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s (%s, %s)", event.Subject, event.Teacher, event.Classroom))
	}
	return strings.Join(lines, "\n")
}
