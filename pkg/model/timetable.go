package model

const LunchBreak = "Lunch Break"

// Event is either the lunch marker or one scheduled lecture.
type Event struct {
	Event       string `json:"event,omitempty"`
	Subject     string `json:"subject,omitempty"`
	SubjectCode string `json:"subject_code,omitempty"`
	Teacher     string `json:"teacher,omitempty"`
	Classroom   string `json:"classroom,omitempty"`
}

func (event Event) IsLunch() bool { return event.Event == LunchBreak }

// Timetable is indexed by day then slot. Every slot holds a list of events, possibly empty.
type Timetable [][][]Event

// Assignment is a lecture placed on the grid.
type Assignment struct {
	Day, Slot int
	Event
}

// Assignments flattens the lectures of the timetable in day, slot order, skipping lunch markers.
func (timetable Timetable) Assignments() []Assignment {
	assignments := make([]Assignment, 0)
	for day, slots := range timetable {
		for slot, events := range slots {
			for _, event := range events {
				if !event.IsLunch() {
					assignments = append(assignments, Assignment{Day: day, Slot: slot, Event: event})
				}
			}
		}
	}
	return assignments
}

// ForTeacher keeps the lunch markers and the lectures given by teacher.
func (timetable Timetable) ForTeacher(teacher string) Timetable {
	view := make(Timetable, len(timetable))
	for day, slots := range timetable {
		view[day] = make([][]Event, len(slots))
		for slot, events := range slots {
			view[day][slot] = make([]Event, 0, 1)
			for _, event := range events {
				if event.IsLunch() || event.Teacher == teacher {
					view[day][slot] = append(view[day][slot], event)
				}
			}
		}
	}
	return view
}

type occupancyReader func(pair, room, day, slot int) bool

// decodeTimetable walks the grid in day, slot order. The lunch slot gets its marker
// first, then every occupied (subject, teacher, classroom) in subject, teacher,
// classroom order.
func decodeTimetable(input ModelInput, occupied occupancyReader) Timetable {
	shape := input.Shape
	timetable := make(Timetable, shape.Days)
	for day := range shape.Days {
		timetable[day] = make([][]Event, shape.SlotsPerDay)
		for slot := range shape.SlotsPerDay {
			events := make([]Event, 0)
			if slot == shape.LunchSlot {
				events = append(events, Event{Event: LunchBreak})
			}
			for _, pair := range input.Pairs {
				for room := range input.Classrooms {
					if !occupied(pair.Id, room, day, slot) {
						continue
					}
					subject := input.Subjects[pair.Subject]
					events = append(events, Event{
						Subject:     subject.Name,
						SubjectCode: subject.Code,
						Teacher:     input.Teachers[pair.Teacher].Name,
						Classroom:   input.Classrooms[room].Name,
					})
				}
			}
			timetable[day][slot] = events
		}
	}
	return timetable
}
