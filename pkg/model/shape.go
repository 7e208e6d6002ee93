package model

import "fmt"

// Shape is the week grid every timetable is laid on.
type Shape struct {
	Days           int `mapstructure:"days"`
	SlotsPerDay    int `mapstructure:"slots_per_day"`
	LunchSlot      int `mapstructure:"lunch_slot"`
	MaxConsecutive int `mapstructure:"max_consecutive"`
}

func DefaultShape() Shape {
	return Shape{
		Days:           5,
		SlotsPerDay:    8,
		LunchSlot:      4,
		MaxConsecutive: 2,
	}
}

func (shape Shape) Validate() error {
	switch {
	case shape.Days < 1:
		return fmt.Errorf("days must be positive, got %d", shape.Days)
	case shape.SlotsPerDay < 2:
		return fmt.Errorf("a day needs at least two slots, got %d", shape.SlotsPerDay)
	case shape.LunchSlot < 0 || shape.LunchSlot >= shape.SlotsPerDay:
		return fmt.Errorf("lunch slot %d is outside [0, %d)", shape.LunchSlot, shape.SlotsPerDay)
	case shape.MaxConsecutive < 1:
		return fmt.Errorf("max consecutive lectures must be positive, got %d", shape.MaxConsecutive)
	}
	return nil
}

// AvailableSlots is the number of teachable slots in a week.
func (shape Shape) AvailableSlots() int {
	return shape.Days * (shape.SlotsPerDay - 1)
}

// TeacherDailyCapacity is the most lectures one teacher can give in a day without
// exceeding the consecutive limit. Lunch splits the day into two runs.
func (shape Shape) TeacherDailyCapacity() int {
	run := func(length int) int {
		return length - length/(shape.MaxConsecutive+1)
	}
	return run(shape.LunchSlot) + run(shape.SlotsPerDay-shape.LunchSlot-1)
}

func (shape Shape) TeacherWeeklyCapacity() int {
	return shape.Days * shape.TeacherDailyCapacity()
}
