package model

import "github.com/samber/lo"

// Pair is an eligible (subject, teacher) combination. Only pairs get decision variables.
type Pair struct {
	Id      int
	Subject int
	Teacher int
}

// ModelInput is a validated, index-based view of a Request.
type ModelInput struct {
	Shape      Shape
	Subjects   []Subject
	Teachers   []Teacher
	Classrooms []Classroom
	Pairs      []Pair
	PairMode   bool

	pairsBySubject [][]int
	pairsByTeacher [][]int
}

func newModelInput(shape Shape, subjects []Subject, teachers []Teacher, classrooms []Classroom, pairs []Pair, pairMode bool) ModelInput {
	input := ModelInput{
		Shape:          shape,
		Subjects:       subjects,
		Teachers:       teachers,
		Classrooms:     classrooms,
		Pairs:          pairs,
		PairMode:       pairMode,
		pairsBySubject: make([][]int, len(subjects)),
		pairsByTeacher: make([][]int, len(teachers)),
	}
	for _, pair := range pairs {
		input.pairsBySubject[pair.Subject] = append(input.pairsBySubject[pair.Subject], pair.Id)
		input.pairsByTeacher[pair.Teacher] = append(input.pairsByTeacher[pair.Teacher], pair.Id)
	}
	return input
}

// openPairs makes every teacher eligible for every subject, subject-major.
func openPairs(subjects, teachers int) []Pair {
	pairs := make([]Pair, 0, subjects*teachers)
	for subject := range subjects {
		for teacher := range teachers {
			pairs = append(pairs, Pair{Id: len(pairs), Subject: subject, Teacher: teacher})
		}
	}
	return pairs
}

// boundPairs yields one pair per subject for its bound teacher.
func boundPairs(teacherOf []int) []Pair {
	return lo.Map(teacherOf, func(teacher int, subject int) Pair {
		return Pair{Id: subject, Subject: subject, Teacher: teacher}
	})
}

func (input ModelInput) PairsOfSubject(subject int) []int { return input.pairsBySubject[subject] }
func (input ModelInput) PairsOfTeacher(teacher int) []int { return input.pairsByTeacher[teacher] }

func (input ModelInput) TotalLectures() int {
	return lo.SumBy(input.Subjects, func(subject Subject) int { return subject.LecturesPerWeek })
}

// TeacherLoad is the number of lectures a teacher must give when every subject
// they are eligible for has no other teacher.
func (input ModelInput) TeacherLoad(teacher int) int {
	return lo.SumBy(input.pairsByTeacher[teacher], func(pair int) int {
		subject := input.Pairs[pair].Subject
		if len(input.pairsBySubject[subject]) != 1 {
			return 0
		}
		return input.Subjects[subject].LecturesPerWeek
	})
}
