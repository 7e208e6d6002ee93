package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

type Subject struct {
	Name            string `json:"name" validate:"required"`
	Code            string `json:"code" validate:"required"`
	LecturesPerWeek int    `json:"lectures_per_week" validate:"gte=1"`
}

type Teacher struct {
	Name string `json:"name" validate:"required"`
}

type Classroom struct {
	Name     string `json:"name" validate:"required"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

// SubjectTeacherPair binds a subject to the only teacher allowed to teach it.
type SubjectTeacherPair struct {
	Subject Subject `json:"subject"`
	Teacher Teacher `json:"teacher"`
}

// Request is a timetable generation request. It is in pair mode when
// SubjectTeacherPairs is present, otherwise in open mode where every teacher
// may teach every subject.
type Request struct {
	Subjects            []Subject            `json:"subjects,omitempty"`
	Teachers            []Teacher            `json:"teachers,omitempty"`
	Classrooms          []Classroom          `json:"classrooms"`
	SubjectTeacherPairs []SubjectTeacherPair `json:"subject_teacher_pairs,omitempty"`
}

func (request Request) PairMode() bool {
	return request.SubjectTeacherPairs != nil
}

// RequestFromMap decodes a generic JSON object, rejecting unknown fields.
func RequestFromMap(raw map[string]any) (Request, error) {
	var request Request
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		ErrorUnused: true,
		DecodeHook:  integralNumbers,
		Result:      &request,
	})
	if err != nil {
		return Request{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Request{}, fmt.Errorf("cannot decode request: %w", err)
	}
	return request, nil
}

// integralNumbers refuses JSON numbers with a fractional part for integer fields,
// which mapstructure would otherwise truncate.
func integralNumbers(from reflect.Kind, to reflect.Kind, data any) (any, error) {
	if from != reflect.Float32 && from != reflect.Float64 {
		return data, nil
	}
	switch to {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	value := reflect.ValueOf(data).Float()
	if value != math.Trunc(value) {
		return nil, fmt.Errorf("expected an integer, got %v", value)
	}
	return data, nil
}

func RequestFromJson(file string) (Request, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Request{}, fmt.Errorf("cannot read input file: %w", err)
	}
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Request{}, fmt.Errorf("cannot parse input file: %w", err)
	}
	return RequestFromMap(inputJson)
}
