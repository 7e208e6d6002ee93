package dto

import "github.com/limaJavier/timetabler/pkg/model"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// GenerateRequest is the POST /generate body: either subjects with teachers, or
// subject_teacher_pairs. Classrooms are always required.
type GenerateRequest = model.Request

type GenerateResponse struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	Timetable  model.Timetable `json:"timetable"`
	Advisories []string        `json:"advisories,omitempty"`
	SolveID    string          `json:"solve_id,omitempty"`
}

// ErrorResponse carries details and advisories only for failures that happened after a solve.
type ErrorResponse struct {
	Status     string   `json:"status"`
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Details    any      `json:"details,omitempty"`
	Advisories []string `json:"advisories,omitempty"`
}

type ExportQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=csv pdf"`
}

// ExportResult is a rendered timetable ready to be written as an attachment.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}
