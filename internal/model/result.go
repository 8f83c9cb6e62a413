package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the graded outcome of one closed submission. It is written
// exactly once, at closure, and never mutated afterwards.
type Result struct {
	ID           uuid.UUID `json:"id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	TotalMark    float64   `json:"total_mark"`
	NegativeMark float64   `json:"negative_mark"`
	NetMark      float64   `json:"net_mark"`
	MaxMark      float64   `json:"max_mark"`
	Percentage   float64   `json:"percentage"`
	// Passed is nil for skill-based assessments, where pass/fail is decided
	// per skill criterion by the aggregator instead.
	Passed    *bool     `json:"passed"`
	CreatedAt time.Time `json:"created_at"`
}
