package model

import (
	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTypeFreeText       QuestionType = "FREE_TEXT"
)

// Option is one selectable answer of a choice question. Option order is
// stable; the selector never reorders options within a question.
type Option struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	IsCorrect  bool      `json:"is_correct"`
	OrderNum   int       `json:"order_num"`
}

// Question is one question of an assessment's pool.
type Question struct {
	ID           uuid.UUID    `json:"id"`
	AssessmentID uuid.UUID    `json:"assessment_id"`
	Text         string       `json:"text"`
	Type         QuestionType `json:"type"`
	Weight       float64      `json:"weight"`
	OrderNum     int          `json:"order_num"`
	Options      []Option     `json:"options"`
}

// AutoGradable reports whether the question participates in automatic
// correctness computation. Free-text answers are persisted but reviewed
// manually outside this service.
func (q *Question) AutoGradable() bool {
	return q.Type == QuestionTypeSingleChoice || q.Type == QuestionTypeMultipleChoice
}

// CorrectOptionIDs returns the set of option IDs flagged correct.
func (q *Question) CorrectOptionIDs() map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{})
	for _, o := range q.Options {
		if o.IsCorrect {
			set[o.ID] = struct{}{}
		}
	}
	return set
}

// CandidateOption is an option stripped of its correctness flag, safe to
// send to an exam taker.
type CandidateOption struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	OrderNum int       `json:"order_num"`
}

// CandidateQuestion is a question as delivered to an exam taker.
type CandidateQuestion struct {
	ID      uuid.UUID         `json:"id"`
	Text    string            `json:"text"`
	Type    QuestionType      `json:"type"`
	Weight  float64           `json:"weight"`
	Options []CandidateOption `json:"options"`
}

// ForCandidate converts a question to its taker-facing shape.
func (q *Question) ForCandidate() CandidateQuestion {
	opts := make([]CandidateOption, len(q.Options))
	for i, o := range q.Options {
		opts[i] = CandidateOption{ID: o.ID, Text: o.Text, OrderNum: o.OrderNum}
	}
	return CandidateQuestion{
		ID:      q.ID,
		Text:    q.Text,
		Type:    q.Type,
		Weight:  q.Weight,
		Options: opts,
	}
}
