package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus enumerates the states of one exam attempt.
// OPEN is the only non-terminal state.
type SubmissionStatus string

const (
	SubmissionStatusOpen      SubmissionStatus = "OPEN"
	SubmissionStatusSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionStatusExpired   SubmissionStatus = "EXPIRED"
	SubmissionStatusErrored   SubmissionStatus = "ERRORED"
)

// Submission is one user's single timed attempt at an assessment.
// Immutable once closed.
type Submission struct {
	ID           uuid.UUID        `json:"id"`
	AssessmentID uuid.UUID        `json:"assessment_id"`
	UserID       uuid.UUID        `json:"user_id"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   *time.Time       `json:"finished_at,omitempty"`
	Deadline     time.Time        `json:"deadline"`
	Status       SubmissionStatus `json:"status"`
	// QuestionOrder pins the selected question list for this attempt so a
	// shuffled paper grades against the same set it was served with.
	QuestionOrder          []uuid.UUID `json:"question_order"`
	IsSubmissionError      bool        `json:"is_submission_error"`
	SubmissionErrorMessage string      `json:"submission_error_message,omitempty"`
}

// Closed reports whether the submission has left the OPEN state.
func (s *Submission) Closed() bool {
	return s.Status != SubmissionStatusOpen
}

// PastDeadline reports whether the attempt's time budget has run out.
func (s *Submission) PastDeadline(now time.Time) bool {
	return now.After(s.Deadline)
}

// AnswerInput is one answer as supplied by the taker, either buffered
// incrementally while the session is open or batched at submit time.
type AnswerInput struct {
	QuestionID        uuid.UUID   `json:"question_id" binding:"required"`
	SelectedOptionIDs []uuid.UUID `json:"selected_option_ids,omitempty"`
	FreeText          string      `json:"free_text,omitempty"`
}

// Answered reports whether the input actually carries an answer. An empty
// input is treated as unanswered and is never penalized.
func (a AnswerInput) Answered() bool {
	return len(a.SelectedOptionIDs) > 0 || a.FreeText != ""
}

// SubmissionAnswer is the persisted, graded form of one answer.
// IsCorrect stays nil for answers excluded from automatic grading
// (free text, unanswered).
type SubmissionAnswer struct {
	SubmissionID      uuid.UUID   `json:"submission_id"`
	QuestionID        uuid.UUID   `json:"question_id"`
	SelectedOptionIDs []uuid.UUID `json:"selected_option_ids,omitempty"`
	FreeText          string      `json:"free_text,omitempty"`
	IsCorrect         *bool       `json:"is_correct"`
}

// StartSessionRequest is the payload for starting a new exam attempt.
type StartSessionRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// SaveAnswerRequest is the payload for buffering one answer on an open
// session. Last write per question wins.
type SaveAnswerRequest struct {
	Answer AnswerInput `json:"answer" binding:"required"`
}

// SubmitSessionRequest is the payload for closing a session. Answers given
// here are merged over the buffered ones, batch winning per question.
type SubmitSessionRequest struct {
	Answers []AnswerInput `json:"answers" binding:"omitempty,dive"`
}
