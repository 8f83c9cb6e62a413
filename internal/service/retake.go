package service

import (
	"github.com/luminlms/assessment-engine/internal/model"
)

// RetakePolicy decides whether a user may start another attempt. The write
// path re-evaluates the same rule inside the attempt-start transaction; this
// read-path form backs the pre-flight report.
type RetakePolicy struct{}

// MayAttempt reports whether another attempt is allowed given the number of
// closed, non-errored submissions. Retake = 0 means unlimited; otherwise the
// budget is the original attempt plus Retake re-attempts.
func (RetakePolicy) MayAttempt(a *model.Assessment, closedAttempts int) bool {
	limit := a.AttemptLimit()
	return limit == 0 || closedAttempts < limit
}

// RetakeStanding reports a user's attempt budget on one assessment.
// AttemptLimit 0 means unlimited.
type RetakeStanding struct {
	AttemptsUsed int  `json:"attempts_used"`
	AttemptLimit int  `json:"attempt_limit"`
	MayAttempt   bool `json:"may_attempt"`
}
