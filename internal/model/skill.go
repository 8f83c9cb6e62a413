package model

import (
	"time"

	"github.com/google/uuid"
)

// SkillAttainment records that a user attained a skill, with the submission
// that provided the evidence. Attainment is monotonic: rows are inserted
// once and never revoked by later, worse attempts.
type SkillAttainment struct {
	UserID               uuid.UUID `json:"user_id"`
	SkillID              uuid.UUID `json:"skill_id"`
	EvidenceSubmissionID uuid.UUID `json:"evidence_submission_id"`
	AttainedAt           time.Time `json:"attained_at"`
}
