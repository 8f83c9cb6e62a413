package model

import (
	"github.com/google/uuid"
)

// UserProfile carries the externally owned user attributes the engine needs
// for eligibility evaluation. The LMS owns these records; the engine only
// reads them.
type UserProfile struct {
	UserID               uuid.UUID   `json:"user_id"`
	Role                 string      `json:"role"`
	DepartmentID         uuid.UUID   `json:"department_id"`
	GroupIDs             []uuid.UUID `json:"group_ids"`
	SkillIDs             []uuid.UUID `json:"skill_ids"`
	CompletedTrainings   []uuid.UUID `json:"completed_trainings"`
	CompletedAssessments []uuid.UUID `json:"completed_assessments"`
}

// HasGroup reports membership of the given group.
func (p *UserProfile) HasGroup(id uuid.UUID) bool { return containsID(p.GroupIDs, id) }

// HasSkill reports ownership of the given skill.
func (p *UserProfile) HasSkill(id uuid.UUID) bool { return containsID(p.SkillIDs, id) }

// CompletedTraining reports a prior completion record for the training.
func (p *UserProfile) CompletedTraining(id uuid.UUID) bool {
	return containsID(p.CompletedTrainings, id)
}

// CompletedAssessment reports a prior completion record for the assessment.
func (p *UserProfile) CompletedAssessment(id uuid.UUID) bool {
	return containsID(p.CompletedAssessments, id)
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
