package model

import (
	"github.com/google/uuid"
)

// CriterionType enumerates the kinds of eligibility criteria that may gate
// access to an assessment.
type CriterionType string

const (
	CriterionSkill               CriterionType = "SKILL"
	CriterionRole                CriterionType = "ROLE"
	CriterionDepartment          CriterionType = "DEPARTMENT"
	CriterionGroup               CriterionType = "GROUP"
	CriterionCompletedTraining   CriterionType = "COMPLETED_TRAINING"
	CriterionCompletedAssessment CriterionType = "COMPLETED_ASSESSMENT"
)

// EligibilityCriterion is one precondition gating exam access, modeled as a
// tagged variant: Type selects the dispatch arm, Target carries the value.
// Target holds the role name for ROLE criteria and the entity UUID string
// for every other type.
type EligibilityCriterion struct {
	ID           uuid.UUID     `json:"id"`
	AssessmentID uuid.UUID     `json:"assessment_id"`
	Type         CriterionType `json:"type"`
	Target       string        `json:"target"`
}

// ComparisonRule enumerates the comparison directions of a skill criterion.
type ComparisonRule string

const (
	RuleGreaterThan ComparisonRule = "GREATER_THAN"
	RuleLessThan    ComparisonRule = "LESS_THAN"
)

// SkillCriterion maps assessment performance to skill attainment: the
// attempt percentage is compared against ThresholdPercent using Rule.
type SkillCriterion struct {
	ID               uuid.UUID      `json:"id"`
	AssessmentID     uuid.UUID      `json:"assessment_id"`
	SkillID          uuid.UUID      `json:"skill_id"`
	Rule             ComparisonRule `json:"rule"`
	ThresholdPercent float64        `json:"threshold_percent"`
}

// Satisfied reports whether the given attempt percentage meets the criterion.
func (c SkillCriterion) Satisfied(percent float64) bool {
	switch c.Rule {
	case RuleGreaterThan:
		return percent > c.ThresholdPercent
	case RuleLessThan:
		return percent < c.ThresholdPercent
	default:
		return false
	}
}
