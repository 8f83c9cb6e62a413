package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/luminlms/assessment-engine/internal/model"
)

// CriterionOutcome is the per-criterion verdict of an eligibility check.
type CriterionOutcome struct {
	Criterion model.EligibilityCriterion `json:"criterion"`
	Satisfied bool                       `json:"satisfied"`
}

// EligibilityReport is the full verdict: overall eligibility plus the
// breakdown the UI uses to explain a refusal.
type EligibilityReport struct {
	Eligible bool               `json:"eligible"`
	Criteria []CriterionOutcome `json:"criteria"`
}

// profileDirectory supplies externally owned user attributes.
type profileDirectory interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error)
}

// EligibilityService evaluates assessment eligibility criteria against user
// attributes. Evaluation itself is pure; the service only adds the profile
// lookup.
type EligibilityService struct {
	directory profileDirectory
}

// NewEligibilityService creates a new EligibilityService.
func NewEligibilityService(directory profileDirectory) *EligibilityService {
	return &EligibilityService{directory: directory}
}

// Evaluate fetches the user's profile and evaluates the assessment's
// criteria against it.
func (s *EligibilityService) Evaluate(ctx context.Context, a *model.Assessment, userID uuid.UUID) (*EligibilityReport, error) {
	profile, err := s.directory.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return EvaluateCriteria(profile, a.Eligibility), nil
}

// EvaluateCriteria computes the eligibility report for a profile. With no
// criteria configured the user is eligible by default; otherwise overall
// eligibility is the conjunction of all criteria. There is no OR semantics.
func EvaluateCriteria(p *model.UserProfile, criteria []model.EligibilityCriterion) *EligibilityReport {
	report := &EligibilityReport{Eligible: true}

	for _, c := range criteria {
		satisfied := criterionSatisfied(p, c)
		report.Criteria = append(report.Criteria, CriterionOutcome{Criterion: c, Satisfied: satisfied})
		if !satisfied {
			report.Eligible = false
		}
	}
	return report
}

func criterionSatisfied(p *model.UserProfile, c model.EligibilityCriterion) bool {
	if c.Type == model.CriterionRole {
		return p.Role == c.Target
	}

	target, err := uuid.Parse(c.Target)
	if err != nil {
		// A malformed target can never match; publish validation is the
		// place that reports it.
		return false
	}

	switch c.Type {
	case model.CriterionSkill:
		return p.HasSkill(target)
	case model.CriterionDepartment:
		return p.DepartmentID == target
	case model.CriterionGroup:
		return p.HasGroup(target)
	case model.CriterionCompletedTraining:
		return p.CompletedTraining(target)
	case model.CriterionCompletedAssessment:
		return p.CompletedAssessment(target)
	default:
		return false
	}
}
