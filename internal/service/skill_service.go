package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/luminlms/assessment-engine/internal/model"
)

type skillCriteriaLister interface {
	ListSkillCriteria(ctx context.Context, assessmentID uuid.UUID) ([]model.SkillCriterion, error)
}

type attainmentStore interface {
	RecordAttainment(ctx context.Context, a *model.SkillAttainment) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SkillAttainment, error)
}

// SkillService turns graded skill-based attempts into skill attainments.
// Attainment is monotonic: once granted, a skill is never revoked by a later
// attempt, and re-satisfying a criterion keeps the original evidence.
type SkillService struct {
	criteria    skillCriteriaLister
	attainments attainmentStore
	logger      zerolog.Logger
}

// NewSkillService creates a new SkillService.
func NewSkillService(criteria skillCriteriaLister, attainments attainmentStore) *SkillService {
	return &SkillService{
		criteria:    criteria,
		attainments: attainments,
		logger:      log.With().Str("component", "skill_service").Logger(),
	}
}

// Aggregate evaluates every skill criterion of the assessment against the
// attempt percentage and records an attainment per satisfied criterion.
// Returns the attainments newly granted by this attempt.
func (s *SkillService) Aggregate(ctx context.Context, task SkillAggregateTask) ([]model.SkillAttainment, error) {
	criteria, err := s.criteria.ListSkillCriteria(ctx, task.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("list skill criteria: %w", err)
	}

	var granted []model.SkillAttainment
	for _, c := range criteria {
		if !c.Satisfied(task.Percentage) {
			continue
		}
		attainment := model.SkillAttainment{
			UserID:               task.UserID,
			SkillID:              c.SkillID,
			EvidenceSubmissionID: task.SubmissionID,
		}
		created, err := s.attainments.RecordAttainment(ctx, &attainment)
		if err != nil {
			return granted, fmt.Errorf("record attainment for skill %s: %w", c.SkillID, err)
		}
		if created {
			granted = append(granted, attainment)
			s.logger.Info().
				Str("user_id", task.UserID.String()).
				Str("skill_id", c.SkillID.String()).
				Str("submission_id", task.SubmissionID.String()).
				Msg("skill attained")
		}
	}
	return granted, nil
}

// ListByUser returns all skills a user has attained through assessments.
func (s *SkillService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SkillAttainment, error) {
	return s.attainments.ListByUser(ctx, userID)
}
