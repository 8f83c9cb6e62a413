package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/luminlms/assessment-engine/internal/model"
	"github.com/luminlms/assessment-engine/internal/repository"
)

// Lifecycle and publish-validation failures.
var (
	ErrNoQuestions          = errors.New("assessment has no questions")
	ErrInvalidStatusChange  = errors.New("invalid assessment status transition")
	ErrMissingCorrectOption = errors.New("choice question has no correct option")
)

type assessmentAdminStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error)
	GetGradingParts(ctx context.Context, id uuid.UUID) (*float64, []model.SkillCriterion, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.AssessmentStatus) error
}

type attemptResultLister interface {
	ListByAssessment(ctx context.Context, assessmentID uuid.UUID, page, perPage int) ([]repository.AttemptResult, int64, error)
}

// AssessmentService owns the assessment lifecycle. Publishing runs the full
// configuration validation; an assessment that passed it can always open
// sessions without hitting a configuration fault.
type AssessmentService struct {
	assessments assessmentAdminStore
	questions   questionStore
	results     attemptResultLister
	logger      zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(assessments assessmentAdminStore, questions questionStore, results attemptResultLister) *AssessmentService {
	return &AssessmentService{
		assessments: assessments,
		questions:   questions,
		results:     results,
		logger:      log.With().Str("component", "assessment_service").Logger(),
	}
}

// GetByID retrieves one assessment.
func (s *AssessmentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	a, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return a, nil
}

// Publish validates the assessment configuration and transitions it to
// PUBLISHED. Validation covers grading mode exclusivity, sample size versus
// pool size, and correct-option presence on every choice question.
func (s *AssessmentService) Publish(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AssessmentStatusDraft && a.Status != model.AssessmentStatusReview {
		return nil, ErrInvalidStatusChange
	}

	passPercentage, skillCriteria, err := s.assessments.GetGradingParts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get grading configuration: %w", err)
	}
	grading, err := model.NewGradingMode(passPercentage, skillCriteria)
	if err != nil {
		return nil, err
	}

	pool, err := s.questions.ListByAssessment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if err := validateQuestionSet(a.QuestionSet, pool); err != nil {
		return nil, err
	}

	if err := s.assessments.UpdateStatus(ctx, id, model.AssessmentStatusPublished); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	a.Status = model.AssessmentStatusPublished
	a.Grading = grading

	s.logger.Info().Str("assessment_id", id.String()).Msg("assessment published")
	return a, nil
}

// Reject transitions a DRAFT or REVIEW assessment to REJECTED.
func (s *AssessmentService) Reject(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	return s.transition(ctx, id, model.AssessmentStatusRejected,
		model.AssessmentStatusDraft, model.AssessmentStatusReview)
}

// Complete transitions a PUBLISHED assessment to COMPLETED, after which no
// new sessions may start. Open sessions keep running until their deadline.
func (s *AssessmentService) Complete(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	return s.transition(ctx, id, model.AssessmentStatusCompleted, model.AssessmentStatusPublished)
}

// Results returns paginated attempt outcomes for an assessment.
func (s *AssessmentService) Results(ctx context.Context, id uuid.UUID, page, perPage int) ([]repository.AttemptResult, int64, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.results.ListByAssessment(ctx, id, page, perPage)
}

func (s *AssessmentService) transition(ctx context.Context, id uuid.UUID, to model.AssessmentStatus, from ...model.AssessmentStatus) (*model.Assessment, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, f := range from {
		if a.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidStatusChange
	}

	if err := s.assessments.UpdateStatus(ctx, id, to); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	a.Status = to

	s.logger.Info().
		Str("assessment_id", id.String()).
		Str("status", string(to)).
		Msg("assessment status changed")
	return a, nil
}

// validateQuestionSet checks the question pool against the selection
// configuration using the same rules the selector applies at session start.
func validateQuestionSet(cfg model.QuestionSetConfig, pool []model.Question) error {
	if len(pool) == 0 {
		return ErrNoQuestions
	}
	if !cfg.ShowAll {
		if cfg.NoOfQuestion <= 0 {
			return ErrInvalidSampleSize
		}
		if len(pool) < cfg.NoOfQuestion {
			return ErrPoolTooSmall
		}
	}
	for _, q := range pool {
		if q.AutoGradable() && len(q.CorrectOptionIDs()) == 0 {
			return fmt.Errorf("%w: question %s", ErrMissingCorrectOption, q.ID)
		}
	}
	return nil
}
