package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminlms/assessment-engine/internal/model"
)

// AssessmentRepository handles assessment configuration data access.
// Assessments are authored by the LMS admin UI; the engine reads them and
// owns only the lifecycle status column.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// GetByID retrieves an assessment with its eligibility criteria and grading
// mode. A draft without a complete grading configuration is returned with a
// zero (invalid) GradingMode; publish-time validation reports the precise
// configuration fault via GetGradingParts.
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error) {
	a := &model.Assessment{}
	var passPercentage *float64
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, start_date, end_date, duration_seconds, retake, weightage,
		        status, no_of_question, is_shuffle, show_all, negative_marking,
		        passing_weightage, clamp_negative_total, pass_percentage,
		        created_at, updated_at
		 FROM assessments
		 WHERE id = $1`, id,
	).Scan(
		&a.ID, &a.Title, &a.StartDate, &a.EndDate, &a.DurationSeconds, &a.Retake,
		&a.Weightage, &a.Status, &a.QuestionSet.NoOfQuestion, &a.QuestionSet.IsShuffle,
		&a.QuestionSet.ShowAll, &a.QuestionSet.NegativeMarking,
		&a.QuestionSet.PassingWeightage, &a.QuestionSet.ClampNegativeTotal,
		&passPercentage, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	criteria, err := r.listEligibilityCriteria(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Eligibility = criteria

	skillCriteria, err := r.ListSkillCriteria(ctx, id)
	if err != nil {
		return nil, err
	}

	if mode, err := model.NewGradingMode(passPercentage, skillCriteria); err == nil {
		a.Grading = mode
	}

	return a, nil
}

// GetGradingParts returns the raw persisted grading configuration so the
// publish validation can report exactly what is wrong with it.
func (r *AssessmentRepository) GetGradingParts(ctx context.Context, id uuid.UUID) (*float64, []model.SkillCriterion, error) {
	var passPercentage *float64
	err := r.pool.QueryRow(ctx,
		`SELECT pass_percentage FROM assessments WHERE id = $1`, id,
	).Scan(&passPercentage)
	if err != nil {
		return nil, nil, err
	}

	criteria, err := r.ListSkillCriteria(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return passPercentage, criteria, nil
}

// UpdateStatus transitions an assessment's lifecycle status.
func (r *AssessmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AssessmentStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assessments SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// ListSkillCriteria retrieves the skill criteria configured on an assessment.
func (r *AssessmentRepository) ListSkillCriteria(ctx context.Context, assessmentID uuid.UUID) ([]model.SkillCriterion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assessment_id, skill_id, rule, threshold_percent
		 FROM skill_criteria
		 WHERE assessment_id = $1
		 ORDER BY id`, assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var criteria []model.SkillCriterion
	for rows.Next() {
		var c model.SkillCriterion
		if err := rows.Scan(&c.ID, &c.AssessmentID, &c.SkillID, &c.Rule, &c.ThresholdPercent); err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
	}
	return criteria, rows.Err()
}

func (r *AssessmentRepository) listEligibilityCriteria(ctx context.Context, assessmentID uuid.UUID) ([]model.EligibilityCriterion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assessment_id, criterion_type, target
		 FROM eligibility_criteria
		 WHERE assessment_id = $1
		 ORDER BY id`, assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var criteria []model.EligibilityCriterion
	for rows.Next() {
		var c model.EligibilityCriterion
		if err := rows.Scan(&c.ID, &c.AssessmentID, &c.Type, &c.Target); err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
	}
	return criteria, rows.Err()
}
