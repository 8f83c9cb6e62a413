package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminlms/assessment-engine/internal/model"
)

// AttemptResult joins a closed submission with its graded outcome for the
// reporting endpoints.
type AttemptResult struct {
	SubmissionID uuid.UUID              `json:"submission_id"`
	UserID       uuid.UUID              `json:"user_id"`
	Status       model.SubmissionStatus `json:"status"`
	NetMark      *float64               `json:"net_mark"`
	Percentage   *float64               `json:"percentage"`
	Passed       *bool                  `json:"passed"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   *time.Time             `json:"finished_at"`
}

// ResultRepository handles graded result data access. Results are write-once;
// the unique constraint on submission_id backs the idempotent re-submit.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// Create inserts the result for a submission. A concurrent duplicate write
// loses to the unique constraint and the stored row is returned instead, so
// every caller observes the same Result.
func (r *ResultRepository) Create(ctx context.Context, res *model.Result) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO results (submission_id, total_mark, negative_mark, net_mark, max_mark, percentage, passed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (submission_id) DO NOTHING
		 RETURNING id, created_at`,
		res.SubmissionID, res.TotalMark, res.NegativeMark, res.NetMark,
		res.MaxMark, res.Percentage, res.Passed,
	).Scan(&res.ID, &res.CreatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("insert result: %w", err)
	}

	stored, err := r.GetBySubmission(ctx, res.SubmissionID)
	if err != nil {
		return fmt.Errorf("fetch existing result: %w", err)
	}
	*res = *stored
	return nil
}

// GetBySubmission retrieves the result of a closed submission.
func (r *ResultRepository) GetBySubmission(ctx context.Context, submissionID uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, submission_id, total_mark, negative_mark, net_mark, max_mark, percentage, passed, created_at
		 FROM results
		 WHERE submission_id = $1`, submissionID,
	).Scan(&res.ID, &res.SubmissionID, &res.TotalMark, &res.NegativeMark, &res.NetMark,
		&res.MaxMark, &res.Percentage, &res.Passed, &res.CreatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByAssessment retrieves paginated attempt outcomes for an assessment.
func (r *ResultRepository) ListByAssessment(ctx context.Context, assessmentID uuid.UUID, page, perPage int) ([]AttemptResult, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM submissions s
		 WHERE s.assessment_id = $1 AND s.status IN ('SUBMITTED', 'EXPIRED')`,
		assessmentID,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.user_id, s.status, r.net_mark, r.percentage, r.passed, s.started_at, s.finished_at
		 FROM submissions s
		 LEFT JOIN results r ON r.submission_id = s.id
		 WHERE s.assessment_id = $1 AND s.status IN ('SUBMITTED', 'EXPIRED')
		 ORDER BY s.started_at DESC
		 LIMIT $2 OFFSET $3`,
		assessmentID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []AttemptResult
	for rows.Next() {
		var ar AttemptResult
		if err := rows.Scan(&ar.SubmissionID, &ar.UserID, &ar.Status, &ar.NetMark,
			&ar.Percentage, &ar.Passed, &ar.StartedAt, &ar.FinishedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, ar)
	}
	return results, total, rows.Err()
}
