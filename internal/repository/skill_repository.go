package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminlms/assessment-engine/internal/model"
)

// SkillRepository handles skill attainment data access.
type SkillRepository struct {
	pool *pgxpool.Pool
}

// NewSkillRepository creates a new SkillRepository.
func NewSkillRepository(pool *pgxpool.Pool) *SkillRepository {
	return &SkillRepository{pool: pool}
}

// RecordAttainment inserts a skill attainment. Attainment is monotonic: a
// user who already holds the skill keeps the original evidence row, so a
// later, worse attempt can never revoke it. Returns true when the row was
// newly created.
func (r *SkillRepository) RecordAttainment(ctx context.Context, a *model.SkillAttainment) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO skill_attainments (user_id, skill_id, evidence_submission_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, skill_id) DO NOTHING`,
		a.UserID, a.SkillID, a.EvidenceSubmissionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListByUser retrieves all skills a user has attained.
func (r *SkillRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.SkillAttainment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, skill_id, evidence_submission_id, attained_at
		 FROM skill_attainments
		 WHERE user_id = $1
		 ORDER BY attained_at`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attainments []model.SkillAttainment
	for rows.Next() {
		var a model.SkillAttainment
		if err := rows.Scan(&a.UserID, &a.SkillID, &a.EvidenceSubmissionID, &a.AttainedAt); err != nil {
			return nil, err
		}
		attainments = append(attainments, a)
	}
	return attainments, rows.Err()
}
