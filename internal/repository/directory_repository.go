package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminlms/assessment-engine/internal/model"
)

// DirectoryRepository reads user attributes from the LMS-owned tables the
// engine shares a database with. Everything here is read-only: users,
// groups, skills, and training completions are authored elsewhere.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository creates a new DirectoryRepository.
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// GetProfile assembles the eligibility-relevant attributes of one user.
// Completed assessments are derived from the engine's own closed submissions;
// the rest comes from the LMS schema.
func (r *DirectoryRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	p := &model.UserProfile{UserID: userID}

	err := r.pool.QueryRow(ctx,
		`SELECT role, department_id FROM users WHERE id = $1`, userID,
	).Scan(&p.Role, &p.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	p.GroupIDs, err = r.collectIDs(ctx,
		`SELECT group_id FROM user_groups WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	p.SkillIDs, err = r.collectIDs(ctx,
		`SELECT skill_id FROM user_skills WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}

	p.CompletedTrainings, err = r.collectIDs(ctx,
		`SELECT training_id FROM training_completions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list training completions: %w", err)
	}

	p.CompletedAssessments, err = r.collectIDs(ctx,
		`SELECT DISTINCT assessment_id FROM submissions
		 WHERE user_id = $1 AND status IN ('SUBMITTED', 'EXPIRED')`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assessment completions: %w", err)
	}

	return p, nil
}

func (r *DirectoryRepository) collectIDs(ctx context.Context, query string, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
