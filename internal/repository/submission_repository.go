package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminlms/assessment-engine/internal/model"
)

// Sentinel errors surfaced by the atomic attempt-start transaction.
var (
	// ErrRetakeExhausted: the closed-attempt count already reached the limit.
	ErrRetakeExhausted = errors.New("attempt limit reached for this assessment")
	// ErrOpenSessionExists: another OPEN submission won the create race.
	ErrOpenSessionExists = errors.New("an open submission already exists for this user and assessment")
)

// SubmissionRepository handles exam attempt data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// StartAttempt atomically checks the retake budget and creates the OPEN
// submission. The check and the insert are serialized per (assessment, user)
// with an advisory transaction lock so two concurrent starts cannot both
// read a stale attempt count; the partial unique index on OPEN rows catches
// any race the lock does not.
// attemptLimit <= 0 means unlimited attempts.
func (r *SubmissionRepository) StartAttempt(ctx context.Context, sub *model.Submission, attemptLimit int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`,
		sub.AssessmentID.String(), sub.UserID.String())
	if err != nil {
		return fmt.Errorf("acquire attempt lock: %w", err)
	}

	if attemptLimit > 0 {
		var closed int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM submissions
			 WHERE assessment_id = $1 AND user_id = $2
			   AND status IN ('SUBMITTED', 'EXPIRED')`,
			sub.AssessmentID, sub.UserID,
		).Scan(&closed)
		if err != nil {
			return fmt.Errorf("count closed attempts: %w", err)
		}
		if closed >= attemptLimit {
			return ErrRetakeExhausted
		}
	}

	orderJSON, err := json.Marshal(sub.QuestionOrder)
	if err != nil {
		return fmt.Errorf("marshal question order: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO submissions (assessment_id, user_id, status, deadline, question_order)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (assessment_id, user_id) WHERE status = 'OPEN' DO NOTHING
		 RETURNING id, started_at`,
		sub.AssessmentID, sub.UserID, model.SubmissionStatusOpen, sub.Deadline, orderJSON,
	).Scan(&sub.ID, &sub.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOpenSessionExists
		}
		return fmt.Errorf("create submission: %w", err)
	}

	sub.Status = model.SubmissionStatusOpen
	return tx.Commit(ctx)
}

// CountClosed counts the attempts that consume retake budget, meaning
// SUBMITTED and EXPIRED rows. ERRORED attempts are excluded.
func (r *SubmissionRepository) CountClosed(ctx context.Context, assessmentID, userID uuid.UUID) (int, error) {
	var closed int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions
		 WHERE assessment_id = $1 AND user_id = $2
		   AND status IN ('SUBMITTED', 'EXPIRED')`,
		assessmentID, userID,
	).Scan(&closed)
	return closed, err
}

// GetByID retrieves a submission.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	s := &model.Submission{}
	var orderJSON []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, assessment_id, user_id, started_at, finished_at, deadline, status,
		        question_order, is_submission_error, submission_error_message
		 FROM submissions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.AssessmentID, &s.UserID, &s.StartedAt, &s.FinishedAt, &s.Deadline,
		&s.Status, &orderJSON, &s.IsSubmissionError, &s.SubmissionErrorMessage)
	if err != nil {
		return nil, err
	}
	if len(orderJSON) > 0 {
		if err := json.Unmarshal(orderJSON, &s.QuestionOrder); err != nil {
			return nil, fmt.Errorf("unmarshal question order: %w", err)
		}
	}
	return s, nil
}

// Close transitions an OPEN submission to the given terminal status. The
// WHERE guard on status makes closure single-shot even under a re-submit
// race; callers detect the no-op via the returned flag.
func (r *SubmissionRepository) Close(ctx context.Context, id uuid.UUID, status model.SubmissionStatus, finishedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET status = $1, finished_at = $2
		 WHERE id = $3 AND status = 'OPEN'`,
		status, finishedAt, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// MarkErrored records an unrecoverable fault on the submission. Errored
// attempts never count against the retake budget.
func (r *SubmissionRepository) MarkErrored(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE submissions
		 SET status = $1, finished_at = NOW(),
		     is_submission_error = TRUE, submission_error_message = $2
		 WHERE id = $3 AND status = 'OPEN'`,
		model.SubmissionStatusErrored, message, id)
	return err
}

// ListOpenByAssessment retrieves all OPEN submissions for an assessment,
// used by the proctor monitor stream.
func (r *SubmissionRepository) ListOpenByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, assessment_id, user_id, started_at, finished_at, deadline, status,
		        question_order, is_submission_error, submission_error_message
		 FROM submissions
		 WHERE assessment_id = $1 AND status = 'OPEN'
		 ORDER BY started_at`, assessmentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		var orderJSON []byte
		if err := rows.Scan(&s.ID, &s.AssessmentID, &s.UserID, &s.StartedAt, &s.FinishedAt,
			&s.Deadline, &s.Status, &orderJSON, &s.IsSubmissionError, &s.SubmissionErrorMessage); err != nil {
			return nil, err
		}
		if len(orderJSON) > 0 {
			if err := json.Unmarshal(orderJSON, &s.QuestionOrder); err != nil {
				return nil, fmt.Errorf("unmarshal question order: %w", err)
			}
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// UpsertAnswer persists one buffered answer. Last write wins per question.
func (r *SubmissionRepository) UpsertAnswer(ctx context.Context, a *model.SubmissionAnswer) error {
	selectedJSON, err := json.Marshal(a.SelectedOptionIDs)
	if err != nil {
		return fmt.Errorf("marshal selected options: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO submission_answers (submission_id, question_id, selected_option_ids, free_text)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (submission_id, question_id) DO UPDATE
		 SET selected_option_ids = EXCLUDED.selected_option_ids,
		     free_text = EXCLUDED.free_text,
		     updated_at = NOW()`,
		a.SubmissionID, a.QuestionID, selectedJSON, a.FreeText,
	)
	return err
}

// SaveGradedAnswers bulk-upserts the final answer set with computed
// correctness flags, using UNNEST to write the whole attempt in one round trip.
func (r *SubmissionRepository) SaveGradedAnswers(ctx context.Context, answers []model.SubmissionAnswer) error {
	if len(answers) == 0 {
		return nil
	}

	n := len(answers)
	submissionIDs := make([]uuid.UUID, 0, n)
	questionIDs := make([]uuid.UUID, 0, n)
	selections := make([][]byte, 0, n)
	freeTexts := make([]string, 0, n)
	corrects := make([]*bool, 0, n)

	for i := range answers {
		selectedJSON, err := json.Marshal(answers[i].SelectedOptionIDs)
		if err != nil {
			return fmt.Errorf("marshal selected options: %w", err)
		}
		submissionIDs = append(submissionIDs, answers[i].SubmissionID)
		questionIDs = append(questionIDs, answers[i].QuestionID)
		selections = append(selections, selectedJSON)
		freeTexts = append(freeTexts, answers[i].FreeText)
		corrects = append(corrects, answers[i].IsCorrect)
	}

	query := `
		INSERT INTO submission_answers (submission_id, question_id, selected_option_ids, free_text, is_correct)
		SELECT u.submission_id, u.question_id, u.selected, u.free_text, u.is_correct
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::jsonb[],
			$4::text[],
			$5::bool[]
		) AS u (submission_id, question_id, selected, free_text, is_correct)
		ON CONFLICT (submission_id, question_id) DO UPDATE
		SET selected_option_ids = EXCLUDED.selected_option_ids,
		    free_text = EXCLUDED.free_text,
		    is_correct = EXCLUDED.is_correct,
		    updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, submissionIDs, questionIDs, selections, freeTexts, corrects)
	return err
}

// ListAnswers retrieves the persisted answers of a submission.
func (r *SubmissionRepository) ListAnswers(ctx context.Context, submissionID uuid.UUID) ([]model.SubmissionAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT submission_id, question_id, selected_option_ids, free_text, is_correct
		 FROM submission_answers
		 WHERE submission_id = $1
		 ORDER BY question_id`, submissionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.SubmissionAnswer
	for rows.Next() {
		var a model.SubmissionAnswer
		var selectedJSON []byte
		if err := rows.Scan(&a.SubmissionID, &a.QuestionID, &selectedJSON, &a.FreeText, &a.IsCorrect); err != nil {
			return nil, err
		}
		if len(selectedJSON) > 0 {
			if err := json.Unmarshal(selectedJSON, &a.SelectedOptionIDs); err != nil {
				return nil, fmt.Errorf("unmarshal selected options: %w", err)
			}
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
