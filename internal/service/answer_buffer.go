package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/luminlms/assessment-engine/internal/config"
	"github.com/luminlms/assessment-engine/internal/model"
)

// bufferRetention keeps finalized session keys around briefly in case a
// concurrent finalizer still needs to read them, then lets them expire.
const bufferRetention = 24 * time.Hour

// RedisAnswerBuffer buffers open-session answers in a Redis hash keyed by
// question ID and mirrors every save onto the persistence worker queue.
type RedisAnswerBuffer struct {
	rdb *redis.Client
}

// NewRedisAnswerBuffer creates a new RedisAnswerBuffer.
func NewRedisAnswerBuffer(rdb *redis.Client) *RedisAnswerBuffer {
	return &RedisAnswerBuffer{rdb: rdb}
}

// Track registers a freshly opened session: its deadline for TTL bookkeeping
// and its membership in the assessment's open-session set for the monitor.
func (b *RedisAnswerBuffer) Track(ctx context.Context, sub *model.Submission) error {
	pipe := b.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SessionDeadlineKey(sub.ID.String()),
		sub.Deadline.Unix(), time.Until(sub.Deadline)+bufferRetention)
	pipe.SAdd(ctx, config.CacheKey.AssessmentOpenSessionsKey(sub.AssessmentID.String()), sub.ID.String())
	_, err := pipe.Exec(ctx)
	return err
}

// Save buffers one answer and enqueues it for database persistence.
func (b *RedisAnswerBuffer) Save(ctx context.Context, sessionID uuid.UUID, answer model.AnswerInput) error {
	raw, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	if err := b.rdb.HSet(ctx,
		config.CacheKey.SessionAnswersKey(sessionID.String()),
		answer.QuestionID.String(), raw).Err(); err != nil {
		return fmt.Errorf("buffer answer: %w", err)
	}

	task, err := json.Marshal(map[string]any{
		"session_id":          sessionID.String(),
		"question_id":         answer.QuestionID.String(),
		"selected_option_ids": answer.SelectedOptionIDs,
		"free_text":           answer.FreeText,
	})
	if err != nil {
		return fmt.Errorf("marshal persist task: %w", err)
	}
	return b.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, task).Err()
}

// All returns the buffered answers of a session keyed by question ID.
func (b *RedisAnswerBuffer) All(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]model.AnswerInput, error) {
	entries, err := b.rdb.HGetAll(ctx, config.CacheKey.SessionAnswersKey(sessionID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("read answer buffer: %w", err)
	}

	answers := make(map[uuid.UUID]model.AnswerInput, len(entries))
	for field, raw := range entries {
		var a model.AnswerInput
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("unmarshal buffered answer %s: %w", field, err)
		}
		answers[a.QuestionID] = a
	}
	return answers, nil
}

// Discard drops the session's buffer keys and monitor-set membership after
// finalization.
func (b *RedisAnswerBuffer) Discard(ctx context.Context, sub *model.Submission) error {
	pipe := b.rdb.Pipeline()
	pipe.Expire(ctx, config.CacheKey.SessionAnswersKey(sub.ID.String()), bufferRetention)
	pipe.Del(ctx, config.CacheKey.SessionDeadlineKey(sub.ID.String()))
	pipe.SRem(ctx, config.CacheKey.AssessmentOpenSessionsKey(sub.AssessmentID.String()), sub.ID.String())
	_, err := pipe.Exec(ctx)
	return err
}
