package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/luminlms/assessment-engine/internal/config"
)

// SkillAggregateTask is one graded skill-based attempt awaiting aggregation.
type SkillAggregateTask struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	AssessmentID uuid.UUID `json:"assessment_id"`
	UserID       uuid.UUID `json:"user_id"`
	Percentage   float64   `json:"percentage"`
}

// RedisSkillQueue feeds the skill aggregation worker over a Redis list.
type RedisSkillQueue struct {
	rdb *redis.Client
}

// NewRedisSkillQueue creates a new RedisSkillQueue.
func NewRedisSkillQueue(rdb *redis.Client) *RedisSkillQueue {
	return &RedisSkillQueue{rdb: rdb}
}

// Enqueue pushes a task onto the aggregation queue.
func (q *RedisSkillQueue) Enqueue(ctx context.Context, task SkillAggregateTask) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal skill task: %w", err)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.SkillAggregateQueue, raw).Err()
}
