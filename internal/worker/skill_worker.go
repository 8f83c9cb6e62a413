package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/luminlms/assessment-engine/internal/config"
	"github.com/luminlms/assessment-engine/internal/service"
)

const (
	SkillBatchSize    = 50
	SkillBatchTimeout = 2 * time.Second
	SkillPollTimeout  = 1 * time.Second
)

// SkillWorker consumes skill_aggregate_queue and turns graded skill-based
// attempts into skill attainments. Aggregation is idempotent (attainment is
// monotonic), so a requeued task can never double-grant.
type SkillWorker struct {
	skills *service.SkillService
	rdb    *redis.Client
	log    zerolog.Logger
}

// NewSkillWorker creates a new SkillWorker.
func NewSkillWorker(skills *service.SkillService, rdb *redis.Client, log zerolog.Logger) *SkillWorker {
	return &SkillWorker{
		skills: skills,
		rdb:    rdb,
		log:    log.With().Str("component", "skill_worker").Logger(),
	}
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *SkillWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SkillWorker started")

	batch := make([]*service.SkillAggregateTask, 0, SkillBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= SkillBatchSize || time.Since(lastFlush) >= SkillBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, SkillPollTimeout, config.WorkerKey.SkillAggregateQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var t service.SkillAggregateTask
			if err := json.Unmarshal([]byte(item[1]), &t); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &t)
		}
	}
}

func (w *SkillWorker) flushSafe(ctx context.Context, batch []*service.SkillAggregateTask) {
	if len(batch) == 0 {
		return
	}

	for _, t := range batch {
		granted, err := w.skills.Aggregate(ctx, *t)
		if err != nil {
			w.log.Error().Err(err).
				Str("submission_id", t.SubmissionID.String()).
				Msg("Aggregation failed, requeueing")
			raw, _ := json.Marshal(t)
			w.rdb.RPush(ctx, config.WorkerKey.SkillAggregateQueue, raw)
			continue
		}
		if len(granted) > 0 {
			w.log.Info().
				Str("user_id", t.UserID.String()).
				Int("granted", len(granted)).
				Msg("skills granted")
		}
	}
}
