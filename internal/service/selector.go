package service

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/luminlms/assessment-engine/internal/model"
)

// Selection configuration errors. Both are validated at publish time and
// again at session start.
var (
	ErrPoolTooSmall      = errors.New("question pool is smaller than the configured sample size")
	ErrInvalidSampleSize = errors.New("sample size must be positive when show_all is disabled")
)

// SelectQuestions builds the question list for one attempt.
//
// ShowAll returns the entire pool, in persisted order or shuffled per
// IsShuffle. Otherwise exactly NoOfQuestion questions are sampled uniformly
// without replacement; IsShuffle then controls whether the sampled subset is
// randomized or keeps the pool order restricted to the sample. Options
// within a question are never reordered.
func SelectQuestions(cfg model.QuestionSetConfig, pool []model.Question, rng *rand.Rand) ([]model.Question, error) {
	if cfg.ShowAll {
		selected := make([]model.Question, len(pool))
		copy(selected, pool)
		if cfg.IsShuffle {
			rng.Shuffle(len(selected), func(i, j int) {
				selected[i], selected[j] = selected[j], selected[i]
			})
		}
		return selected, nil
	}

	if cfg.NoOfQuestion <= 0 {
		return nil, ErrInvalidSampleSize
	}
	if len(pool) < cfg.NoOfQuestion {
		return nil, ErrPoolTooSmall
	}

	// A prefix of a uniform permutation is a uniform sample without
	// replacement, and its order is already uniformly random.
	picked := rng.Perm(len(pool))[:cfg.NoOfQuestion]
	if !cfg.IsShuffle {
		sort.Ints(picked)
	}

	selected := make([]model.Question, 0, cfg.NoOfQuestion)
	for _, i := range picked {
		selected = append(selected, pool[i])
	}
	return selected, nil
}
