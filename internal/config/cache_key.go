package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionAnswersKey returns the cache key for the answer buffer of one
// open submission. Hash field = question ID, value = serialized answer.
func (r *CacheKeyStruct) SessionAnswersKey(sessionID string) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

// SessionDeadlineKey returns the cache key for a submission's absolute
// deadline (Unix seconds).
func (r *CacheKeyStruct) SessionDeadlineKey(sessionID string) string {
	return fmt.Sprintf("session:%s:deadline", sessionID)
}

// AssessmentOpenSessionsKey returns the set key tracking open session IDs
// per assessment, used by the proctor monitor stream.
func (r *CacheKeyStruct) AssessmentOpenSessionsKey(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:open_sessions", assessmentID)
}

var CacheKey = NewCacheKeyStruct()
