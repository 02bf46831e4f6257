package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ciriera/examboard-scheduler/internal/fitness"
)

// ScoreCache memoizes fitness.Score results keyed by a hash of the
// (assignment set, weights) pair, using pkg/cache's redis client. Scoring is
// pure, so caching it is always correctness-preserving: a cache hit returns
// exactly what a fresh Score call would.
type ScoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScoreCache wraps an already-connected redis client. A nil client makes
// every lookup a miss, so the cache is optional infrastructure rather than
// a hard dependency of the /v1/score endpoint.
func NewScoreCache(client *redis.Client, ttl time.Duration) *ScoreCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ScoreCache{client: client, ttl: ttl}
}

func scoreCacheKey(assignments []AssignmentDTO, weights fitness.Weights) string {
	payload, _ := json.Marshal(struct {
		Assignments []AssignmentDTO `json:"assignments"`
		Weights     fitness.Weights `json:"weights"`
	}{assignments, weights})
	sum := sha256.Sum256(payload)
	return "examboard:score:" + hex.EncodeToString(sum[:])
}

// Get returns a cached report, or false on a miss or any redis error.
func (s *ScoreCache) Get(ctx context.Context, assignments []AssignmentDTO, weights fitness.Weights) (fitness.Report, bool) {
	if s == nil || s.client == nil {
		return fitness.Report{}, false
	}
	raw, err := s.client.Get(ctx, scoreCacheKey(assignments, weights)).Bytes()
	if err != nil {
		return fitness.Report{}, false
	}
	var report fitness.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return fitness.Report{}, false
	}
	return report, true
}

// Set stores a report for future lookups. Errors are swallowed: a failed
// cache write never fails the request it originated from.
func (s *ScoreCache) Set(ctx context.Context, assignments []AssignmentDTO, weights fitness.Weights, report fitness.Report) {
	if s == nil || s.client == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, scoreCacheKey(assignments, weights), raw, s.ttl).Err()
}
