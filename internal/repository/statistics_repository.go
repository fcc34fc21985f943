package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prperemyshlev/mbti-quiz/internal/domain"
	"github.com/prperemyshlev/mbti-quiz/internal/mbti"
	"github.com/prperemyshlev/mbti-quiz/pkg/database"
	"github.com/redis/go-redis/v9"
)

const (
	statsKey        = "mbti:stats"
	statsUpdatedKey = "mbti:stats:updated_at"
)

// redisStatistics keeps one hash field per result type
type redisStatistics struct {
	redis *database.Redis
	now   func() time.Time
}

// NewRedisStatisticsRepository creates a statistics repository backed by a Redis hash
func NewRedisStatisticsRepository(r *database.Redis) StatisticsRepository {
	return &redisStatistics{redis: r, now: time.Now}
}

func (s *redisStatistics) Increment(ctx context.Context, t mbti.Type) (int64, error) {
	var vals *redis.StringSliceCmd
	_, err := s.redis.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, statsKey, string(t), 1)
		pipe.Set(ctx, statsUpdatedKey, s.now().UTC().Format(time.RFC3339Nano), 0)
		vals = pipe.HVals(ctx, statsKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment statistics: %w", err)
	}

	var total int64
	for _, v := range vals.Val() {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid statistics counter %q: %w", v, err)
		}
		total += n
	}

	return total, nil
}

func (s *redisStatistics) Snapshot(ctx context.Context) (*domain.Statistics, error) {
	pipe := s.redis.Client.Pipeline()
	countsCmd := pipe.HGetAll(ctx, statsKey)
	updatedCmd := pipe.Get(ctx, statsUpdatedKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to read statistics: %w", err)
	}

	stats := emptyStatistics()
	for field, v := range countsCmd.Val() {
		t, ok := mbti.ParseType(field)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid statistics counter for %s: %w", field, err)
		}
		stats.Counts[t] = n
		stats.Total += n
	}

	if updated, err := updatedCmd.Result(); err == nil {
		if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			stats.LastUpdated = &ts
		}
	}

	return stats, nil
}

// memoryStatistics is a process-local counter set
type memoryStatistics struct {
	mu          sync.Mutex
	counts      map[mbti.Type]int64
	total       int64
	lastUpdated *time.Time
	now         func() time.Time
}

// NewMemoryStatisticsRepository creates a statistics repository that lives in process memory
func NewMemoryStatisticsRepository() StatisticsRepository {
	return &memoryStatistics{
		counts: make(map[mbti.Type]int64),
		now:    time.Now,
	}
}

func (s *memoryStatistics) Increment(_ context.Context, t mbti.Type) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[t]++
	s.total++
	now := s.now().UTC()
	s.lastUpdated = &now

	return s.total, nil
}

func (s *memoryStatistics) Snapshot(_ context.Context) (*domain.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := emptyStatistics()
	for t, n := range s.counts {
		stats.Counts[t] = n
	}
	stats.Total = s.total
	if s.lastUpdated != nil {
		ts := *s.lastUpdated
		stats.LastUpdated = &ts
	}

	return stats, nil
}

// emptyStatistics has a zero entry for every type so callers always see all 16
func emptyStatistics() *domain.Statistics {
	counts := make(map[mbti.Type]int64, 16)
	for _, t := range mbti.AllTypes() {
		counts[t] = 0
	}
	return &domain.Statistics{Counts: counts}
}
