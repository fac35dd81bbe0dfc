package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKey = "zzpkit:scheduler:lock"

	// lockTTL must outlast a full sweep. A sweep that takes longer than
	// this risks a second replica starting a concurrent one.
	lockTTL = 50 * time.Second

	requestTimeout = 45 * time.Second
)

// releaseScript deletes the lock only when this instance still owns it,
// so a slow sweep never releases a lock a newer holder acquired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Scheduler struct {
	logger *slog.Logger
	client *resty.Client
	rdb    *redis.Client
}

func NewScheduler(logger *slog.Logger, apiURL, redisURL string) (*Scheduler, error) {
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(requestTimeout)

	var rdb *redis.Client

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}

		rdb = redis.NewClient(opts)
	}

	return &Scheduler{
		logger: logger,
		client: client,
		rdb:    rdb,
	}, nil
}

// Tick runs one sweep. Lock contention and sweep failures are logged,
// never fatal; the next tick tries again.
func (s *Scheduler) Tick(ctx context.Context) {
	token := uuid.New().String()

	acquired, err := s.acquireLock(ctx, token)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to acquire scheduler lock", "error", err)

		return
	}

	if !acquired {
		s.logger.DebugContext(ctx, "Another instance holds the scheduler lock, skipping tick")

		return
	}

	defer s.releaseLock(ctx, token)

	started := time.Now()

	resp, err := s.client.R().
		SetContext(ctx).
		Post("/internal/run-scheduled")
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled sweep request failed", "error", err)

		return
	}

	if resp.IsError() {
		s.logger.ErrorContext(ctx, "Scheduled sweep returned an error",
			"status", resp.StatusCode(),
			"body", resp.String())

		return
	}

	s.logger.InfoContext(ctx, "Scheduled sweep completed", "duration", time.Since(started))
}

func (s *Scheduler) acquireLock(ctx context.Context, token string) (bool, error) {
	if s.rdb == nil {
		return true, nil
	}

	return s.rdb.SetNX(ctx, lockKey, token, lockTTL).Result()
}

func (s *Scheduler) releaseLock(ctx context.Context, token string) {
	if s.rdb == nil {
		return
	}

	if err := releaseScript.Run(ctx, s.rdb, []string{lockKey}, token).Err(); err != nil && err != redis.Nil {
		s.logger.WarnContext(ctx, "Failed to release scheduler lock", "error", err)
	}
}

func (s *Scheduler) Close() {
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.logger.Warn("Failed to close redis client", "error", err)
		}
	}
}
