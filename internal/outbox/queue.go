package outbox

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/lumo-engine/internal/data/repos"
	"github.com/yungbote/lumo-engine/internal/domain"
	"github.com/yungbote/lumo-engine/internal/pkg/apperr"
	"github.com/yungbote/lumo-engine/internal/pkg/httpx"
	"github.com/yungbote/lumo-engine/internal/platform/logger"
)

type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeRetryableFailure
	OutcomePermanentFailure
)

// Sender pushes one entry to the remote side and classifies the result.
type Sender func(ctx context.Context, entry *domain.OutboxEntry) (Outcome, error)

type DrainStats struct {
	Delivered int
	Retried   int
	Dropped   int
	Aborted   bool
}

// Config bounds the retry schedule: next = now + min(base * 2^attempts, cap),
// jittered +/-20%.
type Config struct {
	BackoffBase time.Duration
	BackoffCap  time.Duration
	BatchLimit  int
}

func DefaultConfig() Config {
	return Config{
		BackoffBase: time.Second,
		BackoffCap:  5 * time.Minute,
		BatchLimit:  100,
	}
}

type Queue interface {
	// Enqueue appends the entry unless its idempotency key is already
	// pending, in which case it is a no-op. Callable inside a caller
	// transaction so the enqueue commits atomically with the state change
	// that caused it.
	Enqueue(ctx context.Context, tx *gorm.DB, entry *domain.OutboxEntry) error
	Drain(ctx context.Context, sender Sender) (DrainStats, error)
	PendingCount(ctx context.Context) (int, error)
}

type queue struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.OutboxEntryRepo
	cfg  Config
}

func NewQueue(db *gorm.DB, baseLog *logger.Logger, repo repos.OutboxEntryRepo, cfg Config) Queue {
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 5 * time.Minute
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 100
	}
	return &queue{
		db:   db,
		log:  baseLog.With("component", "OutboxQueue"),
		repo: repo,
		cfg:  cfg,
	}
}

func (q *queue) Enqueue(ctx context.Context, tx *gorm.DB, entry *domain.OutboxEntry) error {
	inserted, err := q.repo.Insert(ctx, tx, entry)
	if err != nil {
		return apperr.Storage("outbox enqueue", err)
	}
	if !inserted {
		q.log.Debug("outbox enqueue deduplicated", "key", entry.IdempotencyKey)
	}
	return nil
}

// Drain walks due entries in enqueue order. Delivered and permanent
// failures both remove the row; retryable failures reschedule it in place.
// Cancellation is cooperative between entries; whatever was not reached
// simply stays queued. Three consecutive connection-level failures abort
// the pass early, since the device is evidently offline.
func (q *queue) Drain(ctx context.Context, sender Sender) (DrainStats, error) {
	var stats DrainStats

	now := time.Now().UTC()
	entries, err := q.repo.ListDue(ctx, nil, now, q.cfg.BatchLimit)
	if err != nil {
		return stats, apperr.Storage("outbox list due", err)
	}

	consecutiveOffline := 0
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			stats.Aborted = true
			return stats, nil
		default:
		}

		outcome, sendErr := sender(ctx, entry)
		switch outcome {
		case OutcomeDelivered:
			consecutiveOffline = 0
			if err := q.repo.Delete(ctx, nil, entry.ID); err != nil {
				return stats, apperr.Storage("outbox delete delivered", err)
			}
			stats.Delivered++
			q.log.Debug("outbox entry delivered", "key", entry.IdempotencyKey)

		case OutcomePermanentFailure:
			consecutiveOffline = 0
			if err := q.repo.Delete(ctx, nil, entry.ID); err != nil {
				return stats, apperr.Storage("outbox delete dropped", err)
			}
			stats.Dropped++
			q.log.Warn("outbox entry dropped after permanent failure",
				"key", entry.IdempotencyKey, "error", sendErr)

		default:
			attempts := entry.AttemptCount + 1
			delay := httpx.Jitter(httpx.Backoff(q.cfg.BackoffBase, q.cfg.BackoffCap, attempts))
			// Server pacing overrides a shorter backoff.
			var transient *apperr.TransientNetworkError
			if errors.As(sendErr, &transient) && transient.RetryAfter > delay {
				delay = transient.RetryAfter
			}
			next := time.Now().UTC().Add(delay)
			msg := ""
			if sendErr != nil {
				msg = sendErr.Error()
			}
			if err := q.repo.Reschedule(ctx, nil, entry.ID, attempts, next, msg); err != nil {
				return stats, apperr.Storage("outbox reschedule", err)
			}
			stats.Retried++
			q.log.Debug("outbox entry rescheduled",
				"key", entry.IdempotencyKey, "attempts", attempts, "next_retry_in", delay)

			if apperr.IsTransient(sendErr) {
				consecutiveOffline++
				if consecutiveOffline >= 3 {
					stats.Aborted = true
					q.log.Debug("outbox drain aborted, device offline")
					return stats, nil
				}
			} else {
				consecutiveOffline = 0
			}
		}
	}
	return stats, nil
}

func (q *queue) PendingCount(ctx context.Context) (int, error) {
	count, err := q.repo.CountPending(ctx, nil)
	if err != nil {
		return 0, apperr.Storage("outbox count", err)
	}
	return int(count), nil
}
