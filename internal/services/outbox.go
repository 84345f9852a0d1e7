// Package services – OutboxWorker
//
// The outbox worker closes notification delivery gaps. When a transition
// commits but its notification row cannot be written, the engine records the
// intended notice in the outbox; this worker replays due rows with
// exponential backoff until the insert succeeds, then publishes to the
// fan-out. Delivery-layer failures are observable through logs and metrics
// only; they never surface through the user-facing error path.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/repo"
)

var (
	outboxReplayed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_outbox_replayed_total",
		Help: "Outbox rows successfully replayed into the notifications table.",
	})
	outboxRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_outbox_retries_total",
		Help: "Outbox replay attempts that failed and were rescheduled.",
	})
	outboxAbandoned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_outbox_abandoned_total",
		Help: "Outbox rows dropped after exhausting the attempt budget.",
	})
)

func init() {
	prometheus.MustRegister(outboxReplayed, outboxRetries, outboxAbandoned)
}

// OutboxWorker periodically replays pending notification inserts.
type OutboxWorker struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Pub receives replayed notifications for real-time delivery. Optional.
	Pub Publisher
	// Interval is the polling period between sweeps (default 5s).
	Interval time.Duration
	// MaxAttempts bounds retries per row before the row is dropped with an
	// error log (default 8).
	MaxAttempts int
	// BatchSize caps rows processed per sweep (default 50).
	BatchSize int
}

// Run polls until ctx is cancelled. It is intended to be started once from
// main as a background goroutine.
func (w *OutboxWorker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := w.Sweep(ctx); err != nil {
				log.Warn().Err(err).Msg("outbox sweep failed")
			}
		}
	}
}

// Sweep processes one batch of due rows. Exported so tests (and operational
// tooling) can drive the worker without the ticker.
func (w *OutboxWorker) Sweep(ctx context.Context) error {
	batch := w.BatchSize
	if batch <= 0 {
		batch = 50
	}
	maxAttempts := w.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 8
	}

	due, err := repo.DueOutbox(ctx, w.DB, time.Now().UTC(), batch)
	if err != nil {
		return err
	}

	for i := range due {
		row := &due[i]
		n := row.Notification()

		err := repo.InsertNotification(ctx, w.DB, n)
		switch {
		case err == nil:
			outboxReplayed.Inc()
			if w.Pub != nil {
				w.Pub.PublishNotification(n)
			}
			if err := repo.DeleteOutbox(ctx, w.DB, row.ID); err != nil {
				log.Warn().Err(err).Str("outbox_id", row.ID).Msg("failed to delete replayed outbox row")
			}
		case errors.Is(err, repo.ErrDuplicate):
			// The original insert landed after all; nothing to deliver.
			if err := repo.DeleteOutbox(ctx, w.DB, row.ID); err != nil {
				log.Warn().Err(err).Str("outbox_id", row.ID).Msg("failed to delete duplicate outbox row")
			}
		default:
			attempts := row.Attempts + 1
			if attempts >= maxAttempts {
				outboxAbandoned.Inc()
				log.Error().
					Err(err).
					Str("source_key", row.SourceKey).
					Int("attempts", attempts).
					Msg("abandoning notification after exhausting replay attempts")
				if err := repo.DeleteOutbox(ctx, w.DB, row.ID); err != nil {
					log.Warn().Err(err).Str("outbox_id", row.ID).Msg("failed to delete abandoned outbox row")
				}
				continue
			}
			outboxRetries.Inc()
			next := time.Now().UTC().Add(backoff(attempts))
			if err := repo.MarkOutboxFailure(ctx, w.DB, row.ID, attempts, next, err.Error()); err != nil {
				log.Warn().Err(err).Str("outbox_id", row.ID).Msg("failed to reschedule outbox row")
			}
		}
	}
	return nil
}

// backoff doubles per attempt starting at one second, capped at five minutes.
func backoff(attempt int) time.Duration {
	d := time.Second << uint(attempt-1)
	if d > 5*time.Minute {
		return 5 * time.Minute
	}
	return d
}
