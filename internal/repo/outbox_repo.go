// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// notification outbox (the delivery gap log).
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
)

// EnqueueOutbox records a notification that could not be inserted after its
// triggering transition committed. A second enqueue for the same source key
// is dropped silently; one pending delivery per event is enough.
func EnqueueOutbox(ctx context.Context, db *gorm.DB, o *domain.NotificationOutbox) error {
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

// DueOutbox returns up to limit rows whose next attempt time has passed,
// oldest first.
func DueOutbox(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.NotificationOutbox, error) {
	var out []domain.NotificationOutbox
	err := db.WithContext(ctx).
		Where("next_attempt_at <= ?", now).
		Order("next_attempt_at asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkOutboxFailure bumps the attempt counter and schedules the next retry.
func MarkOutboxFailure(ctx context.Context, db *gorm.DB, id string, attempts int, next time.Time, lastErr string) error {
	return db.WithContext(ctx).
		Model(&domain.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":        attempts,
			"next_attempt_at": next,
			"last_error":      lastErr,
		}).Error
}

// DeleteOutbox removes a row after successful delivery (or after the worker
// gives up on it).
func DeleteOutbox(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.NotificationOutbox{}).Error
}
