// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Notification model.
//
// Pagination is keyset-based ("watermark" pagination): pages continue strictly
// below the (created_at, id) boundary of the oldest item a client has loaded,
// ordered (created_at desc, id desc). Offset pagination would shift under
// concurrently inserted rows; the watermark keeps historical pages stable
// while real-time pushes land at the head.
//
// Functions:
//
//   - InsertNotification(ctx, db, n) -> error
//     Inserts a row; the (source_key, recipient_id) unique index turns a
//     retried insert for the same triggering event into ErrDuplicate.
//
//   - ListNotificationsPage(ctx, db, recipientID, before, limit) -> []domain.Notification, error
//     Returns up to limit rows, optionally strictly below the watermark.
//
//   - MarkAllNotificationsRead(ctx, db, recipientID) -> (int64, error)
//     Bulk-flips is_read for every unread row of the recipient.
//
//   - CountUnreadNotifications(ctx, db, recipientID) -> (int64, error)
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
)

// Watermark is the keyset boundary below which older notifications are
// fetched. Ties on CreatedAt are broken by ID descending, mirroring the
// display order.
type Watermark struct {
	CreatedAt time.Time
	ID        string
}

// InsertNotification persists a notification row. A duplicate source key for
// the same recipient returns ErrDuplicate; callers treat that as "already
// delivered" rather than a failure.
func InsertNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	if err := db.WithContext(ctx).Create(n).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListNotificationsPage returns up to limit notifications for recipientID in
// (created_at desc, id desc) order. A nil before fetches the most recent
// page; otherwise only rows strictly below the watermark are returned.
func ListNotificationsPage(ctx context.Context, db *gorm.DB, recipientID string, before *Watermark, limit int) ([]domain.Notification, error) {
	q := db.WithContext(ctx).
		Where("recipient_id = ?", recipientID)
	if before != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)",
			before.CreatedAt, before.CreatedAt, before.ID)
	}
	var out []domain.Notification
	err := q.Order("created_at desc, id desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkAllNotificationsRead flips is_read on every unread notification of the
// recipient and returns the number of rows updated.
func MarkAllNotificationsRead(ctx context.Context, db *gorm.DB, recipientID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// CountUnreadNotifications returns the recipient's unread total.
func CountUnreadNotifications(ctx context.Context, db *gorm.DB, recipientID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}
