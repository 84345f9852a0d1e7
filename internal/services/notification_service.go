// Package services – NotificationService
//
// This file implements the server-side read model for notifications:
// watermark-paginated history, the unread counter, and the bulk mark-read
// operation. The client notification cache consumes exactly this surface
// (its PageFetcher/ReadMarker backend), as do the HTTP handlers.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
	"github.com/careernet/go-career-backend/internal/repo"
)

// NotificationService provides read and mark-read operations over a
// recipient's notifications.
type NotificationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// Page returns up to pageSize notifications for recipientID in
// (created_at desc, id desc) order, continuing strictly below the watermark
// when before is non-nil. The second return value reports whether older rows
// may remain (false once a short page is returned).
func (s *NotificationService) Page(ctx context.Context, recipientID string, before *repo.Watermark, pageSize int) ([]domain.Notification, bool, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	items, err := repo.ListNotificationsPage(ctx, s.DB, recipientID, before, pageSize)
	if err != nil {
		return nil, false, err
	}
	return items, len(items) == pageSize, nil
}

// MarkAllRead flips every unread notification of the recipient and returns
// how many rows changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return repo.MarkAllNotificationsRead(ctx, s.DB, recipientID)
}

// Unread returns the recipient's unread total.
func (s *NotificationService) Unread(ctx context.Context, recipientID string) (int64, error) {
	return repo.CountUnreadNotifications(ctx, s.DB, recipientID)
}
