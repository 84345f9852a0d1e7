package cache

import (
	"context"

	"github.com/careernet/go-career-backend/internal/domain"
	"github.com/careernet/go-career-backend/internal/repo"
	"github.com/careernet/go-career-backend/internal/services"
)

// RecipientBackend adapts the recipient-keyed NotificationService to the
// per-session Backend contract the cache expects.
type RecipientBackend struct {
	Svc         *services.NotificationService
	RecipientID string
}

// Page implements Backend.
func (b RecipientBackend) Page(ctx context.Context, before *repo.Watermark, pageSize int) ([]domain.Notification, bool, error) {
	return b.Svc.Page(ctx, b.RecipientID, before, pageSize)
}

// MarkAllRead implements Backend.
func (b RecipientBackend) MarkAllRead(ctx context.Context) error {
	_, err := b.Svc.MarkAllRead(ctx, b.RecipientID)
	return err
}
