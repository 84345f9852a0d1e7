package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careernet/go-career-backend/internal/domain"
)

func TestInsertNotification_DedupBySourceKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n := &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: "u1",
		Type:        domain.NoticeApplicationShortlisted,
		SourceKey:   domain.SourceKeyFor("app-1", domain.StatusShortlisted),
		Message:     "shortlisted",
		CreatedAt:   time.Now().UTC(),
	}
	if err := InsertNotification(ctx, db, n); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	retry := *n
	retry.ID = uuid.NewString()
	err := InsertNotification(ctx, db, &retry)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for retried event, got %v", err)
	}

	// Same event for a different recipient is a different notice.
	other := *n
	other.ID = uuid.NewString()
	other.RecipientID = "u2"
	if err := InsertNotification(ctx, db, &other); err != nil {
		t.Fatalf("different recipient: %v", err)
	}
}

func TestListNotificationsPage_Watermark(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 23; i++ {
		n := &domain.Notification{
			ID:          fmt.Sprintf("n-%02d", i),
			RecipientID: "u1",
			Type:        domain.NoticeApplicationShortlisted,
			SourceKey:   fmt.Sprintf("application:app-%02d:shortlisted", i),
			Message:     "m",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := InsertNotification(ctx, db, n); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	var all []domain.Notification
	var before *Watermark
	for {
		page, err := ListNotificationsPage(ctx, db, "u1", before, 10)
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		all = append(all, page...)
		if len(page) < 10 {
			break
		}
		last := page[len(page)-1]
		before = &Watermark{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	if len(all) != 23 {
		t.Fatalf("expected 23 rows across pages, got %d", len(all))
	}
	seen := map[string]bool{}
	for i, n := range all {
		if seen[n.ID] {
			t.Fatalf("duplicate id across pages: %s", n.ID)
		}
		seen[n.ID] = true
		if i > 0 && all[i-1].CreatedAt.Before(n.CreatedAt) {
			t.Fatalf("pages out of order at %d", i)
		}
	}
}

func TestListNotificationsPage_TieBrokenByID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b", "c"} {
		n := &domain.Notification{
			ID:          id,
			RecipientID: "u1",
			Type:        domain.NoticeConnectionRequest,
			SourceKey:   "connection:" + id,
			Message:     "m",
			CreatedAt:   at,
		}
		if err := InsertNotification(ctx, db, n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := ListNotificationsPage(ctx, db, "u1", nil, 2)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 2 || page[0].ID != "c" || page[1].ID != "b" {
		t.Fatalf("equal timestamps must sort id desc, got %+v", page)
	}

	next, err := ListNotificationsPage(ctx, db, "u1", &Watermark{CreatedAt: at, ID: "b"}, 2)
	if err != nil {
		t.Fatalf("next page: %v", err)
	}
	if len(next) != 1 || next[0].ID != "a" {
		t.Fatalf("watermark must continue below the tie, got %+v", next)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n := &domain.Notification{
			ID:          uuid.NewString(),
			RecipientID: "u1",
			Type:        domain.NoticeApplicationRejected,
			SourceKey:   fmt.Sprintf("application:app-%d:rejected", i),
			Message:     "m",
			IsRead:      i == 0, // one already read
			CreatedAt:   time.Now().UTC(),
		}
		if err := InsertNotification(ctx, db, n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rows, err := MarkAllNotificationsRead(ctx, db, "u1")
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 rows flipped, got %d", rows)
	}

	unread, err := CountUnreadNotifications(ctx, db, "u1")
	if err != nil || unread != 0 {
		t.Fatalf("expected zero unread, got %d (err=%v)", unread, err)
	}
}
