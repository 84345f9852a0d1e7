package cache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/careernet/go-career-backend/internal/domain"
	"github.com/careernet/go-career-backend/internal/repo"
)

// fakeBackend serves pages from a fixed newest-first slice and lets tests
// fail or delay calls.
type fakeBackend struct {
	rows        []domain.Notification // sorted (createdAt desc, id desc)
	markErr     error
	pageErr     error
	pageCalls   int
	markCalls   int
	beforePage  func() // hook invoked just before a page is served
	markedRead  bool
}

func (f *fakeBackend) Page(ctx context.Context, before *repo.Watermark, pageSize int) ([]domain.Notification, bool, error) {
	f.pageCalls++
	if f.beforePage != nil {
		f.beforePage()
	}
	if f.pageErr != nil {
		return nil, false, f.pageErr
	}
	var out []domain.Notification
	for _, n := range f.rows {
		if before != nil {
			older := n.CreatedAt.Before(before.CreatedAt) ||
				(n.CreatedAt.Equal(before.CreatedAt) && n.ID < before.ID)
			if !older {
				continue
			}
		}
		out = append(out, n)
		if len(out) == pageSize {
			break
		}
	}
	return out, len(out) == pageSize, nil
}

func (f *fakeBackend) MarkAllRead(ctx context.Context) error {
	f.markCalls++
	if f.markErr != nil {
		return f.markErr
	}
	f.markedRead = true
	return nil
}

func mkRows(count int) []domain.Notification {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := make([]domain.Notification, 0, count)
	// Newest first: highest index gets the latest timestamp.
	for i := count - 1; i >= 0; i-- {
		rows = append(rows, domain.Notification{
			ID:          fmt.Sprintf("n-%03d", i),
			RecipientID: "u1",
			Type:        domain.NoticeApplicationShortlisted,
			Message:     "m",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	return rows
}

func assertInvariants(t *testing.T, c *NotificationCache) {
	t.Helper()
	items := c.Items()
	seen := map[string]bool{}
	unread := 0
	for i, n := range items {
		if seen[n.ID] {
			t.Fatalf("duplicate id %s in cache", n.ID)
		}
		seen[n.ID] = true
		if !n.IsRead {
			unread++
		}
		if i > 0 && newerThan(&items[i], &items[i-1]) {
			t.Fatalf("cache out of order at index %d: %s before %s", i, items[i-1].ID, items[i].ID)
		}
	}
	if got := c.Unread(); got != unread {
		t.Fatalf("unread counter %d disagrees with list (%d unread items)", got, unread)
	}
}

func TestCache_PaginationAcrossThreePages(t *testing.T) {
	// 23 rows: 10 + 10 + 3, hasMore false after the third page.
	b := &fakeBackend{rows: mkRows(23)}
	c := New(b)
	ctx := context.Background()

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("first page: %v", err)
	}
	if c.Len() != 10 || !c.HasMore() {
		t.Fatalf("after first page: len=%d hasMore=%v", c.Len(), c.HasMore())
	}
	if err := c.LoadNextPage(ctx, 10); err != nil {
		t.Fatalf("second page: %v", err)
	}
	if c.Len() != 20 || !c.HasMore() {
		t.Fatalf("after second page: len=%d hasMore=%v", c.Len(), c.HasMore())
	}
	if err := c.LoadNextPage(ctx, 10); err != nil {
		t.Fatalf("third page: %v", err)
	}
	if c.Len() != 23 {
		t.Fatalf("after third page: len=%d, want 23", c.Len())
	}
	if c.HasMore() {
		t.Fatalf("hasMore must be false after a short page")
	}
	assertInvariants(t, c)

	// A further call is a no-op.
	if err := c.LoadNextPage(ctx, 10); err != nil {
		t.Fatalf("extra page: %v", err)
	}
	if b.pageCalls != 3 {
		t.Fatalf("expected 3 fetches, got %d", b.pageCalls)
	}
}

func TestCache_PushBeforeFirstPageIsBuffered(t *testing.T) {
	rows := mkRows(5)
	b := &fakeBackend{rows: rows}
	c := New(b)
	ctx := context.Background()

	late := domain.Notification{
		ID:          "n-999",
		RecipientID: "u1",
		Type:        domain.NoticeApplicationOffered,
		Message:     "offer",
		CreatedAt:   rows[0].CreatedAt.Add(time.Hour),
	}
	c.ApplyPush(late)
	c.ApplyPush(late) // duplicate push buffered once

	if c.Len() != 0 {
		t.Fatalf("push must be buffered until the first page resolves")
	}

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("first page: %v", err)
	}
	items := c.Items()
	if len(items) != 6 {
		t.Fatalf("len=%d, want 6 (5 page + 1 buffered)", len(items))
	}
	if items[0].ID != "n-999" {
		t.Fatalf("buffered push must merge at the head, head=%s", items[0].ID)
	}
	if c.Unread() != 6 {
		t.Fatalf("unread=%d, want 6", c.Unread())
	}
	assertInvariants(t, c)
}

func TestCache_PushDuplicateOfFetchedRowIsNoop(t *testing.T) {
	rows := mkRows(3)
	b := &fakeBackend{rows: rows}
	c := New(b)
	ctx := context.Background()

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("first page: %v", err)
	}
	before := c.Unread()

	c.ApplyPush(rows[1]) // already present

	if c.Len() != 3 || c.Unread() != before {
		t.Fatalf("duplicate push must not change the cache (len=%d unread=%d)", c.Len(), c.Unread())
	}
	assertInvariants(t, c)
}

func TestCache_TieOnCreatedAtBrokenByID(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := &fakeBackend{}
	c := New(b)
	ctx := context.Background()

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("first page: %v", err)
	}
	c.ApplyPush(domain.Notification{ID: "a", CreatedAt: at})
	c.ApplyPush(domain.Notification{ID: "c", CreatedAt: at})
	c.ApplyPush(domain.Notification{ID: "b", CreatedAt: at})

	items := c.Items()
	if items[0].ID != "c" || items[1].ID != "b" || items[2].ID != "a" {
		t.Fatalf("equal timestamps must sort id desc, got %v", []string{items[0].ID, items[1].ID, items[2].ID})
	}
}

func TestCache_MarkAllRead_RollsBackOnFailure(t *testing.T) {
	rows := mkRows(4)
	rows[2].IsRead = true
	b := &fakeBackend{rows: rows, markErr: errors.New("network down")}
	c := New(b)
	ctx := context.Background()

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("first page: %v", err)
	}
	snapshot := c.Items()
	unreadBefore := c.Unread()

	err := c.MarkAllRead(ctx)
	if err == nil {
		t.Fatalf("expected mark-all-read to fail")
	}

	if !reflect.DeepEqual(c.Items(), snapshot) {
		t.Fatalf("rollback must restore the exact pre-action state\n got %+v\nwant %+v", c.Items(), snapshot)
	}
	if c.Unread() != unreadBefore {
		t.Fatalf("unread after rollback = %d, want %d", c.Unread(), unreadBefore)
	}
	assertInvariants(t, c)
}

func TestCache_MarkAllRead_Success(t *testing.T) {
	b := &fakeBackend{rows: mkRows(3)}
	c := New(b)
	ctx := context.Background()

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("first page: %v", err)
	}
	if err := c.MarkAllRead(ctx); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if c.Unread() != 0 {
		t.Fatalf("unread=%d, want 0", c.Unread())
	}
	if !b.markedRead {
		t.Fatalf("backend must have been told")
	}
	assertInvariants(t, c)
}

func TestCache_StaleNextPageDiscardedAfterRefresh(t *testing.T) {
	b := &fakeBackend{rows: mkRows(30)}
	c := New(b)
	ctx := context.Background()

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("first page: %v", err)
	}

	// While the next page is "in flight", a refresh supersedes it. The hook
	// runs inside the next-page fetch, before its result is applied.
	refreshed := false
	b.beforePage = func() {
		if refreshed {
			return
		}
		refreshed = true
		b.beforePage = nil
		if err := c.LoadFirstPage(ctx, 10); err != nil {
			t.Errorf("refresh: %v", err)
		}
	}

	if err := c.LoadNextPage(ctx, 10); err != nil {
		t.Fatalf("next page: %v", err)
	}

	// The stale append keyed to the pre-refresh watermark was discarded.
	if c.Len() != 10 {
		t.Fatalf("len=%d, want 10 (stale page result must be dropped)", c.Len())
	}
	assertInvariants(t, c)
}

func TestCache_PushDuringRefreshSurvivesReplace(t *testing.T) {
	rows := mkRows(3)
	b := &fakeBackend{rows: rows}
	c := New(b)
	ctx := context.Background()

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("first page: %v", err)
	}

	// A push lands while a refresh is in flight: the refresh's page was read
	// before the pushed row existed, so a naive replace would wipe it. The
	// hook runs inside the refresh's backend call.
	live := domain.Notification{
		ID:          "n-900",
		RecipientID: "u1",
		Type:        domain.NoticeApplicationOffered,
		Message:     "offer",
		CreatedAt:   rows[0].CreatedAt.Add(time.Hour),
	}
	b.beforePage = func() {
		b.beforePage = nil
		c.ApplyPush(live)
	}

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	items := c.Items()
	if len(items) != 4 {
		t.Fatalf("len=%d, want 4 (3 page + 1 concurrent push)", len(items))
	}
	if items[0].ID != "n-900" {
		t.Fatalf("concurrent push must survive the refresh, head=%s", items[0].ID)
	}
	if c.Unread() != 4 {
		t.Fatalf("unread=%d, want 4", c.Unread())
	}
	assertInvariants(t, c)
}

func TestCache_PushDuringFailedRefreshIsKept(t *testing.T) {
	rows := mkRows(2)
	b := &fakeBackend{rows: rows}
	c := New(b)
	ctx := context.Background()

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("first page: %v", err)
	}

	live := domain.Notification{
		ID:        "n-901",
		Type:      domain.NoticeConnectionRequest,
		CreatedAt: rows[0].CreatedAt.Add(time.Hour),
	}
	b.beforePage = func() {
		b.beforePage = nil
		b.pageErr = errors.New("backend down")
		c.ApplyPush(live)
	}

	if err := c.LoadFirstPage(ctx, 10); err == nil {
		t.Fatalf("expected the refresh to fail")
	}
	b.pageErr = nil

	// No fetch remains in flight, so the buffered push merges into the
	// still-valid list instead of waiting forever.
	if c.Len() != 3 {
		t.Fatalf("len=%d, want 3 (2 loaded + 1 buffered push)", c.Len())
	}
	if c.Items()[0].ID != "n-901" {
		t.Fatalf("buffered push must merge after the failed refresh settles")
	}
	assertInvariants(t, c)
}

func TestCache_PushWhileLoaded_CountsUnread(t *testing.T) {
	b := &fakeBackend{rows: mkRows(2)}
	c := New(b)
	ctx := context.Background()

	if err := c.LoadFirstPage(ctx, 10); err != nil {
		t.Fatalf("first page: %v", err)
	}
	read := domain.Notification{ID: "r-1", IsRead: true, CreatedAt: time.Now().UTC()}
	c.ApplyPush(read)
	if c.Unread() != 2 {
		t.Fatalf("read push must not bump the counter, unread=%d", c.Unread())
	}
	assertInvariants(t, c)
}
