// Package cache implements the client-session notification cache: a
// page-bounded, recipient-scoped in-memory projection of notification rows
// that merges the initial page fetch, "load more" page fetches, and live
// pushes from the fan-out without duplication.
//
// Invariants (held after every operation):
//   - items are sorted (createdAt desc, id desc) with no duplicate ids
//   - the unread counter equals the number of cached items with IsRead false
//   - every cached item exists on the server of record for this recipient
//
// All state is guarded by one mutex; the counter is only ever mutated by
// this type's methods, never externally. Fetches run outside the lock and
// re-validate a generation token before applying their result, so a stale
// response superseded by a newer refresh is discarded rather than applied.
package cache

import (
	"context"
	"sync"

	"github.com/careernet/go-career-backend/internal/domain"
	"github.com/careernet/go-career-backend/internal/repo"
)

// Backend is the server surface the cache reconciles against. The
// services.NotificationService fulfils it via RecipientBackend.
type Backend interface {
	// Page returns up to pageSize notifications, newest first, strictly
	// below the watermark when before is non-nil, plus a has-more flag.
	Page(ctx context.Context, before *repo.Watermark, pageSize int) ([]domain.Notification, bool, error)
	// MarkAllRead bulk-flips the recipient's unread rows.
	MarkAllRead(ctx context.Context) error
}

// NotificationCache is one session's working set of notifications.
type NotificationCache struct {
	mu      sync.Mutex
	backend Backend

	items   []domain.Notification
	unread  int
	hasMore bool
	loaded  bool

	// pending buffers pushes that arrive before the first page resolves,
	// or while a refresh is in flight, so a push can never be wiped by a
	// page snapshot taken before its row existed.
	pending []domain.Notification

	// gen invalidates in-flight fetches: every LoadFirstPage bumps it, and
	// a fetch result whose captured token no longer matches is stale.
	gen uint64

	// inflight counts first-page fetches between dispatch and settle.
	// While nonzero, pushes go to pending instead of the live list.
	inflight int
}

// New returns an empty cache backed by b.
func New(b Backend) *NotificationCache {
	return &NotificationCache{backend: b}
}

// LoadFirstPage fetches the most recent pageSize notifications, replacing
// the cache contents. The unread counter is derived from the fetched set
// (plus any buffered pushes merged on top), not from a separate count
// fetch, so list and counter cannot disagree.
func (c *NotificationCache) LoadFirstPage(ctx context.Context, pageSize int) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.inflight++
	c.mu.Unlock()

	items, hasMore, err := c.backend.Page(ctx, nil, pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		c.flushPendingLocked()
		return err
	}
	if c.gen != gen {
		// A newer refresh superseded this fetch; discard silently. Its
		// buffered pushes, if any, belong to the winning fetch.
		c.flushPendingLocked()
		return nil
	}

	c.items = c.items[:0]
	for _, n := range items {
		c.insertLocked(n)
	}
	for _, n := range c.pending {
		c.insertLocked(n)
	}
	c.pending = nil
	c.loaded = true
	c.hasMore = hasMore
	c.recountLocked()
	return nil
}

// flushPendingLocked merges buffered pushes into the live list once no
// first-page fetch remains in flight. Until then they stay buffered for the
// fetch that will replace the list. Caller holds c.mu.
func (c *NotificationCache) flushPendingLocked() {
	if !c.loaded || c.inflight > 0 || len(c.pending) == 0 {
		return
	}
	for _, n := range c.pending {
		c.insertLocked(n)
	}
	c.pending = nil
	c.recountLocked()
}

// LoadNextPage appends older notifications strictly below the watermark of
// the currently-loaded oldest item. Once a fetch returns fewer than
// pageSize rows, HasMore reports false. Calling before the first page has
// loaded, or when no more pages remain, is a no-op.
func (c *NotificationCache) LoadNextPage(ctx context.Context, pageSize int) error {
	c.mu.Lock()
	if !c.loaded || !c.hasMore || len(c.items) == 0 {
		c.mu.Unlock()
		return nil
	}
	oldest := c.items[len(c.items)-1]
	wm := &repo.Watermark{CreatedAt: oldest.CreatedAt, ID: oldest.ID}
	gen := c.gen
	c.mu.Unlock()

	items, hasMore, err := c.backend.Page(ctx, wm, pageSize)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// The cache was refreshed while this page was in flight; the result
		// is keyed to an obsolete watermark.
		return nil
	}
	for _, n := range items {
		c.insertLocked(n)
	}
	c.hasMore = hasMore
	c.recountLocked()
	return nil
}

// ApplyPush merges one live event. Before the first page has loaded, or
// while a refresh is in flight, the push is buffered so the incoming page
// snapshot cannot wipe it; otherwise it is inserted in order unless an id
// match makes it a no-op (the page fetch already carried it).
func (c *NotificationCache) ApplyPush(n domain.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded || c.inflight > 0 {
		for _, p := range c.pending {
			if p.ID == n.ID {
				return
			}
		}
		c.pending = append(c.pending, n)
		return
	}

	if c.insertLocked(n) && !n.IsRead {
		c.unread++
	}
}

// MarkAllRead optimistically flips every cached item and zeroes the
// counter, then issues the bulk update. On failure the flags and counter
// are restored and the error returned.
func (c *NotificationCache) MarkAllRead(ctx context.Context) error {
	c.mu.Lock()
	flipped := make(map[string]bool, len(c.items))
	for i := range c.items {
		if !c.items[i].IsRead {
			c.items[i].IsRead = true
			flipped[c.items[i].ID] = true
		}
	}
	c.unread = 0
	c.mu.Unlock()

	if len(flipped) == 0 {
		return c.backend.MarkAllRead(ctx)
	}

	if err := c.backend.MarkAllRead(ctx); err != nil {
		c.mu.Lock()
		for i := range c.items {
			if flipped[c.items[i].ID] {
				c.items[i].IsRead = false
			}
		}
		c.recountLocked()
		c.mu.Unlock()
		return err
	}
	return nil
}

// Items returns a copy of the cached list in display order.
func (c *NotificationCache) Items() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Unread returns the current unread counter.
func (c *NotificationCache) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// HasMore reports whether older pages may remain on the server.
func (c *NotificationCache) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Len returns the cached item count.
func (c *NotificationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// newerThan orders the display list: createdAt desc, ties broken id desc.
func newerThan(a, b *domain.Notification) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// insertLocked places n at its sorted position, skipping duplicates.
// Returns true when the item was actually added. Caller holds c.mu.
func (c *NotificationCache) insertLocked(n domain.Notification) bool {
	for i := range c.items {
		if c.items[i].ID == n.ID {
			return false
		}
	}
	pos := len(c.items)
	for i := range c.items {
		if newerThan(&n, &c.items[i]) {
			pos = i
			break
		}
	}
	c.items = append(c.items, domain.Notification{})
	copy(c.items[pos+1:], c.items[pos:])
	c.items[pos] = n
	return true
}

// recountLocked re-derives the unread counter from the list, the single
// source of truth for the counter law. Caller holds c.mu.
func (c *NotificationCache) recountLocked() {
	unread := 0
	for i := range c.items {
		if !c.items[i].IsRead {
			unread++
		}
	}
	c.unread = unread
}
