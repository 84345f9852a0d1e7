package mutation

import (
	"sync"

	"github.com/careernet/go-career-backend/internal/domain"
)

// Post is the slice of a feed entry the session state cares about.
type Post struct {
	ID       string
	AuthorID string
}

// FeedState is the per-session local state the optimistic actions mutate.
// Visibility precedence is block > snooze > hide: a blocked author's posts
// disappear from the cached feed immediately, including posts fetched
// before the block.
type FeedState struct {
	mu        sync.Mutex
	posts     []Post
	saved     map[string]bool
	hidden    map[string]bool
	snoozed   map[string]bool
	blocked   map[string]bool
	statuses  map[string]domain.ApplicationStatus
	withdrawn map[string]bool
}

func NewFeedState() *FeedState {
	return &FeedState{
		saved:     map[string]bool{},
		hidden:    map[string]bool{},
		snoozed:   map[string]bool{},
		blocked:   map[string]bool{},
		statuses:  map[string]domain.ApplicationStatus{},
		withdrawn: map[string]bool{},
	}
}

// SetPosts replaces the cached feed.
func (f *FeedState) SetPosts(posts []Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts[:0], posts...)
}

// Posts returns the feed with blocked, snoozed and hidden entries
// filtered out, in that precedence order.
func (f *FeedState) Posts() []Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Post, 0, len(f.posts))
	for _, p := range f.posts {
		if f.blocked[p.AuthorID] || f.snoozed[p.AuthorID] || f.hidden[p.ID] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (f *FeedState) Saved(postID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved[postID]
}

func (f *FeedState) Hidden(postID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hidden[postID]
}

func (f *FeedState) Blocked(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocked[userID]
}

// Snooze mutes an author locally. Snoozing is session state only and has
// no persisted counterpart, so no action constructor exists for it.
func (f *FeedState) Snooze(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snoozed[userID] = true
}

func (f *FeedState) Unsnooze(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snoozed, userID)
}

// Status reports the locally tracked status of an application, if any.
func (f *FeedState) Status(appID string) (domain.ApplicationStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.statuses[appID]
	return s, ok
}

func (f *FeedState) SetStatus(appID string, s domain.ApplicationStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[appID] = s
}

func (f *FeedState) Withdrawn(appID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.withdrawn[appID]
}

func (f *FeedState) setSaved(postID string, v bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.saved[postID]
	setFlag(f.saved, postID, v)
	return prev
}

func (f *FeedState) setHidden(postID string, v bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.hidden[postID]
	setFlag(f.hidden, postID, v)
	return prev
}

func (f *FeedState) setBlocked(userID string, v bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.blocked[userID]
	setFlag(f.blocked, userID, v)
	return prev
}

func (f *FeedState) setWithdrawn(appID string, v bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := f.withdrawn[appID]
	setFlag(f.withdrawn, appID, v)
	return prev
}

func (f *FeedState) swapStatus(appID string, s domain.ApplicationStatus) (domain.ApplicationStatus, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.statuses[appID]
	f.statuses[appID] = s
	return prev, had
}

func (f *FeedState) restoreStatus(appID string, s domain.ApplicationStatus, had bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if had {
		f.statuses[appID] = s
	} else {
		delete(f.statuses, appID)
	}
}

func setFlag(m map[string]bool, k string, v bool) {
	if v {
		m[k] = true
	} else {
		delete(m, k)
	}
}
