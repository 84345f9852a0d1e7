package mutation

import (
	"context"

	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
	"github.com/careernet/go-career-backend/internal/repo"
	"github.com/careernet/go-career-backend/internal/services"
)

// Store is the persistence surface the feed actions commit through.
type Store interface {
	SavePost(ctx context.Context, userID, postID string) error
	UnsavePost(ctx context.Context, userID, postID string) error
	HidePost(ctx context.Context, userID, postID string) error
	BlockUser(ctx context.Context, userID, targetID string) error
}

// DBStore implements Store over the interaction repo.
type DBStore struct {
	DB *gorm.DB
}

func (s DBStore) SavePost(ctx context.Context, userID, postID string) error {
	return repo.SavePost(ctx, s.DB, userID, postID)
}

func (s DBStore) UnsavePost(ctx context.Context, userID, postID string) error {
	return repo.UnsavePost(ctx, s.DB, userID, postID)
}

func (s DBStore) HidePost(ctx context.Context, userID, postID string) error {
	return repo.HidePost(ctx, s.DB, userID, postID)
}

func (s DBStore) BlockUser(ctx context.Context, userID, targetID string) error {
	return repo.BlockUser(ctx, s.DB, userID, targetID)
}

// Transitioner is the slice of the application service the status
// actions need. *services.ApplicationService satisfies it.
type Transitioner interface {
	Transition(ctx context.Context, appID string, target domain.ApplicationStatus, actorID string) (*services.TransitionResult, error)
	Withdraw(ctx context.Context, appID, actorID string) (*services.TransitionResult, error)
}

// SavePost flips the saved badge and persists the saved-post row.
func SavePost(st Store, feed *FeedState, userID, postID string) Action {
	var prev bool
	return Action{
		Name:     "save_post",
		Apply:    func() { prev = feed.setSaved(postID, true) },
		Rollback: func() error { feed.setSaved(postID, prev); return nil },
		Call:     func(ctx context.Context) error { return st.SavePost(ctx, userID, postID) },
	}
}

func UnsavePost(st Store, feed *FeedState, userID, postID string) Action {
	var prev bool
	return Action{
		Name:     "unsave_post",
		Apply:    func() { prev = feed.setSaved(postID, false) },
		Rollback: func() error { feed.setSaved(postID, prev); return nil },
		Call:     func(ctx context.Context) error { return st.UnsavePost(ctx, userID, postID) },
	}
}

// HidePost removes the post from the session feed and records the hide.
func HidePost(st Store, feed *FeedState, userID, postID string) Action {
	var prev bool
	return Action{
		Name:     "hide_post",
		Apply:    func() { prev = feed.setHidden(postID, true) },
		Rollback: func() error { feed.setHidden(postID, prev); return nil },
		Call:     func(ctx context.Context) error { return st.HidePost(ctx, userID, postID) },
	}
}

// BlockUser blocks an author. The local delta removes every cached post
// by that author from view, including posts fetched before the block.
func BlockUser(st Store, feed *FeedState, userID, targetID string) Action {
	var prev bool
	return Action{
		Name:     "block_user",
		Apply:    func() { prev = feed.setBlocked(targetID, true) },
		Rollback: func() error { feed.setBlocked(targetID, prev); return nil },
		Call:     func(ctx context.Context) error { return st.BlockUser(ctx, userID, targetID) },
	}
}

// WithdrawApplication flips the withdrawn badge and asks the engine to
// commit the withdrawal.
func WithdrawApplication(svc Transitioner, feed *FeedState, appID, actorID string) Action {
	var prev bool
	return Action{
		Name:     "withdraw_application",
		Apply:    func() { prev = feed.setWithdrawn(appID, true) },
		Rollback: func() error { feed.setWithdrawn(appID, prev); return nil },
		Call: func(ctx context.Context) error {
			_, err := svc.Withdraw(ctx, appID, actorID)
			return err
		},
	}
}

// ChangeStatus updates the locally tracked status and asks the engine to
// commit the transition.
func ChangeStatus(svc Transitioner, feed *FeedState, appID string, target domain.ApplicationStatus, actorID string) Action {
	var (
		prev domain.ApplicationStatus
		had  bool
	)
	return Action{
		Name:     "change_status",
		Apply:    func() { prev, had = feed.swapStatus(appID, target) },
		Rollback: func() error { feed.restoreStatus(appID, prev, had); return nil },
		Call: func(ctx context.Context) error {
			_, err := svc.Transition(ctx, appID, target, actorID)
			return err
		},
	}
}
