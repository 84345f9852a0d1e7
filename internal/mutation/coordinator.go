// Package mutation wraps user-initiated actions in an optimistic
// apply-then-confirm contract: the local delta is applied synchronously,
// the persisting call runs after, and a failed call rolls the delta back
// so the visible state always matches either the pre-action or the
// committed truth.
package mutation

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrRollbackFailed reports that a failed action could not restore the
// pre-action local state. Callers should do a full refresh of the
// affected region instead of trusting the partial state.
var ErrRollbackFailed = errors.New("mutation rollback failed")

// Action is one optimistic mutation. Apply and Rollback touch only local
// state and must be inverses; Call performs the durable write.
type Action struct {
	Name     string
	Apply    func()
	Rollback func() error
	Call     func(ctx context.Context) error
}

// Coordinator executes Actions. The zero value is ready to use.
type Coordinator struct{}

// Perform applies the action's local delta, issues the call, and on call
// failure rolls the delta back. The call error is always wrapped with the
// action name; if the rollback itself fails the returned error matches
// ErrRollbackFailed via errors.Is.
func (Coordinator) Perform(ctx context.Context, a Action) error {
	if a.Apply != nil {
		a.Apply()
	}
	if a.Call == nil {
		return nil
	}
	err := a.Call(ctx)
	if err == nil {
		return nil
	}
	if a.Rollback != nil {
		if rbErr := a.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Str("action", a.Name).Msg("optimistic rollback failed")
			return fmt.Errorf("%s: %v: %w", a.Name, err, ErrRollbackFailed)
		}
	}
	return fmt.Errorf("%s: %w", a.Name, err)
}
