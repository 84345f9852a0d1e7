// Package services – ApplicationService
//
// This file implements the status transition engine for job applications. It
// validates actor authority and transition legality, commits the status
// change under a compare-and-swap, and synthesizes at most one notification
// per committed notice-worthy transition. Service-level errors
// (ErrIllegalTransition, ErrUnauthorized, ErrApplicationNotFound, …) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
	"github.com/careernet/go-career-backend/internal/repo"
)

// Publisher pushes a committed notification to the real-time fan-out. The
// fanout.Hub satisfies this; tests substitute a recorder.
type Publisher interface {
	PublishNotification(n *domain.Notification)
}

// TransitionResult reports what a transition request actually did.
type TransitionResult struct {
	// Application is the row after the request was processed.
	Application *domain.Application
	// Notification is the notice created by this commit, nil when the
	// transition was not notice-worthy or was an idempotent no-op.
	Notification *domain.Notification
	// AlreadyInTarget is true when the stored status already equalled the
	// requested target: the request is treated as success with no new
	// commit and no new notification.
	AlreadyInTarget bool
}

// ApplicationService implements the application half of the transition
// engine. All validation and the conditional status write happen inside one
// transaction; the notification insert deliberately happens after commit so
// a delivery failure can never roll back a durable transition.
type ApplicationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Pub receives committed notifications for real-time delivery.
	// Optional; nil disables fan-out (e.g. in offline tooling).
	Pub Publisher
}

// Apply submits a new application for jobID on behalf of applicantID.
// One application per (job, applicant) pair is enforced by the schema.
func (s *ApplicationService) Apply(ctx context.Context, jobID, applicantID, coverNote, resumeURL string) (*domain.Application, error) {
	if _, err := repo.GetJob(ctx, s.DB, jobID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	app, err := repo.CreateApplication(ctx, s.DB, jobID, applicantID, coverNote, resumeURL)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateApplication
		}
		return nil, err
	}
	return app, nil
}

// Transition requests moving application appID into target on behalf of
// actorID.
//
// Semantics:
//   - Targets in {shortlisted, interview, offered, rejected} require actorID
//     to administer the job's company; withdrawn requires actorID to be the
//     applicant. Violations yield ErrUnauthorized before anything else is
//     decided, so the response never reveals the stored status.
//   - If the stored status already equals target, the request is an
//     idempotent no-op: success, AlreadyInTarget=true, no notification.
//   - Targets not reachable from the current status yield
//     ErrIllegalTransition and leave the row untouched.
//   - The status write is conditional on the observed current status. When
//     two requests race, the loser re-reads: if the row reached its target it
//     reports AlreadyInTarget, otherwise ErrIllegalTransition from the new
//     state.
//
// Notification contract: the insert runs after the status transaction has
// committed. An insert failure is logged and queued to the outbox; the
// transition is never rolled back and never reported as failed because its
// notice could not be written.
func (s *ApplicationService) Transition(ctx context.Context, appID string, target domain.ApplicationStatus, actorID string) (*TransitionResult, error) {
	if !target.Valid() {
		return nil, ErrIllegalTransition
	}

	res := &TransitionResult{}
	var jobTitle string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := repo.GetApplication(ctx, tx, appID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}

		// Authority is checked before the idempotent short-circuit and the
		// legality check: an actor without authority gets the same answer
		// whatever the stored status, so responses leak nothing about it.
		if target == domain.StatusWithdrawn {
			if actorID != app.ApplicantID {
				return ErrUnauthorized
			}
		} else {
			job, err := repo.GetJob(ctx, tx, app.JobID)
			if err != nil {
				return err
			}
			admin, err := repo.IsCompanyAdmin(ctx, tx, job.CompanyID, actorID)
			if err != nil {
				return err
			}
			if !admin {
				return ErrUnauthorized
			}
			jobTitle = job.Title
		}

		if app.Status == target {
			res.Application = app
			res.AlreadyInTarget = true
			return nil
		}
		if !CanTransition(app.Status, target) {
			return ErrIllegalTransition
		}

		rows, err := repo.UpdateApplicationStatusCAS(ctx, tx, appID, app.Status, target)
		if err != nil {
			return err
		}
		if rows == 0 {
			// A concurrent request moved the row first. Re-read and decide.
			cur, err := repo.GetApplication(ctx, tx, appID)
			if err != nil {
				return err
			}
			if cur.Status == target {
				res.Application = cur
				res.AlreadyInTarget = true
				return nil
			}
			return ErrIllegalTransition
		}

		app.Status = target
		res.Application = app
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.AlreadyInTarget {
		return res, nil
	}

	noticeType, ok := NoticeTypeFor(target)
	if !ok {
		return res, nil
	}

	n := &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: res.Application.ApplicantID,
		Type:        noticeType,
		SourceKey:   domain.SourceKeyFor(appID, target),
		JobTitle:    jobTitle,
		Message:     StatusMessage(target, jobTitle),
		CreatedAt:   time.Now().UTC(),
	}

	if err := repo.InsertNotification(ctx, s.DB, n); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// A retried request already produced this notice.
			return res, nil
		}
		// The transition is durable; record the gap for the outbox worker
		// instead of failing the action.
		recordDeliveryGap(ctx, s.DB, n, err)
		return res, nil
	}

	res.Notification = n
	if s.Pub != nil {
		s.Pub.PublishNotification(n)
	}
	return res, nil
}

// Withdraw is the applicant-side terminal transition.
func (s *ApplicationService) Withdraw(ctx context.Context, appID, actorID string) (*TransitionResult, error) {
	return s.Transition(ctx, appID, domain.StatusWithdrawn, actorID)
}

// recordDeliveryGap logs a failed notification insert and enqueues it for
// asynchronous replay. A transition must never be silently lost because its
// notice could not be written.
func recordDeliveryGap(ctx context.Context, db *gorm.DB, n *domain.Notification, cause error) {
	log.Error().
		Err(cause).
		Str("notification_id", n.ID).
		Str("recipient_id", n.RecipientID).
		Str("source_key", n.SourceKey).
		Msg("notification insert failed after committed transition; queued for replay")

	o := &domain.NotificationOutbox{
		ID:            n.ID,
		RecipientID:   n.RecipientID,
		Type:          n.Type,
		SourceKey:     n.SourceKey,
		SenderName:    n.SenderName,
		SenderAvatar:  n.SenderAvatar,
		JobTitle:      n.JobTitle,
		PostID:        n.PostID,
		Message:       n.Message,
		NextAttemptAt: time.Now().UTC(),
		CreatedAt:     n.CreatedAt,
	}
	if err := repo.EnqueueOutbox(ctx, db, o); err != nil {
		// Both the insert and the gap log failed; the error log above is the
		// last trace, so make this one loud.
		log.Error().
			Err(err).
			Str("source_key", n.SourceKey).
			Msg("failed to enqueue notification outbox row")
	}
}
