// Package services – ConnectionService
//
// This file implements the social-graph half of the transition engine:
// none -> pending -> accepted, or -> blocked. Either participant may act on a
// pending edge (the addressee accepts or rejects, the requester cancels), and
// at most one active edge exists per pair. Blocks outrank everything: an
// existing block forbids new requests, and blocking terminalizes whatever
// edge stood before.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
	"github.com/careernet/go-career-backend/internal/repo"
)

// ConnectionService implements connection lifecycle use-cases.
type ConnectionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Caps gates writes to optional schema columns.
	Caps repo.Capabilities
	// Pub receives committed notifications for real-time delivery. Optional.
	Pub Publisher
}

// Request creates a pending edge from requesterID to addresseeID and
// notifies the addressee.
//
// Validation:
//   - requester and addressee must differ (ErrSelfConnection)
//   - no block may exist between the pair in either direction (ErrBlocked)
//   - no edge may already link the pair (ErrConnectionExists)
func (s *ConnectionService) Request(ctx context.Context, requesterID, addresseeID, requesterName, visibility string) (*domain.Connection, error) {
	if requesterID == addresseeID {
		return nil, ErrSelfConnection
	}
	blocked, err := repo.IsBlockedEitherWay(ctx, s.DB, requesterID, addresseeID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrBlocked
	}

	conn, err := repo.CreateConnection(ctx, s.DB, requesterID, addresseeID, visibility, s.Caps)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrConnectionExists
		}
		return nil, err
	}

	s.notify(ctx, &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: addresseeID,
		Type:        domain.NoticeConnectionRequest,
		SourceKey:   "connection:" + conn.ID + ":pending",
		SenderName:  requesterName,
		Message:     ConnectionRequestMessage(requesterName),
		CreatedAt:   time.Now().UTC(),
	})
	return conn, nil
}

// Accept moves a pending edge to accepted on behalf of actorID, who must be
// the addressee. Accepting an already-accepted edge is an idempotent no-op.
func (s *ConnectionService) Accept(ctx context.Context, connID, actorID, actorName string) (*domain.Connection, error) {
	conn, err := s.get(ctx, connID)
	if err != nil {
		return nil, err
	}
	if conn.AddresseeID != actorID {
		return nil, ErrUnauthorized
	}
	if conn.Status == domain.ConnectionAccepted {
		return conn, nil
	}
	if !CanTransitionConnection(conn.Status, domain.ConnectionAccepted) {
		return nil, ErrIllegalTransition
	}

	rows, err := repo.UpdateConnectionStatusCAS(ctx, s.DB, connID, conn.Status, domain.ConnectionAccepted)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// Lost a race; re-read and report from the fresh state.
		cur, err := s.get(ctx, connID)
		if err != nil {
			return nil, err
		}
		if cur.Status == domain.ConnectionAccepted {
			return cur, nil
		}
		return nil, ErrIllegalTransition
	}
	conn.Status = domain.ConnectionAccepted

	s.notify(ctx, &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: conn.RequesterID,
		Type:        domain.NoticeConnectionAccepted,
		SourceKey:   "connection:" + conn.ID + ":accepted",
		SenderName:  actorName,
		Message:     ConnectionAcceptedMessage(actorName),
		CreatedAt:   time.Now().UTC(),
	})
	return conn, nil
}

// Reject removes a pending edge on behalf of the addressee. No notification
// is produced; the requester simply never hears back.
func (s *ConnectionService) Reject(ctx context.Context, connID, actorID string) error {
	conn, err := s.get(ctx, connID)
	if err != nil {
		return err
	}
	if conn.AddresseeID != actorID {
		return ErrUnauthorized
	}
	if conn.Status != domain.ConnectionPending {
		return ErrIllegalTransition
	}
	return s.deleteEdge(ctx, connID)
}

// Cancel removes a pending edge on behalf of the requester.
func (s *ConnectionService) Cancel(ctx context.Context, connID, actorID string) error {
	conn, err := s.get(ctx, connID)
	if err != nil {
		return err
	}
	if conn.RequesterID != actorID {
		return ErrUnauthorized
	}
	if conn.Status != domain.ConnectionPending {
		return ErrIllegalTransition
	}
	return s.deleteEdge(ctx, connID)
}

// Block records that actorID blocked targetID and terminalizes any existing
// edge between them. Blocking is idempotent and never notifies the target.
func (s *ConnectionService) Block(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfConnection
	}
	if err := repo.BlockUser(ctx, s.DB, actorID, targetID); err != nil {
		return err
	}
	conn, err := repo.GetConnectionByPair(ctx, s.DB, actorID, targetID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	}
	if conn.Status == domain.ConnectionBlocked {
		return nil
	}
	_, err = repo.UpdateConnectionStatusCAS(ctx, s.DB, conn.ID, conn.Status, domain.ConnectionBlocked)
	return err
}

// List returns every edge the user participates in, newest first.
func (s *ConnectionService) List(ctx context.Context, userID string) ([]domain.Connection, error) {
	return repo.ListConnectionsForUser(ctx, s.DB, userID)
}

func (s *ConnectionService) get(ctx context.Context, connID string) (*domain.Connection, error) {
	conn, err := repo.GetConnection(ctx, s.DB, connID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	return conn, nil
}

func (s *ConnectionService) deleteEdge(ctx context.Context, connID string) error {
	if err := repo.DeleteConnection(ctx, s.DB, connID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrConnectionNotFound
		}
		return err
	}
	return nil
}

// notify inserts a notification and hands it to the fan-out. Failures follow
// the delivery contract: log, never fail the committed action.
func (s *ConnectionService) notify(ctx context.Context, n *domain.Notification) {
	if err := repo.InsertNotification(ctx, s.DB, n); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return
		}
		recordDeliveryGap(ctx, s.DB, n, err)
		return
	}
	if s.Pub != nil {
		s.Pub.PublishNotification(n)
	}
}
