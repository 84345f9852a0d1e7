// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Connection
// model (the social-graph edge).
//
// The pair_key unique index enforces "at most one active edge per pair of
// participants". Rejecting or cancelling a pending edge deletes the row so a
// later request between the same pair can succeed.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
)

// CreateConnection inserts a pending edge from requester to addressee.
// An existing edge between the pair (any status) returns ErrDuplicate.
//
// The visibility column is optional schema (see Capabilities); when absent
// the insert names only the columns every deployment has.
func CreateConnection(ctx context.Context, db *gorm.DB, requesterID, addresseeID, visibility string, caps Capabilities) (*domain.Connection, error) {
	c := &domain.Connection{
		ID:          uuid.NewString(),
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		PairKey:     domain.PairKeyFor(requesterID, addresseeID),
		Status:      domain.ConnectionPending,
		CreatedAt:   time.Now().UTC(),
	}
	cols := []string{"id", "requester_id", "addressee_id", "pair_key", "status", "created_at", "updated_at"}
	if caps.ConnectionVisibility {
		c.Visibility = visibility
		cols = append(cols, "visibility")
	}
	if err := db.WithContext(ctx).Select(cols).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return c, nil
}

// GetConnection fetches an edge by id, or ErrNotFound if missing.
func GetConnection(ctx context.Context, db *gorm.DB, id string) (*domain.Connection, error) {
	var c domain.Connection
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetConnectionByPair fetches the edge between two participants regardless of
// direction, or ErrNotFound.
func GetConnectionByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Connection, error) {
	var c domain.Connection
	err := db.WithContext(ctx).
		Where("pair_key = ?", domain.PairKeyFor(a, b)).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateConnectionStatusCAS conditionally moves an edge from one status to
// another, mirroring the application-side compare-and-swap. Returns rows
// affected (0 or 1).
func UpdateConnectionStatusCAS(ctx context.Context, db *gorm.DB, id string, from, to domain.ConnectionStatus) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Connection{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

// DeleteConnection removes an edge outright (used for reject/cancel of a
// pending edge). Returns ErrNotFound when no row was deleted.
func DeleteConnection(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Connection{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListConnectionsForUser returns every edge the user participates in,
// newest first.
func ListConnectionsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Connection, error) {
	var out []domain.Connection
	err := db.WithContext(ctx).
		Where("requester_id = ? OR addressee_id = ?", userID, userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
