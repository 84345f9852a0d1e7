// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for post
// interactions (save, hide) and user blocks, the persistence side of the
// optimistic mutation coordinator's actions.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
)

// SavePost bookmarks a post for userID. Saving twice returns ErrDuplicate.
func SavePost(ctx context.Context, db *gorm.DB, userID, postID string) error {
	s := &domain.SavedPost{
		ID:        uuid.NewString(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UnsavePost removes a bookmark. Returns ErrNotFound when none existed.
func UnsavePost(ctx context.Context, db *gorm.DB, userID, postID string) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&domain.SavedPost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsPostSaved reports whether userID bookmarked postID.
func IsPostSaved(ctx context.Context, db *gorm.DB, userID, postID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.SavedPost{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&n).Error
	return n > 0, err
}

// HidePost records that userID no longer wants to see postID.
// Hiding twice is idempotent.
func HidePost(ctx context.Context, db *gorm.DB, userID, postID string) error {
	h := &domain.HiddenPost{
		ID:        uuid.NewString(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(h).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

// BlockUser records that userID blocked blockedID. Blocking twice is
// idempotent.
func BlockUser(ctx context.Context, db *gorm.DB, userID, blockedID string) error {
	b := &domain.BlockedUser{
		ID:        uuid.NewString(),
		UserID:    userID,
		BlockedID: blockedID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

// IsBlockedEitherWay reports whether a block exists between the two users in
// either direction. Blocks outrank every other interaction, so connection
// requests consult this before creating an edge.
func IsBlockedEitherWay(ctx context.Context, db *gorm.DB, a, b string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.BlockedUser{}).
		Where("(user_id = ? AND blocked_id = ?) OR (user_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&n).Error
	return n > 0, err
}
