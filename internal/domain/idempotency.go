// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded outcome of a previously processed
// mutating request, keyed by (user_id, entity_id, key). Clients retrying a
// transition or interaction after a timeout send the same Idempotency-Key,
// and the middleware short-circuits instead of re-executing side effects.
// The transition engine itself is additionally idempotent on state, so this
// record is a transport-level fast path, not the correctness mechanism.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_entity_key,priority:1"`
	EntityID  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_entity_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_entity_key,priority:3"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
