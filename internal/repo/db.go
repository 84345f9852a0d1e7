// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), schema migrations, and the startup capability
// probe for optional columns.
package repo

import (
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/careernet/go-career-backend/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database, applies PRAGMAs, and
// instruments the handle with OpenTelemetry tracing.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for all domain models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Job{},
		&domain.CompanyAdmin{},
		&domain.Application{},
		&domain.Connection{},
		&domain.Notification{},
		&domain.NotificationOutbox{},
		&domain.SavedPost{},
		&domain.HiddenPost{},
		&domain.BlockedUser{},
		&domain.Idempotency{},
	)
}

// Capabilities records which optional schema features the connected database
// actually has. Deployments migrated from older schema revisions may lack
// columns that newer writes would otherwise populate; probing once at startup
// lets writers build their payload conditionally instead of attempting the
// wide insert and catching the failure on every call.
type Capabilities struct {
	// ConnectionVisibility is true when connections.visibility exists.
	ConnectionVisibility bool
}

// ProbeCapabilities inspects the live schema once and returns the feature
// set. Call after AutoMigrate (fresh databases report everything present).
func ProbeCapabilities(db *gorm.DB) Capabilities {
	m := db.Migrator()
	return Capabilities{
		ConnectionVisibility: m.HasColumn(&domain.Connection{}, "visibility"),
	}
}
