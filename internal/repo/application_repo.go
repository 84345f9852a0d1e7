// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Application
// and Job models.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. The one deliberate exception is
// UpdateApplicationStatusCAS, whose conditional WHERE clause is the
// persistence half of the transition engine's compare-and-swap contract.
//
// Error semantics:
//   - When a row is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Unique-constraint violations are surfaced as ErrDuplicate.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/careernet/go-career-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation (e.g. a second
// application for the same job, or a retried notification insert).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation detects unique-constraint failures across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}

// CreateJob inserts a job posting owned by companyID.
func CreateJob(ctx context.Context, db *gorm.DB, companyID, title string) (*domain.Job, error) {
	j := &domain.Job{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(j).Error; err != nil {
		return nil, err
	}
	return j, nil
}

// GetJob fetches a job by id, or ErrNotFound if missing.
func GetJob(ctx context.Context, db *gorm.DB, id string) (*domain.Job, error) {
	var j domain.Job
	if err := db.WithContext(ctx).Where("id = ?", id).First(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// AddCompanyAdmin grants userID administrator rights over companyID.
// Granting twice is idempotent.
func AddCompanyAdmin(ctx context.Context, db *gorm.DB, companyID, userID string) error {
	a := &domain.CompanyAdmin{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

// IsCompanyAdmin reports whether userID administers companyID.
func IsCompanyAdmin(ctx context.Context, db *gorm.DB, companyID, userID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.CompanyAdmin{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&n).Error
	return n > 0, err
}

// CreateApplication inserts a new application in the "applied" state. The
// (job_id, applicant_id) pair is unique; a second application for the same
// job returns ErrDuplicate.
func CreateApplication(ctx context.Context, db *gorm.DB, jobID, applicantID, coverNote, resumeURL string) (*domain.Application, error) {
	now := time.Now().UTC()
	a := &domain.Application{
		ID:          uuid.NewString(),
		JobID:       jobID,
		ApplicantID: applicantID,
		Status:      domain.StatusApplied,
		CoverNote:   coverNote,
		ResumeURL:   resumeURL,
		AppliedAt:   now,
		CreatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return a, nil
}

// GetApplication fetches an application by id, or ErrNotFound if missing.
func GetApplication(ctx context.Context, db *gorm.DB, id string) (*domain.Application, error) {
	var a domain.Application
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListApplicationsForJob returns applications for a job ordered by
// submission time descending.
func ListApplicationsForJob(ctx context.Context, db *gorm.DB, jobID string) ([]domain.Application, error) {
	var out []domain.Application
	err := db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("applied_at desc").
		Find(&out).Error
	return out, err
}

// ListApplicationsForUser returns a user's own applications, newest first.
func ListApplicationsForUser(ctx context.Context, db *gorm.DB, applicantID string) ([]domain.Application, error) {
	var out []domain.Application
	err := db.WithContext(ctx).
		Where("applicant_id = ?", applicantID).
		Order("applied_at desc").
		Find(&out).Error
	return out, err
}

// UpdateApplicationStatusCAS conditionally moves an application from one
// status to another. The WHERE clause carries the expected current status,
// so of two racing transition requests only one can observe a row change;
// the loser sees zero rows affected and must re-read to decide whether the
// entity already reached its target.
//
// Returns the number of rows affected (0 or 1).
func UpdateApplicationStatusCAS(ctx context.Context, db *gorm.DB, id string, from, to domain.ApplicationStatus) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}
