// Package domain defines the persistence models for applications, jobs,
// connections, notifications, and post interactions. These types are mapped
// with GORM and form the core data layer of the platform backend.
package domain

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ApplicationStatus enumerates the lifecycle states of a job application.
// Transitions between states are governed by the transition engine in the
// services package; the database stores the current state only.
type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "applied"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusInterview   ApplicationStatus = "interview"
	StatusOffered     ApplicationStatus = "offered"
	StatusRejected    ApplicationStatus = "rejected"
	StatusWithdrawn   ApplicationStatus = "withdrawn"
)

// Valid reports whether s is one of the known application statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusShortlisted, StatusInterview, StatusOffered,
		StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// Application represents one candidate's bid for one job opening. A user may
// hold at most one application per job (enforced by unique index). The status
// column is mutated in place, but only through the transition engine's
// conditional update, so concurrent requests cannot both commit from stale
// state.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - JobID / ApplicantID: references to the job and the applying user;
//     the pair is unique.
//   - Status: current lifecycle state (see ApplicationStatus).
//   - CoverNote: optional free-text note supplied at application time.
//   - ResumeURL: optional object-store reference; contents are never
//     inspected by this service.
//   - AppliedAt: submission timestamp (UTC).
type Application struct {
	ID          string            `json:"id"           gorm:"type:char(36);primaryKey"`
	JobID       string            `json:"job_id"       gorm:"type:char(36);not null;uniqueIndex:ux_app_job_applicant,priority:1;index"`
	ApplicantID string            `json:"applicant_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_app_job_applicant,priority:2;index"`
	Status      ApplicationStatus `json:"status"       gorm:"type:varchar(16);not null;default:'applied';check:status IN ('applied','shortlisted','interview','offered','rejected','withdrawn')"`
	CoverNote   string            `json:"cover_note,omitempty" gorm:"type:text"`
	ResumeURL   string            `json:"resume_url,omitempty" gorm:"type:varchar(512)"`
	AppliedAt   time.Time         `json:"applied_at"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `json:"-"            gorm:"index"`

	// Job is the posting this application targets.
	Job Job `json:"-" gorm:"foreignKey:JobID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Application.
func (Application) TableName() string { return "applications" }

// Job represents a posting owned by a company. Only the fields the lifecycle
// engine needs are modelled here; the presentational job board lives outside
// this service.
type Job struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	CompanyID string         `json:"company_id" gorm:"type:char(36);not null;index"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Job.
func (Job) TableName() string { return "jobs" }

// CompanyAdmin records that a user administers a company. Transitions into
// recruiter-controlled states require an admin row for the job's company.
type CompanyAdmin struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	CompanyID string    `json:"company_id" gorm:"type:char(36);not null;uniqueIndex:ux_company_admin,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_company_admin,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for CompanyAdmin.
func (CompanyAdmin) TableName() string { return "company_admins" }

// NotificationType enumerates the kinds of user-facing notices the engine
// emits: application status changes and connection events.
type NotificationType string

const (
	NoticeApplicationShortlisted NotificationType = "application_shortlisted"
	NoticeApplicationInterview   NotificationType = "application_interview"
	NoticeApplicationOffered     NotificationType = "application_offered"
	NoticeApplicationRejected    NotificationType = "application_rejected"
	NoticeConnectionRequest      NotificationType = "connection_request"
	NoticeConnectionAccepted     NotificationType = "connection_accepted"
)

// Notification is a delivery envelope for one event, created exclusively by
// the transition engine as a side effect of a committed transition.
//
// SourceKey identifies the triggering event (e.g. "application:<id>:offered")
// and is unique per recipient, so a retried transition request can never
// double-fire: the second insert trips the unique index and is treated as
// already delivered. The only mutation exposed to users is flipping IsRead.
type Notification struct {
	ID           string           `json:"id"            gorm:"type:char(36);primaryKey"`
	RecipientID  string           `json:"recipient_id"  gorm:"type:varchar(64);not null;index:idx_recipient_created,priority:1;uniqueIndex:ux_notification_source,priority:2"`
	Type         NotificationType `json:"type"          gorm:"type:varchar(40);not null"`
	SourceKey    string           `json:"-"             gorm:"type:varchar(128);not null;uniqueIndex:ux_notification_source,priority:1"`
	SenderName   string           `json:"sender_name,omitempty"   gorm:"type:varchar(120)"`
	SenderAvatar string           `json:"sender_avatar,omitempty" gorm:"type:varchar(512)"`
	JobTitle     string           `json:"job_title,omitempty"     gorm:"type:varchar(255)"`
	PostID       string           `json:"post_id,omitempty"       gorm:"type:char(36)"`
	Message      string           `json:"message"       gorm:"type:text;not null"`
	IsRead       bool             `json:"is_read"       gorm:"not null;default:false"`
	CreatedAt    time.Time        `json:"created_at"    gorm:"index:idx_recipient_created,priority:2"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// SourceKeyFor builds the dedup key for an application status notification.
func SourceKeyFor(applicationID string, target ApplicationStatus) string {
	return fmt.Sprintf("application:%s:%s", applicationID, target)
}

// ConnectionStatus enumerates the states of a social-graph edge. A pending
// row is "pending_sent" from the requester's perspective and
// "pending_received" from the addressee's; both are views over one row.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionBlocked  ConnectionStatus = "blocked"
)

// Connection is an edge between two participants. PairKey is the ordered
// concatenation of the two user ids, so the "at most one active edge per
// pair" invariant holds regardless of who initiated. Rejected or cancelled
// pending edges are removed outright, freeing the pair for a later request.
type Connection struct {
	ID          string           `json:"id"           gorm:"type:char(36);primaryKey"`
	RequesterID string           `json:"requester_id" gorm:"type:varchar(64);not null;index"`
	AddresseeID string           `json:"addressee_id" gorm:"type:varchar(64);not null;index"`
	PairKey     string           `json:"-"            gorm:"type:varchar(130);not null;uniqueIndex:ux_connection_pair"`
	Status      ConnectionStatus `json:"status"       gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','accepted','blocked')"`
	Visibility  string           `json:"visibility,omitempty" gorm:"type:varchar(16)"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TableName returns the database table name for Connection.
func (Connection) TableName() string { return "connections" }

// PairKeyFor returns the order-independent key for an edge between a and b.
func PairKeyFor(a, b string) string {
	if a < b {
		return a + ":" + b
	}
	return b + ":" + a
}

// SavedPost marks a post a user bookmarked. Posts themselves live outside
// this service and are referenced by id only.
type SavedPost struct {
	ID        string    `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_saved_post,priority:1"`
	PostID    string    `json:"post_id" gorm:"type:char(36);not null;uniqueIndex:ux_saved_post,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for SavedPost.
func (SavedPost) TableName() string { return "saved_posts" }

// HiddenPost marks a post a user asked to stop seeing.
type HiddenPost struct {
	ID        string    `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_hidden_post,priority:1"`
	PostID    string    `json:"post_id" gorm:"type:char(36);not null;uniqueIndex:ux_hidden_post,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for HiddenPost.
func (HiddenPost) TableName() string { return "hidden_posts" }

// BlockedUser records that UserID blocked BlockedID. Blocking outranks
// hiding and snoozing: a block suppresses all content from the blocked user.
type BlockedUser struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_blocked_user,priority:1"`
	BlockedID string    `json:"blocked_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_blocked_user,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for BlockedUser.
func (BlockedUser) TableName() string { return "blocked_users" }
