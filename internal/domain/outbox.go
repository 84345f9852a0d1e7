package domain

import "time"

// NotificationOutbox is the gap log for notification delivery. When a status
// transition commits but the notification row cannot be written, the engine
// records the intended notice here instead of rolling back the transition.
// A background worker replays due rows with backoff until the insert
// succeeds or MaxAttempts is exhausted.
type NotificationOutbox struct {
	ID            string           `gorm:"type:char(36);primaryKey"`
	RecipientID   string           `gorm:"type:varchar(64);not null"`
	Type          NotificationType `gorm:"type:varchar(40);not null"`
	SourceKey     string           `gorm:"type:varchar(128);not null;uniqueIndex:ux_outbox_source"`
	SenderName    string           `gorm:"type:varchar(120)"`
	SenderAvatar  string           `gorm:"type:varchar(512)"`
	JobTitle      string           `gorm:"type:varchar(255)"`
	PostID        string           `gorm:"type:char(36)"`
	Message       string           `gorm:"type:text;not null"`
	Attempts      int              `gorm:"not null;default:0"`
	NextAttemptAt time.Time        `gorm:"not null;index"`
	LastError     string           `gorm:"type:text"`
	CreatedAt     time.Time        `gorm:"not null"`
}

// TableName implements the GORM tabler interface.
func (NotificationOutbox) TableName() string { return "notification_outbox" }

// Notification materializes the pending notice as an insertable row.
func (o *NotificationOutbox) Notification() *Notification {
	return &Notification{
		ID:           o.ID,
		RecipientID:  o.RecipientID,
		Type:         o.Type,
		SourceKey:    o.SourceKey,
		SenderName:   o.SenderName,
		SenderAvatar: o.SenderAvatar,
		JobTitle:     o.JobTitle,
		PostID:       o.PostID,
		Message:      o.Message,
		CreatedAt:    o.CreatedAt,
	}
}
