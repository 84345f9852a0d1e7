// Package domain – wire envelope for notifications.
//
// The envelope is the exact JSON shape pushed over the real-time stream and
// returned by the notification endpoints. Clients depend on it round-tripping
// unchanged, so the payload sub-object keeps its own struct rather than
// reusing the flattened persistence columns.
package domain

import "time"

// NotificationPayload carries the type-dependent details of a notification.
// All fields are optional; which ones are populated depends on Type.
type NotificationPayload struct {
	SenderName   string `json:"senderName,omitempty"`
	SenderAvatar string `json:"senderAvatar,omitempty"`
	JobTitle     string `json:"jobTitle,omitempty"`
	PostID       string `json:"postId,omitempty"`
	Message      string `json:"message,omitempty"`
}

// NotificationEnvelope is the wire-level representation of a Notification.
type NotificationEnvelope struct {
	ID          string              `json:"id"`
	RecipientID string              `json:"recipientId"`
	Type        NotificationType    `json:"type"`
	Payload     NotificationPayload `json:"payload"`
	IsRead      bool                `json:"isRead"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// Envelope converts the stored row into its wire representation.
func (n *Notification) Envelope() NotificationEnvelope {
	return NotificationEnvelope{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Type:        n.Type,
		Payload: NotificationPayload{
			SenderName:   n.SenderName,
			SenderAvatar: n.SenderAvatar,
			JobTitle:     n.JobTitle,
			PostID:       n.PostID,
			Message:      n.Message,
		},
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// Row converts a wire envelope back into a persistence row. SourceKey is not
// part of the wire schema and must be set by the caller when relevant.
func (e *NotificationEnvelope) Row() Notification {
	return Notification{
		ID:           e.ID,
		RecipientID:  e.RecipientID,
		Type:         e.Type,
		SenderName:   e.Payload.SenderName,
		SenderAvatar: e.Payload.SenderAvatar,
		JobTitle:     e.Payload.JobTitle,
		PostID:       e.Payload.PostID,
		Message:      e.Payload.Message,
		IsRead:       e.IsRead,
		CreatedAt:    e.CreatedAt,
	}
}
