package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestApplicationStatus_Valid(t *testing.T) {
	for _, s := range []ApplicationStatus{
		StatusApplied, StatusShortlisted, StatusInterview,
		StatusOffered, StatusRejected, StatusWithdrawn,
	} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if ApplicationStatus("archived").Valid() {
		t.Fatalf("unknown status must not validate")
	}
	if ApplicationStatus("").Valid() {
		t.Fatalf("empty status must not validate")
	}
}

func TestPairKeyFor_OrderIndependent(t *testing.T) {
	if PairKeyFor("alice", "bob") != PairKeyFor("bob", "alice") {
		t.Fatalf("pair key must not depend on argument order")
	}
	if PairKeyFor("alice", "bob") == PairKeyFor("alice", "carol") {
		t.Fatalf("distinct pairs must produce distinct keys")
	}
}

func TestSourceKeyFor(t *testing.T) {
	got := SourceKeyFor("app-1", StatusShortlisted)
	if got != "application:app-1:shortlisted" {
		t.Fatalf("unexpected source key: %q", got)
	}
}

func TestNotificationEnvelope_WireShape(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := &Notification{
		ID:          "n-1",
		RecipientID: "u-1",
		Type:        NoticeApplicationOffered,
		SourceKey:   SourceKeyFor("app-1", StatusOffered),
		SenderName:  "Acme Recruiting",
		JobTitle:    "Platform Engineer",
		Message:     "You received an offer for Platform Engineer",
		IsRead:      false,
		CreatedAt:   created,
	}

	raw, err := json.Marshal(n.Envelope())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"id", "recipientId", "type", "payload", "isRead", "createdAt"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("envelope missing wire field %q: %s", k, raw)
		}
	}
	payload, ok := m["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload must be an object: %s", raw)
	}
	if payload["jobTitle"] != "Platform Engineer" {
		t.Fatalf("payload jobTitle mismatch: %v", payload)
	}
	if _, ok := payload["postId"]; ok {
		t.Fatalf("empty payload fields must be omitted: %v", payload)
	}
}

func TestNotificationEnvelope_RoundTrip(t *testing.T) {
	n := &Notification{
		ID:           "n-2",
		RecipientID:  "u-2",
		Type:         NoticeConnectionRequest,
		SenderName:   "Dana",
		SenderAvatar: "https://cdn.example.com/a/dana.png",
		Message:      "Dana wants to connect",
		IsRead:       true,
		CreatedAt:    time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(n.Envelope())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var e NotificationEnvelope
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	back := e.Row()
	if back.ID != n.ID || back.RecipientID != n.RecipientID || back.Type != n.Type ||
		back.SenderName != n.SenderName || back.SenderAvatar != n.SenderAvatar ||
		back.Message != n.Message || back.IsRead != n.IsRead || !back.CreatedAt.Equal(n.CreatedAt) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", back, *n)
	}
}
