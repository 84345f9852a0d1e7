// Package services – transition tables
//
// This file declares the two state machines as data: the application
// lifecycle and the connection lifecycle. Keeping the edges in package-level
// maps makes legality checks table lookups and keeps the machines testable
// in isolation from persistence.
package services

import "github.com/careernet/go-career-backend/internal/domain"

// applicationEdges lists, for every non-terminal status, the statuses
// reachable from it. rejected, offered, and withdrawn have no outgoing edges.
//
//	applied -> shortlisted -> interview -> offered
//	applied | shortlisted | interview -> rejected
//	applied -> withdrawn (applicant only)
var applicationEdges = map[domain.ApplicationStatus][]domain.ApplicationStatus{
	domain.StatusApplied: {
		domain.StatusShortlisted,
		domain.StatusRejected,
		domain.StatusWithdrawn,
	},
	domain.StatusShortlisted: {
		domain.StatusInterview,
		domain.StatusRejected,
	},
	domain.StatusInterview: {
		domain.StatusOffered,
		domain.StatusRejected,
	},
}

// CanTransition reports whether the application machine has an edge
// from -> to.
func CanTransition(from, to domain.ApplicationStatus) bool {
	for _, next := range applicationEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing edges.
func IsTerminal(s domain.ApplicationStatus) bool {
	return len(applicationEdges[s]) == 0
}

// noticeTypes maps each notice-worthy target status to the notification type
// synthesized when a transition into it commits. Withdrawals are initiated by
// the applicant, who needs no notice of their own action.
var noticeTypes = map[domain.ApplicationStatus]domain.NotificationType{
	domain.StatusShortlisted: domain.NoticeApplicationShortlisted,
	domain.StatusInterview:   domain.NoticeApplicationInterview,
	domain.StatusOffered:     domain.NoticeApplicationOffered,
	domain.StatusRejected:    domain.NoticeApplicationRejected,
}

// NoticeTypeFor returns the notification type for a target status and
// whether the target warrants a notice at all.
func NoticeTypeFor(target domain.ApplicationStatus) (domain.NotificationType, bool) {
	t, ok := noticeTypes[target]
	return t, ok
}

// connectionEdges is the social-graph machine. pending -> accepted is the
// only in-place update; reject/cancel remove the pending row, and blocked is
// reachable from any state (a block overrides whatever stood before).
var connectionEdges = map[domain.ConnectionStatus][]domain.ConnectionStatus{
	domain.ConnectionPending: {
		domain.ConnectionAccepted,
		domain.ConnectionBlocked,
	},
	domain.ConnectionAccepted: {
		domain.ConnectionBlocked,
	},
}

// CanTransitionConnection reports whether the connection machine has an edge
// from -> to.
func CanTransitionConnection(from, to domain.ConnectionStatus) bool {
	for _, next := range connectionEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}
