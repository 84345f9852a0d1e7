// Package services – notification message templates
//
// Human-readable notification text is assembled here so the wording lives in
// one place. Messages are English-only for now; the caser is kept explicit so
// a locale can be threaded through later.
package services

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/careernet/go-career-backend/internal/domain"
)

var titleCaser = cases.Title(language.English)

// statusDisplay renders a status value for human-readable text
// ("shortlisted" -> "Shortlisted").
func statusDisplay(s domain.ApplicationStatus) string {
	return titleCaser.String(string(s))
}

// StatusMessage builds the templated notice text for a committed transition
// into target on an application for jobTitle.
func StatusMessage(target domain.ApplicationStatus, jobTitle string) string {
	switch target {
	case domain.StatusShortlisted:
		return fmt.Sprintf("Your application for %s was shortlisted", jobTitle)
	case domain.StatusInterview:
		return fmt.Sprintf("You have been invited to interview for %s", jobTitle)
	case domain.StatusOffered:
		return fmt.Sprintf("You received an offer for %s", jobTitle)
	case domain.StatusRejected:
		return fmt.Sprintf("Your application for %s was not successful", jobTitle)
	default:
		return fmt.Sprintf("Your application for %s moved to %s", jobTitle, statusDisplay(target))
	}
}

// ConnectionRequestMessage builds the notice text for an incoming request.
func ConnectionRequestMessage(senderName string) string {
	if senderName == "" {
		senderName = "Someone"
	}
	return fmt.Sprintf("%s wants to connect with you", senderName)
}

// ConnectionAcceptedMessage builds the notice text for an accepted request.
func ConnectionAcceptedMessage(senderName string) string {
	if senderName == "" {
		senderName = "Your contact"
	}
	return fmt.Sprintf("%s accepted your connection request", senderName)
}
