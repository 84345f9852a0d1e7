// Package services defines the business logic for the application lifecycle,
// the social graph, and notifications. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

// Application lifecycle errors.
var (
	// ErrIllegalTransition is returned when the requested status is not
	// reachable from the entity's current status. The stored status is left
	// untouched and no notification is created.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrUnauthorized is returned when the actor lacks authority for the
	// requested transition (not a company admin, or not the applicant for a
	// withdrawal).
	ErrUnauthorized = errors.New("actor not authorized for this transition")

	// ErrApplicationNotFound indicates the referenced application does not
	// exist.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrJobNotFound indicates the referenced job posting does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateApplication is returned when a user applies a second time
	// to the same job.
	ErrDuplicateApplication = errors.New("application already exists for this job")
)

// Social graph errors.
var (
	// ErrConnectionNotFound indicates the referenced edge does not exist.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrConnectionExists is returned when an active edge already links the
	// two participants.
	ErrConnectionExists = errors.New("connection already exists")

	// ErrSelfConnection is returned when a user attempts to connect with
	// themselves.
	ErrSelfConnection = errors.New("cannot connect with yourself")

	// ErrBlocked is returned when a block between the participants forbids
	// the requested interaction.
	ErrBlocked = errors.New("interaction blocked")
)
