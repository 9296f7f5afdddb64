package domain

import "errors"

var (
	// ErrNotFound is returned when a bookmark or topic id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition is returned when a status write would move a
	// bookmark backwards or skip a state.
	ErrInvalidTransition = errors.New("invalid processing status transition")

	// ErrStaleClaim is returned when a bookmark's URL changed after it was
	// claimed, so the fetched preview belongs to a URL it no longer has.
	ErrStaleClaim = errors.New("bookmark URL changed since claim")

	// ErrInvalidURL is returned for URLs that do not parse as absolute URLs.
	ErrInvalidURL = errors.New("invalid URL format")
)
