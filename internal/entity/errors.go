package entity

import "errors"

var (
	// ErrNoActiveSession is returned for choices, votes and ends against a
	// key that has no active story.
	ErrNoActiveSession = errors.New("no active session")

	// ErrInvalidChoice is returned when a choice index is not among the
	// currently offered choices.
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrUnauthorized is returned when a non-admin issues a force-end while
	// an admin list is configured.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStoryInProgress is returned when starting over an active story
	// without an explicit reset.
	ErrStoryInProgress = errors.New("story already in progress")
)
