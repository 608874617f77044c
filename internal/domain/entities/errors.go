package entities

import "errors"

// Common errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInternalError = errors.New("internal server error")
)

// Meeting errors
var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrAgentNotFound   = errors.New("agent not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Workflow errors
var (
	ErrRunNotFound      = errors.New("workflow run not found")
	ErrRunAlreadyQueued = errors.New("workflow run already queued")
	ErrStepNotFound     = errors.New("workflow step not found")
)
