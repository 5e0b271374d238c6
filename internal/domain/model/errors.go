package model

import "errors"

// Sentinel error kinds shared by the engines. Match with errors.Is.
var (
	// ErrConfiguration reports an unusable static configuration such as a
	// non-positive level size or an empty stage list.
	ErrConfiguration = errors.New("configuration error")
	// ErrInvalidScore reports a negative or non-finite raw score.
	ErrInvalidScore = errors.New("invalid score")
	// ErrInvalidEvent reports a malformed event at construction time.
	ErrInvalidEvent = errors.New("invalid event")
)
