package eventlog

import "errors"

// Sentinel kinds for event log errors.
var (
	ErrUnknownKind    = errors.New("unknown event kind")
	ErrClosed         = errors.New("event log closed")
	ErrInvalidSubject = errors.New("invalid subject")
)
