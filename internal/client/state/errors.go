package state

import "errors"

var (
	// ErrNoSession is returned when no usable auth token/user id is stored.
	ErrNoSession = errors.New("no session")
	// ErrCorrupt wraps a stored value that no longer decodes.
	ErrCorrupt = errors.New("corrupt local state")
)
