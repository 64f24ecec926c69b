package errors

import "errors"

var (
	// ErrNilFactory is returned when a population operation is called
	// without a factory. It signals a caller bug, not a cache condition.
	ErrNilFactory = errors.New("stash: nil factory")
	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("stash: cache closed")
)
