package model

import "errors"

var (
	// ErrConfiguration signals a missing credential or invalid setting at
	// construction time. Never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownStrategy signals a strategy identifier that is not
	// registered.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrInvalidArgument signals a violated contract precondition, such as a
	// deindex call without a selector or an empty query.
	ErrInvalidArgument = errors.New("invalid argument")
)
