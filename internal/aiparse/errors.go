package aiparse

import "errors"

var (
	// ErrConfiguration means provider credentials are missing or rejected.
	ErrConfiguration = errors.New("ai configuration error")
	// ErrServiceUnavailable means the provider stayed overloaded through every retry.
	ErrServiceUnavailable = errors.New("ai service unavailable")
	// ErrParsingFailure means the provider call failed or returned an unusable document.
	ErrParsingFailure = errors.New("ai parsing failed")
)
