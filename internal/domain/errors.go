package domain

import "errors"

// Sentinel errors used throughout the application.
// Callers compare with errors.Is; wrapped variants keep the sentinel reachable.
var (
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("catalog source rate limited the request")
	ErrFetchFailed     = errors.New("catalog fetch failed")
	ErrLockNotHeld     = errors.New("scheduler lock is not held by this instance")
	ErrUnknownPriority = errors.New("unknown priority: must be 1, 2, or 3")
	ErrInvalidAddress  = errors.New("recipient address is invalid")
)
