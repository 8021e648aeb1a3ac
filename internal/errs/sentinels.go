// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/client layers.
var (
	// ErrNotAuthenticated indicates an action that requires a logged-in session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnauthorized indicates the backend rejected the bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrWrongDay indicates an attempt to add a dish not orderable today.
	ErrWrongDay = errors.New("dish not available today")

	// ErrEmptyCart indicates checkout on a cart with no lines.
	ErrEmptyCart = errors.New("empty cart")

	// ErrStaleItems indicates checkout with lines whose day is not today.
	ErrStaleItems = errors.New("stale items")

	// ErrCheckoutInProgress indicates a second checkout while one is running.
	ErrCheckoutInProgress = errors.New("checkout in progress")

	// ErrRequestFailed indicates a non-success backend response.
	ErrRequestFailed = errors.New("request failed")
)
