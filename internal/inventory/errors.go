package inventory

import "errors"

// Sentinel errors returned by the inventory service. HTTP handlers map these
// to status codes; anything else is a storage failure and means the caller
// cannot know whether the mutation happened.
var (
	// ErrProductNotFound is returned when the item code is unknown.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidDelta is returned for a zero delta or a kind/delta sign mismatch.
	ErrInvalidDelta = errors.New("invalid quantity delta")

	// ErrInsufficientStock is returned when an outgoing delta exceeds the
	// on-hand balance. The caller may retry only after re-reading the balance.
	ErrInsufficientStock = errors.New("insufficient stock")
)
