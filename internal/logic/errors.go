package logic

import "errors"

// Sentinel errors surfaced by the decision pipeline. Handlers translate
// these into status codes/reasons (spec.md §7); none of them panic into a
// 500 for an expected "no ad" condition.
var (
	ErrNoEligibleFlight = errors.New("no eligible flight for this request")
	ErrUnknownPlacement = errors.New("placement ad type is not known")
	ErrDisabledPublisher = errors.New("publisher is disabled")
	ErrUnknownPublisher  = errors.New("publisher not found")
	ErrTooManyKeywords   = errors.New("keywords exceeds the 100 item limit")
	ErrInvalidPlacementIndex = errors.New("placement_index out of range")
)
