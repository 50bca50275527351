// Package tracker implements the view/click/view-time proxies (C7): the
// closed X-Adserver-Reason taxonomy, nonce validation against the Redis
// cache, and the billing rule chains from spec.md §4.7/§7. Grounded on
// the teacher's internal/api/{impression,click}.go handler shape (token
// lookup → counter increment → macro-expand → redirect/pixel), re-keyed
// on (advertisement_id, nonce) rather than the teacher's stateless token.
package tracker

// Reason is one of the closed set of X-Adserver-Reason header values.
type Reason string

const (
	ReasonBilledView        Reason = "Billed view"
	ReasonBilledClick       Reason = "Billed click"
	ReasonUnknownOffer      Reason = "Unknown offer"
	ReasonOldInvalidNonce   Reason = "Old/Invalid nonce"
	ReasonInternalIP        Reason = "Internal IP"
	ReasonKnownUser         Reason = "Known user impression"
	ReasonBot               Reason = "Bot impression"
	ReasonUnrecognizedUA    Reason = "Unrecognized user agent"
	ReasonBlockedUA         Reason = "Blocked UA impression"
	ReasonBlockedReferrer   Reason = "Blocked referrer impression"
	ReasonBlockedIP         Reason = "Blocked IP impression"
	ReasonRatelimitedView   Reason = "Ratelimited view impression"
	ReasonRatelimitedClick  Reason = "Ratelimited click impression"
	ReasonInvalidTargeting  Reason = "Invalid targeting impression"
	ReasonInvalidViewTime   Reason = "Invalid view time"
	ReasonUpdatedViewTime   Reason = "Updated view time"
)

// ReasonHeader is the response header name carrying the billing verdict.
const ReasonHeader = "X-Adserver-Reason"

// billed reports whether a reason corresponds to an actually-billed event.
func (r Reason) billed() bool {
	return r == ReasonBilledView || r == ReasonBilledClick
}
