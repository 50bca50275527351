package models

// TargetingContext is the resolved, per-request context the targeting
// filter (C3) evaluates flights against. It is built by C1/C2 from the
// raw decision request plus geo/UA resolution.
type TargetingContext struct {
	Country string
	Region  string // state/province
	Metro   int

	Keywords []string // request ∪ publisher defaults ∪ (out-of-scope) analyzer output

	IsMobile bool
	IsBot    bool
	Browser  string
	OS       string

	URL string // page URL; invalid ones are dropped upstream, not rejected

	Weekday int // time.Weekday of "now" in UTC

	PublisherSlug string

	// ForceAdSlug / ForceCampaignSlug bypass most targeting rules per
	// §4.3 when set and resolvable.
	ForceAdSlug       string
	ForceCampaignSlug string

	// CampaignTypes restricts candidate tiers to this subset when
	// non-empty (request's campaign_types field).
	CampaignTypes []string
}
