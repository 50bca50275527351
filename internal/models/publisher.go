// Package models holds the domain entities for the decision and attribution
// engine: publishers, advertisers, campaigns, flights, advertisements, ad
// types, offers and the denormalized impression rollup.
package models

// Campaign type flags a publisher can allow. These mirror the campaign
// types a Campaign may declare and gate which tiers the selector considers
// for a given publisher.
const (
	CampaignTypePaid      = "paid"
	CampaignTypeAffiliate = "affiliate"
	CampaignTypeCommunity = "community"
	CampaignTypeHouse     = "house"
)

// AllCampaignTypes lists every campaign type in selector tier order,
// highest priority first.
var AllCampaignTypes = []string{CampaignTypePaid, CampaignTypeAffiliate, CampaignTypeCommunity, CampaignTypeHouse}

// Publisher is a site or app that serves ads from the engine.
type Publisher struct {
	ID     int
	Slug   string
	Name   string
	Domain string

	// AllowedCampaignTypes gates which campaign types may serve on this
	// publisher (paid/affiliate/community/house).
	AllowedCampaignTypes []string
	// DailyEarningCap is the maximum monetary amount this publisher may
	// earn per day; 0 means unlimited.
	DailyEarningCap float64
	// RecordViews, when true, writes a View row for every billed view in
	// addition to incrementing the AdImpression counter.
	RecordViews bool
	// AllowMultiplePlacements, when false, causes any decision request
	// with placement_index > 0 to short-circuit to "no ad".
	AllowMultiplePlacements bool
	// IgnoreMobileTraffic blocks all mobile requests across every flight
	// served on this publisher, regardless of flight-level targeting.
	IgnoreMobileTraffic bool
	// DefaultKeywords are unioned into the request's keyword set for
	// targeting purposes.
	DefaultKeywords []string
	// SampledCTR is a derived, periodically refreshed click-through rate
	// used as a pacing weight bonus (see Open Question in DESIGN.md).
	SampledCTR float64
	// ExcludeCampaigns lists campaign slugs this publisher refuses to
	// serve regardless of targeting.
	ExcludeCampaigns []string
	// Groups is the set of named publisher groups this publisher belongs
	// to; campaigns target publisher groups rather than individual slugs.
	Groups []string
	// UnauthedAdDecisions allows decision requests against this publisher
	// without a bearer token.
	UnauthedAdDecisions bool
	// Disabled publishers never serve ads; decision requests return 400.
	Disabled bool
	// AuthToken is the opaque 40-char bearer token linked to this
	// publisher; empty when unauthed_ad_decisions is relied on instead.
	AuthToken string
}

// AllowsCampaignType reports whether the publisher permits the given
// campaign type to serve.
func (p *Publisher) AllowsCampaignType(campaignType string) bool {
	if p == nil {
		return false
	}
	if len(p.AllowedCampaignTypes) == 0 {
		return true
	}
	for _, t := range p.AllowedCampaignTypes {
		if t == campaignType {
			return true
		}
	}
	return false
}

// ExcludesCampaign reports whether the publisher has explicitly excluded
// the given campaign slug.
func (p *Publisher) ExcludesCampaign(campaignSlug string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.ExcludeCampaigns {
		if c == campaignSlug {
			return true
		}
	}
	return false
}

// InGroup reports whether the publisher is a member of the named group.
func (p *Publisher) InGroup(group string) bool {
	if p == nil {
		return false
	}
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}
