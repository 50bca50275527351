package logic

import (
	"net/url"
	"strings"
	"time"

	"github.com/adserve/core/internal/models"
)

// RegionSets maps named region sets (e.g. "us-ca", "eu-aus-nz") to the
// ISO-2 country codes they expand to. TopicSets maps named topics to the
// keywords they expand to. This package only reads the maps it's handed;
// cmd/server builds its Matcher once at startup with empty tables, and
// no reload replaces them while the process runs.
type RegionSets map[string][]string
type TopicSets map[string][]string

// Matcher evaluates flight eligibility against a resolved request
// context (C3). It holds the process-wide region/topic tables so
// predicate evaluation never does IO.
type Matcher struct {
	Regions RegionSets
	Topics  TopicSets
}

// NewMatcher builds a Matcher over the given region/topic tables.
func NewMatcher(regions RegionSets, topics TopicSets) *Matcher {
	if regions == nil {
		regions = RegionSets{}
	}
	if topics == nil {
		topics = TopicSets{}
	}
	return &Matcher{Regions: regions, Topics: topics}
}

func (m *Matcher) expandKeywords(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		set[strings.ToLower(k)] = struct{}{}
	}
	return set
}

func (m *Matcher) expandIncludeKeywords(p models.TargetingParams) map[string]struct{} {
	set := make(map[string]struct{}, len(p.IncludeKeywords))
	for _, k := range p.IncludeKeywords {
		set[strings.ToLower(k)] = struct{}{}
	}
	for _, topic := range p.IncludeTopics {
		for _, k := range m.Topics[topic] {
			set[strings.ToLower(k)] = struct{}{}
		}
	}
	return set
}

func (m *Matcher) regionContainsCountry(regionName, country string) bool {
	for _, c := range m.Regions[regionName] {
		if strings.EqualFold(c, country) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func intersects(a map[string]struct{}, b []string) bool {
	for _, v := range b {
		if _, ok := a[strings.ToLower(v)]; ok {
			return true
		}
	}
	return false
}

// MatchesFlight evaluates rules 1–8 and 12 of spec.md §4.3 (geo, keyword,
// publisher, domain, mobile, day-of-week, exclude-campaign). Placement
// (rule 9), campaign-type-allowed (rule 10) and work-remaining (rule 11)
// are evaluated separately by the caller, since they need data this
// function doesn't have (placement list, publisher's allow list, pacing
// weight).
func (m *Matcher) MatchesFlight(p models.TargetingParams, ctx models.TargetingContext, campaignSlug string, publisher *models.Publisher) bool {
	// 1. Geo include.
	if len(p.IncludeCountries) > 0 && !contains(p.IncludeCountries, ctx.Country) {
		return false
	}
	if len(p.IncludeStateProvinces) > 0 && !contains(p.IncludeStateProvinces, ctx.Region) {
		return false
	}
	if len(p.IncludeMetroCodes) > 0 && !containsInt(p.IncludeMetroCodes, ctx.Metro) {
		return false
	}
	if len(p.IncludeRegions) > 0 {
		matched := false
		for _, region := range p.IncludeRegions {
			if m.regionContainsCountry(region, ctx.Country) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	// 2. Geo exclude.
	if len(p.ExcludeCountries) > 0 && contains(p.ExcludeCountries, ctx.Country) {
		return false
	}
	for _, region := range p.ExcludeRegions {
		if m.regionContainsCountry(region, ctx.Country) {
			return false
		}
	}

	// 3. Keyword include.
	if len(p.IncludeKeywords) > 0 || len(p.IncludeTopics) > 0 {
		include := m.expandIncludeKeywords(p)
		if !intersects(include, ctx.Keywords) {
			return false
		}
	}

	// 4. Keyword exclude.
	if len(p.ExcludeKeywords) > 0 {
		exclude := m.expandKeywords(p.ExcludeKeywords)
		if intersects(exclude, ctx.Keywords) {
			return false
		}
	}

	// 5. Publisher include/exclude.
	if len(p.IncludePublishers) > 0 && !contains(p.IncludePublishers, ctx.PublisherSlug) {
		return false
	}
	if contains(p.ExcludePublishers, ctx.PublisherSlug) {
		return false
	}

	// 6. Domain include/exclude.
	host := hostOf(ctx.URL)
	if len(p.IncludeDomains) > 0 {
		if host == "" || !contains(p.IncludeDomains, host) {
			return false
		}
	}
	if host != "" && contains(p.ExcludeDomains, host) {
		return false
	}

	// 7. Mobile rule.
	if publisher != nil && publisher.IgnoreMobileTraffic && ctx.IsMobile {
		return false
	}
	switch p.MobileTraffic {
	case models.MobileTrafficOnly:
		if !ctx.IsMobile {
			return false
		}
	case models.MobileTrafficExclude:
		if ctx.IsMobile {
			return false
		}
	}

	// 8. Day-of-week rule.
	if len(p.Days) > 0 {
		today := time.Weekday(ctx.Weekday)
		found := false
		for _, d := range p.Days {
			if d == today {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	// 12. Campaign not in publisher's exclude list.
	if publisher != nil && publisher.ExcludesCampaign(campaignSlug) {
		return false
	}

	return true
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// MatchesPlacement reports whether the flight has at least one ad
// matching any of the requested placement ad types (rule 9).
func MatchesPlacement(flightAds []models.Advertisement, requestedAdTypes []string) bool {
	for _, ad := range flightAds {
		if !ad.Live {
			continue
		}
		for _, slug := range requestedAdTypes {
			if ad.MatchesAdType(slug) {
				return true
			}
		}
	}
	return false
}

// CampaignTypeAllowed evaluates rule 10: the publisher must allow the
// campaign's type, and if the request restricted campaign_types, the
// campaign's type must be in that subset.
func CampaignTypeAllowed(campaignType string, publisher *models.Publisher, requestedTypes []string) bool {
	if publisher != nil && !publisher.AllowsCampaignType(campaignType) {
		return false
	}
	if len(requestedTypes) > 0 && !contains(requestedTypes, campaignType) {
		return false
	}
	return true
}
