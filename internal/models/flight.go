package models

import "time"

// Flight is a bought line item: price model, budget, dates and targeting
// for one or more advertisements under a campaign.
type Flight struct {
	ID         int
	Slug       string
	CampaignID int

	Live      bool
	StartDate time.Time
	EndDate   time.Time

	// Exactly one of CPC/CPM is > 0 at any time.
	CPC float64
	CPM float64

	SoldClicks      int
	SoldImpressions int

	// PriorityMultiplier is in [1, 100]; higher wins more of the lottery.
	PriorityMultiplier int
	// PacingIntervalSeconds is the interval granularity over which
	// delivery is computed; defaults to 86400 (one day).
	PacingIntervalSeconds int
	PrioritizeByCTR       bool
	// DailyCap is a monetary ceiling; once a click/view at CPC/CPM would
	// exceed it, needed collapses to 0 for the remainder of the day.
	DailyCap float64

	Targeting TargetingParams

	// Denormalized totals, refreshed by the rollup worker (C8).
	TotalViews  int
	TotalClicks int
}

// PacingIntervalDuration returns the flight's pacing interval, defaulting
// to 24h when unset.
func (f *Flight) PacingIntervalDuration() time.Duration {
	if f.PacingIntervalSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(f.PacingIntervalSeconds) * time.Second
}

// IsLiveOn reports whether the flight is live and t falls within its
// inclusive start/end window.
func (f *Flight) IsLiveOn(t time.Time) bool {
	if f == nil || !f.Live {
		return false
	}
	day := t.Truncate(24 * time.Hour)
	start := f.StartDate.Truncate(24 * time.Hour)
	end := f.EndDate.Truncate(24 * time.Hour)
	return !day.Before(start) && !day.After(end)
}

// TargetingParams enumerates every targeting predicate a flight may
// carry (spec §3/§4.3). Absent slices/maps mean "no restriction."
type TargetingParams struct {
	IncludeCountries       []string
	ExcludeCountries       []string
	IncludeStateProvinces  []string
	IncludeMetroCodes      []int
	IncludeRegions         []string // named region sets, e.g. "us-ca", "eu-aus-nz"
	ExcludeRegions         []string
	IncludeKeywords        []string
	ExcludeKeywords        []string
	IncludeTopics          []string // named sets of keywords
	IncludePublishers      []string
	ExcludePublishers      []string
	IncludeDomains         []string
	ExcludeDomains         []string
	MobileTraffic          MobileTraffic
	Days                   []time.Weekday
	NicheTargeting         float64  // [0,1]; not evaluated by the targeting filter
	NicheURLs              []string // consumed only by the out-of-scope analyzer
}

// MobileTraffic is a flight's mobile-inclusion rule.
type MobileTraffic string

const (
	MobileTrafficAny     MobileTraffic = "any"
	MobileTrafficOnly    MobileTraffic = "only"
	MobileTrafficExclude MobileTraffic = "exclude"
)
