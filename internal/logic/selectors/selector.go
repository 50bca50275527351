// Package selectors implements the tiered weighted-random flight/ad
// selection (C5), grounded on the teacher's selectors.RuleBasedSelector
// pipeline shape and on original_source's
// decisionengine.backends.ProbabilisticFlightBackend for the exact
// cumulative-weight algorithm.
package selectors

import (
	"math/rand"

	"github.com/adserve/core/internal/models"
)

// Candidate is a flight that has already passed targeting (C3), annotated
// with its selection weight and the set of live advertisements that match
// the requested placements.
type Candidate struct {
	Flight       models.Flight
	CampaignType string
	Weight       float64
	Ads          []models.Advertisement
}

// PlacementRequest is one requested ad slot, carrying the caller-supplied
// priority used to weight ad choice within a flight.
type PlacementRequest struct {
	DivID    string
	AdType   string
	Priority int // [1,10], default 1
}

// Rand is the source of randomness; tests inject a seeded rand.Rand (or
// nil, which falls back to the package default) for reproducibility. A
// draw value of -1 is the testing seam from spec.md §4.5: it always
// yields "no selection" for the tier being evaluated.
type Rand interface {
	Float64() float64
}

var defaultRand Rand = rand.New(rand.NewSource(1))

// SelectFlight picks one flight from candidates, partitioned into tiers
// by campaign type in fixed priority order (paid > affiliate > community
// > house, models.AllCampaignTypes). The first tier with positive total
// weight wins; within it, a flight is drawn with probability proportional
// to its weight via a cumulative-weight array, mirroring
// ProbabilisticFlightBackend.select_flight.
//
// forced, when true, causes a uniform draw among all candidates
// regardless of tier or weight (force_ad/force_campaign bypass).
func SelectFlight(candidates []Candidate, forced bool, r Rand) *Candidate {
	if len(candidates) == 0 {
		return nil
	}
	if r == nil {
		r = defaultRand
	}

	if forced {
		f := r.Float64()
		if f < 0 {
			return nil
		}
		idx := int(f * float64(len(candidates)))
		if idx >= len(candidates) {
			idx = len(candidates) - 1
		}
		return &candidates[idx]
	}

	for _, tier := range models.AllCampaignTypes {
		tierCandidates := filterByTier(candidates, tier)
		if picked := drawWeighted(tierCandidates, r); picked != nil {
			return picked
		}
	}
	return nil
}

func filterByTier(candidates []Candidate, campaignType string) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.CampaignType == campaignType {
			out = append(out, c)
		}
	}
	return out
}

// drawWeighted builds the cumulative-weight array [0, w1, w1+w2, ...] and
// draws r*total uniformly, returning the candidate whose interval
// contains the draw. Returns nil if total weight is zero, candidates
// is empty, or the draw is negative.
func drawWeighted(candidates []Candidate, r Rand) *Candidate {
	var total float64
	for _, c := range candidates {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total <= 0 {
		return nil
	}

	f := r.Float64()
	if f < 0 {
		return nil
	}
	draw := f * total
	var cumulative float64
	for i := range candidates {
		if candidates[i].Weight <= 0 {
			continue
		}
		cumulative += candidates[i].Weight
		if draw <= cumulative {
			return &candidates[i]
		}
	}
	return &candidates[len(candidates)-1]
}

// maxPriority is the ceiling placement priority (spec.md §6).
const maxPriority = 10

// SelectAdvertisement chooses one ad from a flight's candidate list,
// weighting each ad by (11 - placement.priority) repetitions for its
// matching placement, mirroring select_ad_for_flight. forcedAdSlug, when
// set, restricts the candidate pool to that single ad regardless of
// live/ad-type checks.
func SelectAdvertisement(ads []models.Advertisement, requested []PlacementRequest, forcedAdSlug string, r Rand) *models.Advertisement {
	if r == nil {
		r = defaultRand
	}

	var weighted []models.Advertisement
	for i := range ads {
		ad := ads[i]
		if forcedAdSlug != "" {
			if ad.Slug == forcedAdSlug {
				weighted = append(weighted, ad)
			}
			continue
		}
		if !ad.Live {
			continue
		}
		priority := matchingPriority(ad, requested)
		if priority == 0 {
			continue
		}
		repeats := maxPriority + 1 - priority
		for n := 0; n < repeats; n++ {
			weighted = append(weighted, ad)
		}
	}

	if len(weighted) == 0 {
		return nil
	}
	idx := int(r.Float64() * float64(len(weighted)))
	if idx >= len(weighted) {
		idx = len(weighted) - 1
	}
	return &weighted[idx]
}

// matchingPriority returns the priority of the first requested placement
// this ad matches, defaulting unset priorities to 1, or 0 if no
// placement matches.
func matchingPriority(ad models.Advertisement, requested []PlacementRequest) int {
	for _, p := range requested {
		if ad.MatchesAdType(p.AdType) {
			if p.Priority <= 0 {
				return 1
			}
			return p.Priority
		}
	}
	return 0
}
