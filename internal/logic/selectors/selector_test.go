package selectors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adserve/core/internal/models"
)

// fixedRand always returns the same draw value, making weighted selection
// deterministic for tests.
type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func TestSelectFlight_EmptyCandidates(t *testing.T) {
	assert.Nil(t, SelectFlight(nil, false, nil))
}

// TestSelectFlight_HigherTierAlwaysWins covers scenario S5: a house
// candidate with enormous weight never wins over a paid candidate with
// positive weight, since tiers are tried in fixed priority order.
func TestSelectFlight_HigherTierAlwaysWins(t *testing.T) {
	candidates := []Candidate{
		{Flight: models.Flight{ID: 1}, CampaignType: models.CampaignTypeHouse, Weight: 100000},
		{Flight: models.Flight{ID: 2}, CampaignType: models.CampaignTypePaid, Weight: 0.001},
	}
	picked := SelectFlight(candidates, false, fixedRand(0.999))
	assert.NotNil(t, picked)
	assert.Equal(t, models.CampaignTypePaid, picked.CampaignType)
}

func TestSelectFlight_SkipsZeroWeightTierFallsToNext(t *testing.T) {
	candidates := []Candidate{
		{Flight: models.Flight{ID: 1}, CampaignType: models.CampaignTypePaid, Weight: 0},
		{Flight: models.Flight{ID: 2}, CampaignType: models.CampaignTypeAffiliate, Weight: 5},
	}
	picked := SelectFlight(candidates, false, fixedRand(0.1))
	assert.NotNil(t, picked)
	assert.Equal(t, models.CampaignTypeAffiliate, picked.CampaignType)
}

func TestSelectFlight_WeightedDrawWithinTier(t *testing.T) {
	candidates := []Candidate{
		{Flight: models.Flight{ID: 1}, CampaignType: models.CampaignTypePaid, Weight: 1},
		{Flight: models.Flight{ID: 2}, CampaignType: models.CampaignTypePaid, Weight: 9},
	}
	// total weight 10; draw*total = 0.05*10 = 0.5, falls in [0,1] -> flight 1.
	low := SelectFlight(candidates, false, fixedRand(0.05))
	assert.Equal(t, 1, low.Flight.ID)

	// draw*total = 0.95*10 = 9.5, falls in (1,10] -> flight 2.
	high := SelectFlight(candidates, false, fixedRand(0.95))
	assert.Equal(t, 2, high.Flight.ID)
}

// TestSelectFlight_ForcedBypassesTierAndWeight covers scenario S2: a
// forced flight is drawn uniformly regardless of its own zero weight or
// tier ranking.
func TestSelectFlight_ForcedBypassesTierAndWeight(t *testing.T) {
	candidates := []Candidate{
		{Flight: models.Flight{ID: 1}, CampaignType: models.CampaignTypeHouse, Weight: 0},
	}
	picked := SelectFlight(candidates, true, fixedRand(0))
	assert.NotNil(t, picked)
	assert.Equal(t, 1, picked.Flight.ID)
}

func TestSelectAdvertisement_NoMatchingPlacement(t *testing.T) {
	ads := []models.Advertisement{{Slug: "a1", Live: true, AdTypeSlugs: []string{"banner"}}}
	requested := []PlacementRequest{{AdType: "video", Priority: 1}}
	assert.Nil(t, SelectAdvertisement(ads, requested, "", fixedRand(0)))
}

func TestSelectAdvertisement_SkipsNonLive(t *testing.T) {
	ads := []models.Advertisement{{Slug: "a1", Live: false, AdTypeSlugs: []string{"banner"}}}
	requested := []PlacementRequest{{AdType: "banner", Priority: 1}}
	assert.Nil(t, SelectAdvertisement(ads, requested, "", fixedRand(0)))
}

func TestSelectAdvertisement_HigherPriorityWeightsMoreRepeats(t *testing.T) {
	ads := []models.Advertisement{
		{Slug: "low", Live: true, AdTypeSlugs: []string{"banner"}},
		{Slug: "high", Live: true, AdTypeSlugs: []string{"sidebar"}},
	}
	// Priority maps to (11-priority) repeats: the banner placement at
	// priority 1 gives "low" 10 entries, the sidebar placement at priority
	// 10 gives "high" 1 entry, so the weighted list is 10x low then 1x high.
	requested := []PlacementRequest{
		{AdType: "banner", Priority: 1},
		{AdType: "sidebar", Priority: 10},
	}
	// 0.5*11 = index 5 -> one of low's ten entries.
	ad := SelectAdvertisement(ads, requested, "", fixedRand(0.5))
	assert.NotNil(t, ad)
	assert.Equal(t, "low", ad.Slug)

	// 0.99*11 = index 10 -> high's single entry.
	ad = SelectAdvertisement(ads, requested, "", fixedRand(0.99))
	assert.NotNil(t, ad)
	assert.Equal(t, "high", ad.Slug)
}

func TestSelectAdvertisement_ForcedSlugBypassesLiveAndAdType(t *testing.T) {
	ads := []models.Advertisement{
		{Slug: "forced-one", Live: false, AdTypeSlugs: []string{"video"}},
		{Slug: "other", Live: true, AdTypeSlugs: []string{"banner"}},
	}
	ad := SelectAdvertisement(ads, nil, "forced-one", fixedRand(0))
	assert.NotNil(t, ad)
	assert.Equal(t, "forced-one", ad.Slug)
}
