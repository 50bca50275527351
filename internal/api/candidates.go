package api

import (
	"time"

	"github.com/adserve/core/internal/logic"
	"github.com/adserve/core/internal/logic/selectors"
	"github.com/adserve/core/internal/models"
)

// buildCandidates walks the live catalog and returns every flight that
// passes §4.3's targeting filter (or the force_ad/force_campaign bypass
// of rules 1-8 and the live/date window per §4.3), annotated with its
// pacing weight (§4.4) for the selector (§4.5).
func (s *Server) buildCandidates(ctx models.TargetingContext, pub *models.Publisher, requestedAdTypes []string, forced bool) []selectors.Candidate {
	capMode := logic.CTRCapMode(s.Config.PacingCTRCapMode)
	if capMode != logic.CTRCapModeTotal {
		capMode = logic.CTRCapModeCompound
	}

	var out []selectors.Candidate
	now := time.Now()

	for _, flight := range s.AdDataStore.GetAllFlights() {
		campaign := s.AdDataStore.GetCampaign(flight.CampaignID)
		if campaign == nil {
			continue
		}
		ads := s.AdDataStore.GetAdvertisementsByFlight(flight.ID)

		thisForced := forced && (matchesForceAd(ads, ctx.ForceAdSlug) || campaign.Slug == ctx.ForceCampaignSlug)
		if forced && !thisForced {
			// a different flight is the forced target.
			continue
		}

		bypassCampaignTypeRule := thisForced && campaign.CampaignType == models.CampaignTypeHouse
		if !bypassCampaignTypeRule && !logic.CampaignTypeAllowed(campaign.CampaignType, pub, ctx.CampaignTypes) {
			continue
		}

		if !thisForced {
			if !flight.IsLiveOn(now) {
				continue
			}
			if !s.Matcher.MatchesFlight(flight.Targeting, ctx, campaign.Slug, pub) {
				continue
			}
			if !logic.MatchesPlacement(ads, requestedAdTypes) {
				continue
			}
		}

		need := logic.ComputeNeed(&flight, s.Redis)
		weight := logic.WeightedClicksNeeded(&flight, need, 0, pub.SampledCTR, capMode)
		if !thisForced {
			if weight <= 0 {
				continue
			}
			if logic.DailyCapExceeded(&flight, s.Redis) {
				continue
			}
		}

		out = append(out, selectors.Candidate{
			Flight:       flight,
			CampaignType: campaign.CampaignType,
			Weight:       weight,
			Ads:          ads,
		})
	}
	return out
}

func matchesForceAd(ads []models.Advertisement, forceAdSlug string) bool {
	if forceAdSlug == "" {
		return false
	}
	for _, ad := range ads {
		if ad.Slug == forceAdSlug {
			return true
		}
	}
	return false
}
