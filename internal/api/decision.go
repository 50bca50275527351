package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/adserve/core/internal/logic"
	"github.com/adserve/core/internal/logic/selectors"
	"github.com/adserve/core/internal/models"
	"github.com/adserve/core/internal/observability"
	"github.com/adserve/core/internal/offers"
)

// placementField is one requested ad slot (spec.md §6).
type placementField struct {
	DivID    string `json:"div_id"`
	AdType   string `json:"ad_type"`
	Priority int    `json:"priority,omitempty"`
}

// decisionRequest is the Decision API request body, also populated from
// query params on GET (spec.md §6).
type decisionRequest struct {
	Publisher      string           `json:"publisher"`
	Placements     []placementField `json:"placements"`
	Keywords       []string         `json:"keywords,omitempty"`
	CampaignTypes  []string         `json:"campaign_types,omitempty"`
	URL            string           `json:"url,omitempty"`
	PlacementIndex int              `json:"placement_index,omitempty"`
	UserIP         string           `json:"user_ip,omitempty"`
	UserUA         string           `json:"user_ua,omitempty"`
	ForceAd        string           `json:"force_ad,omitempty"`
	ForceCampaign  string           `json:"force_campaign,omitempty"`
	Rotations      int              `json:"rotations,omitempty"`
}

const maxKeywordsDefault = 100

func decodeDecisionRequest(r *http.Request, maxKeywords int) (decisionRequest, string, int) {
	var req decisionRequest

	if r.Method == http.MethodPost {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, "malformed request body", http.StatusBadRequest
		}
	} else {
		q := r.URL.Query()
		req.Publisher = q.Get("publisher")
		req.URL = q.Get("url")
		req.UserIP = q.Get("user_ip")
		req.UserUA = q.Get("user_ua")
		req.ForceAd = q.Get("force_ad")
		req.ForceCampaign = q.Get("force_campaign")
		if q.Get("div_id") != "" || q.Get("ad_type") != "" {
			p := placementField{DivID: q.Get("div_id"), AdType: q.Get("ad_type")}
			if pr := q.Get("priority"); pr != "" {
				if n, err := strconv.Atoi(pr); err == nil {
					p.Priority = n
				}
			}
			req.Placements = []placementField{p}
		}
		if kw := q.Get("keywords"); kw != "" {
			req.Keywords = strings.Split(kw, ",")
		}
		if ct := q.Get("campaign_types"); ct != "" {
			req.CampaignTypes = strings.Split(ct, ",")
		}
		if pi := q.Get("placement_index"); pi != "" {
			if n, err := strconv.Atoi(pi); err == nil {
				req.PlacementIndex = n
			}
		}
		if rot := q.Get("rotations"); rot != "" {
			if n, err := strconv.Atoi(rot); err == nil {
				req.Rotations = n
			}
		}
	}

	if req.Publisher == "" {
		return req, "publisher is required", http.StatusBadRequest
	}
	if len(req.Placements) == 0 {
		return req, "placements is required", http.StatusBadRequest
	}
	if len(req.Keywords) > maxKeywords {
		return req, logic.ErrTooManyKeywords.Error(), http.StatusBadRequest
	}
	if req.PlacementIndex < 0 || req.PlacementIndex > 9 {
		return req, logic.ErrInvalidPlacementIndex.Error(), http.StatusBadRequest
	}
	return req, "", 0
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecisionHandler implements POST/GET /api/v1/decision/ (spec.md §6).
func (s *Server) DecisionHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "decision"
	method := r.Method
	logger := s.logger()

	maxKeywords := s.Config.MaxKeywords
	if maxKeywords <= 0 {
		maxKeywords = maxKeywordsDefault
	}

	req, errMsg, status := decodeDecisionRequest(r, maxKeywords)
	if errMsg != "" {
		observability.IncrementRequests(endpoint, method, strconv.Itoa(status))
		writeJSONError(w, status, errMsg)
		return
	}

	pub := s.AdDataStore.GetPublisherBySlug(req.Publisher)
	if pub == nil {
		logger.Debug("decision rejected", zap.String("publisher", req.Publisher), zap.Error(logic.ErrUnknownPublisher))
		observability.IncrementRequests(endpoint, method, "400")
		writeJSONError(w, http.StatusBadRequest, logic.ErrUnknownPublisher.Error())
		return
	}
	if pub.Disabled {
		logger.Debug("decision rejected", zap.String("publisher", req.Publisher), zap.Error(logic.ErrDisabledPublisher))
		observability.IncrementRequests(endpoint, method, "400")
		writeJSONError(w, http.StatusBadRequest, logic.ErrDisabledPublisher.Error())
		return
	}

	switch authenticate(r, pub) {
	case authMissingToken:
		observability.IncrementRequests(endpoint, method, "401")
		writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
		return
	case authWrongPublisher:
		observability.IncrementRequests(endpoint, method, "403")
		writeJSONError(w, http.StatusForbidden, "token not linked to publisher")
		return
	}

	if req.PlacementIndex > 0 && !pub.AllowMultiplePlacements {
		observability.NoAdCount.Inc()
		observability.IncrementRequests(endpoint, method, "200")
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}

	ip := req.UserIP
	if ip == "" {
		ip = logic.ClientIP(r)
	}
	ua := req.UserUA
	if ua == "" {
		ua = r.Header.Get("User-Agent")
	}
	parsedUA := logic.ParseUA(ua)
	country, region, metro := logic.ResolveGeo(s.GeoIP, ip)

	ctx := logic.BuildTargetingContext(country, region, metro, parsedUA)
	ctx.PublisherSlug = pub.Slug
	ctx.URL = req.URL
	ctx.Weekday = int(time.Now().UTC().Weekday())
	ctx.CampaignTypes = req.CampaignTypes
	ctx.ForceAdSlug = req.ForceAd
	ctx.ForceCampaignSlug = req.ForceCampaign
	ctx.Keywords = unionKeywords(req.Keywords, pub.DefaultKeywords)

	requestedAdTypes := make([]selectors.PlacementRequest, 0, len(req.Placements))
	adTypeSlugs := make([]string, 0, len(req.Placements))
	for _, p := range req.Placements {
		requestedAdTypes = append(requestedAdTypes, selectors.PlacementRequest{DivID: p.DivID, AdType: p.AdType, Priority: p.Priority})
		adTypeSlugs = append(adTypeSlugs, p.AdType)
	}

	forced := req.ForceAd != "" || req.ForceCampaign != ""
	candidates := s.buildCandidates(ctx, pub, adTypeSlugs, forced)

	picked := selectors.SelectFlight(candidates, forced, nil)
	now := time.Now()

	if picked == nil {
		logger.Debug("no ad", zap.String("publisher", pub.Slug), zap.Error(logic.ErrNoEligibleFlight))
		if err := offers.RecordDecision(s.Postgres, pub.ID, 0, now); err != nil {
			logger.Error("record null decision", zap.Error(err))
		}
		observability.NoAdCount.Inc()
		observability.IncrementRequests(endpoint, method, "200")
		observability.RequestLatency.WithLabelValues(endpoint, method).Observe(time.Since(start).Seconds())
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}

	ad := selectors.SelectAdvertisement(picked.Ads, requestedAdTypes, req.ForceAd, nil)
	if ad == nil {
		logger.Debug("no ad", zap.String("publisher", pub.Slug), zap.Error(logic.ErrUnknownPlacement))
		if err := offers.RecordDecision(s.Postgres, pub.ID, 0, now); err != nil {
			logger.Error("record null decision", zap.Error(err))
		}
		observability.NoAdCount.Inc()
		observability.IncrementRequests(endpoint, method, "200")
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}

	campaignType := picked.CampaignType
	isHouseForced := forced && campaignType == models.CampaignTypeHouse
	billableForced := !forced || isHouseForced

	divID := ""
	if len(req.Placements) > req.PlacementIndex {
		divID = req.Placements[req.PlacementIndex].DivID
	} else if len(req.Placements) > 0 {
		divID = req.Placements[0].DivID
	}

	offer, err := offers.CreateOffer(s.Postgres, s.Redis, pub.Slug, offers.NewOfferInput{
		AdvertisementID: ad.ID,
		PublisherID:     pub.ID,
		AdTypeSlug:      firstMatchingAdType(*ad, adTypeSlugs),
		DivID:           divID,
		RawIP:           ip,
		UserAgent:       ua,
		ParsedUA:        parsedUA,
		Country:         country,
		Keywords:        ctx.Keywords,
		URL:             req.URL,
		Rotations:       req.Rotations,
		PaidEligible:    campaignType == models.CampaignTypePaid,
		Forced:          !billableForced,
	})
	if err != nil {
		logger.Error("create offer", zap.Error(err))
		observability.IncrementRequests(endpoint, method, "200")
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}

	if err := offers.RecordOfferServed(s.Postgres, pub.ID, ad.ID, now); err != nil {
		logger.Error("record offer served", zap.Error(err))
	}
	if err := offers.RecordDecision(s.Postgres, pub.ID, ad.ID, now); err != nil {
		logger.Error("record decision", zap.Error(err))
	}

	observability.DecisionCount.WithLabelValues(campaignType).Inc()
	observability.IncrementRequests(endpoint, method, "200")
	observability.RequestLatency.WithLabelValues(endpoint, method).Observe(time.Since(start).Seconds())

	resp := offers.BuildResponse(s.BaseURL, *ad, offer, campaignType)
	writeJSON(w, http.StatusOK, resp)
}

// firstMatchingAdType returns the first requested ad type slug the
// advertisement also declares, or its first declared slug if none of the
// requested ones match (forced-ad path).
func firstMatchingAdType(ad models.Advertisement, requested []string) string {
	for _, slug := range requested {
		if ad.MatchesAdType(slug) {
			return slug
		}
	}
	if len(ad.AdTypeSlugs) > 0 {
		return ad.AdTypeSlugs[0]
	}
	return ""
}

func unionKeywords(request, defaults []string) []string {
	seen := make(map[string]struct{}, len(request)+len(defaults))
	out := make([]string, 0, len(request)+len(defaults))
	for _, list := range [][]string{request, defaults} {
		for _, k := range list {
			key := strings.ToLower(k)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}
