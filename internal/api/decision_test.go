package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adserve/core/internal/config"
	"github.com/adserve/core/internal/logic"
	"github.com/adserve/core/internal/models"
)

func testServer(t *testing.T, catalog models.Catalog) *Server {
	t.Helper()
	store := models.NewInMemoryAdDataStore()
	require.NoError(t, store.ReloadAll(catalog))

	return &Server{
		AdDataStore: store,
		Matcher:     logic.NewMatcher(nil, nil),
		Config:      config.Config{MaxKeywords: 100},
		BaseURL:     "https://ads.example.com",
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func liveFlight(id int, campaignID int) models.Flight {
	now := time.Now()
	return models.Flight{
		ID:                 id,
		CampaignID:         campaignID,
		Live:               true,
		StartDate:          now.Add(-24 * time.Hour),
		EndDate:            now.Add(24 * time.Hour),
		CPC:                1.0,
		SoldClicks:         1000,
		PriorityMultiplier: 1,
	}
}

// TestDecisionHandler_BasicMatch covers scenario S1: an eligible flight
// with a matching ad returns a populated decision response.
func TestDecisionHandler_BasicMatch(t *testing.T) {
	catalog := models.Catalog{
		Publishers: []models.Publisher{{ID: 1, Slug: "pub-a", UnauthedAdDecisions: true, AllowedCampaignTypes: []string{models.CampaignTypePaid}}},
		Campaigns:  []models.Campaign{{ID: 1, Slug: "camp-a", CampaignType: models.CampaignTypePaid}},
		Flights:    []models.Flight{liveFlight(1, 1)},
		Advertisements: []models.Advertisement{
			{ID: 1, Slug: "ad-a", FlightID: 1, Live: true, AdTypeSlugs: []string{"banner"}, LinkURL: "https://advertiser.example"},
		},
	}
	s := testServer(t, catalog)

	body := strings.NewReader(`{"publisher":"pub-a","placements":[{"div_id":"header","ad_type":"banner"}]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/decision/", body)
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.NotEmpty(t, resp["id"])
	assert.Equal(t, "header", resp["div_id"])
	assert.Equal(t, models.CampaignTypePaid, resp["campaign_type"])
}

func TestDecisionHandler_UnknownPublisher(t *testing.T) {
	s := testServer(t, models.Catalog{})

	body := strings.NewReader(`{"publisher":"nope","placements":[{"div_id":"header","ad_type":"banner"}]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/decision/", body)
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecisionHandler_DisabledPublisher(t *testing.T) {
	catalog := models.Catalog{Publishers: []models.Publisher{{ID: 1, Slug: "pub-a", Disabled: true}}}
	s := testServer(t, catalog)

	body := strings.NewReader(`{"publisher":"pub-a","placements":[{"div_id":"header","ad_type":"banner"}]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/decision/", body)
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecisionHandler_MissingBearerToken(t *testing.T) {
	catalog := models.Catalog{Publishers: []models.Publisher{{ID: 1, Slug: "pub-a", AuthToken: "secret-token"}}}
	s := testServer(t, catalog)

	body := strings.NewReader(`{"publisher":"pub-a","placements":[{"div_id":"header","ad_type":"banner"}]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/decision/", body)
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDecisionHandler_WrongBearerToken(t *testing.T) {
	catalog := models.Catalog{Publishers: []models.Publisher{{ID: 1, Slug: "pub-a", AuthToken: "secret-token"}}}
	s := testServer(t, catalog)

	body := strings.NewReader(`{"publisher":"pub-a","placements":[{"div_id":"header","ad_type":"banner"}]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/decision/", body)
	r.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDecisionHandler_MissingPublisherIsBadRequest(t *testing.T) {
	s := testServer(t, models.Catalog{})

	body := strings.NewReader(`{"placements":[{"div_id":"header","ad_type":"banner"}]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/decision/", body)
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecisionHandler_NoPlacementsIsBadRequest(t *testing.T) {
	s := testServer(t, models.Catalog{})

	body := strings.NewReader(`{"publisher":"pub-a","placements":[]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/decision/", body)
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestDecisionHandler_NoEligibleFlightReturnsEmptyObject covers the
// null-decision path (spec.md §6): 200 with an empty JSON object.
func TestDecisionHandler_NoEligibleFlightReturnsEmptyObject(t *testing.T) {
	catalog := models.Catalog{Publishers: []models.Publisher{{ID: 1, Slug: "pub-a", UnauthedAdDecisions: true}}}
	s := testServer(t, catalog)

	body := strings.NewReader(`{"publisher":"pub-a","placements":[{"div_id":"header","ad_type":"banner"}]}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/decision/", body)
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestDecisionHandler_PlacementIndexWithoutMultiplePlacementsReturnsEmpty(t *testing.T) {
	catalog := models.Catalog{Publishers: []models.Publisher{{ID: 1, Slug: "pub-a", UnauthedAdDecisions: true, AllowMultiplePlacements: false}}}
	s := testServer(t, catalog)

	body := strings.NewReader(`{"publisher":"pub-a","placements":[{"div_id":"header","ad_type":"banner"}],"placement_index":1}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/decision/", body)
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

// TestDecisionHandler_ForceAdBypassesTargeting covers scenario S2: a
// forced ad is returned even though its flight's geo targeting would
// otherwise reject the request.
func TestDecisionHandler_ForceAdBypassesTargeting(t *testing.T) {
	flight := liveFlight(1, 1)
	flight.Targeting = models.TargetingParams{IncludeCountries: []string{"FR"}}
	catalog := models.Catalog{
		Publishers: []models.Publisher{{ID: 1, Slug: "pub-a", UnauthedAdDecisions: true, AllowedCampaignTypes: []string{models.CampaignTypePaid}}},
		Campaigns:  []models.Campaign{{ID: 1, Slug: "camp-a", CampaignType: models.CampaignTypePaid}},
		Flights:    []models.Flight{flight},
		Advertisements: []models.Advertisement{
			{ID: 1, Slug: "ad-a", FlightID: 1, Live: true, AdTypeSlugs: []string{"banner"}},
		},
	}
	s := testServer(t, catalog)

	body := strings.NewReader(`{"publisher":"pub-a","placements":[{"div_id":"header","ad_type":"banner"}],"force_ad":"ad-a"}`)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/decision/", body)
	r.Header.Set("User-Agent", "Mozilla/5.0")
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.NotEmpty(t, resp["id"])
}

func TestDecisionHandler_GETWithQueryParams(t *testing.T) {
	catalog := models.Catalog{
		Publishers: []models.Publisher{{ID: 1, Slug: "pub-a", UnauthedAdDecisions: true, AllowedCampaignTypes: []string{models.CampaignTypePaid}}},
		Campaigns:  []models.Campaign{{ID: 1, Slug: "camp-a", CampaignType: models.CampaignTypePaid}},
		Flights:    []models.Flight{liveFlight(1, 1)},
		Advertisements: []models.Advertisement{
			{ID: 1, Slug: "ad-a", FlightID: 1, Live: true, AdTypeSlugs: []string{"banner"}},
		},
	}
	s := testServer(t, catalog)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/decision/?publisher=pub-a&div_id=header&ad_type=banner", nil)
	rec := httptest.NewRecorder()

	s.DecisionHandler(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.NotEmpty(t, resp["id"])
}

func TestUnionKeywords_DedupesCaseInsensitively(t *testing.T) {
	got := unionKeywords([]string{"Sports", "travel"}, []string{"sports", "finance"})
	assert.Equal(t, []string{"Sports", "travel", "finance"}, got)
}
