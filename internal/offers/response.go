package offers

import (
	"strconv"
	"strings"

	"github.com/adserve/core/internal/models"
)

// Copy holds the structured headline/content/cta triple for creatives
// that use it instead of (or alongside) a single Text blob.
type Copy struct {
	Headline string `json:"headline,omitempty"`
	Content  string `json:"content,omitempty"`
	CTA      string `json:"cta,omitempty"`
}

// DecisionResponse is the JSON payload returned from the decision API
// for a single matched placement (spec.md §4.6/§6). A null decision is
// not a DecisionResponse: the caller answers it with an empty JSON object.
type DecisionResponse struct {
	ID           string `json:"id"`
	Text         string `json:"text,omitempty"`
	HTML         string `json:"html,omitempty"`
	Image        string `json:"image,omitempty"`
	Link         string `json:"link"`
	Nonce        string `json:"nonce"`
	ViewURL      string `json:"view_url"`
	ClickURL     string `json:"click_url"`
	ViewTimeURL  string `json:"view_time_url"`
	Copy         Copy   `json:"copy,omitempty"`
	Body         string `json:"body,omitempty"`
	DivID        string `json:"div_id"`
	CampaignType string `json:"campaign_type"`
}

// BuildResponse constructs the decision payload for a matched
// advertisement. The view/click/view-time URLs are path-keyed on
// (advertisement id, nonce), matching the proxy routes registered in
// cmd/server/main.go and served by internal/api/tracker_handlers.go.
func BuildResponse(baseURL string, ad models.Advertisement, offer models.Offer, campaignType string) DecisionResponse {
	suffix := "/" + strconv.Itoa(ad.ID) + "/" + offer.ID + "/"

	return DecisionResponse{
		ID:           offer.ID,
		Text:         ad.Text,
		HTML:         ad.HTML,
		Image:        ad.Image,
		Link:         expandMacros(ad.LinkURL, offer),
		Nonce:        offer.ID,
		ViewURL:      baseURL + "/proxy/view" + suffix,
		ClickURL:     baseURL + "/proxy/click" + suffix,
		ViewTimeURL:  baseURL + "/proxy/view-time" + suffix,
		Copy:         Copy{Headline: ad.Headline, Content: ad.Content, CTA: ad.CTA},
		Body:         ad.Text,
		DivID:        offer.DivID,
		CampaignType: campaignType,
	}
}

// expandMacros substitutes ${publisher} and ${advertisement} in a link
// URL, the same pair of macros the teacher's click handler expands.
func expandMacros(raw string, offer models.Offer) string {
	r := strings.NewReplacer(
		"${advertisement}", strconv.Itoa(offer.AdvertisementID),
		"${publisher}", strconv.Itoa(offer.PublisherID),
	)
	return r.Replace(raw)
}
