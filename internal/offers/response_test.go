package offers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adserve/core/internal/models"
)

func TestBuildResponse_URLsArePathKeyedOnAdAndNonce(t *testing.T) {
	ad := models.Advertisement{ID: 42, LinkURL: "https://advertiser.example/${advertisement}"}
	offer := models.Offer{ID: "01977b3a-nonce", PublisherID: 7, AdvertisementID: 42, DivID: "header"}

	resp := BuildResponse("https://ads.example.com", ad, offer, models.CampaignTypePaid)

	assert.Equal(t, "https://ads.example.com/proxy/view/42/01977b3a-nonce/", resp.ViewURL)
	assert.Equal(t, "https://ads.example.com/proxy/click/42/01977b3a-nonce/", resp.ClickURL)
	assert.Equal(t, "https://ads.example.com/proxy/view-time/42/01977b3a-nonce/", resp.ViewTimeURL)
	assert.Equal(t, "https://advertiser.example/42", resp.Link)
	assert.Equal(t, "header", resp.DivID)
	assert.Equal(t, models.CampaignTypePaid, resp.CampaignType)
	assert.Equal(t, offer.ID, resp.Nonce)
}

func TestBuildResponse_CopyTriple(t *testing.T) {
	ad := models.Advertisement{Headline: "Big Sale", Content: "Save now", CTA: "Shop"}
	offer := models.Offer{ID: "n"}

	resp := BuildResponse("https://ads.example.com", ad, offer, models.CampaignTypeHouse)
	assert.Equal(t, Copy{Headline: "Big Sale", Content: "Save now", CTA: "Shop"}, resp.Copy)
}

func TestExpandMacros(t *testing.T) {
	offer := models.Offer{PublisherID: 3, AdvertisementID: 9}
	got := expandMacros("https://advertiser.example/${advertisement}?pub=${publisher}", offer)
	assert.Equal(t, "https://advertiser.example/9?pub=3", got)
}
