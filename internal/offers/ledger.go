// Package offers implements the offer ledger (C6): materializing a
// decision into a durable Offer row plus short-lived nonce cache state,
// and building the Decision API response payload. Grounded on the
// teacher's internal/token package for identifier-handling style; the
// actual mechanism (durable row + cache-backed single-use nonce) is
// spec.md §4.6/§5's, not the teacher's stateless signed token.
package offers

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/adserve/core/internal/db"
	"github.com/adserve/core/internal/logic"
	"github.com/adserve/core/internal/models"
)

// DivIDMaxLen truncates div_id to 100 runes before persistence.
const DivIDMaxLen = 100

// NewOfferInput carries what CreateOffer needs to build and persist an
// Offer plus its nonce cache state. AdvertisementID is 0 for a null decision.
type NewOfferInput struct {
	AdvertisementID int
	PublisherID     int
	AdTypeSlug      string
	DivID           string
	RawIP           string
	UserAgent       string
	ParsedUA        logic.ParsedUA
	Country         string
	Keywords        []string
	URL             string
	Rotations       int
	PaidEligible    bool
	Forced          bool
}

// CreateOffer mints a fresh UUIDv7 nonce (or the "forced" sentinel),
// persists the Offer row, and — unless forced — writes the 4h-TTL nonce
// cache entries described in spec.md §4.6. Forced offers are not billed,
// so they skip the cache entirely (a nonce that can never be claimed).
func CreateOffer(pg *db.Postgres, redis *db.RedisStore, publisherSlug string, in NewOfferInput) (models.Offer, error) {
	id := models.ForcedNonce
	if !in.Forced {
		u, err := uuid.NewV7()
		if err != nil {
			return models.Offer{}, fmt.Errorf("mint nonce: %w", err)
		}
		id = u.String()
	}

	divID := in.DivID
	if len([]rune(divID)) > DivIDMaxLen {
		divID = string([]rune(divID)[:DivIDMaxLen])
	}

	rotations := in.Rotations
	if rotations <= 0 {
		rotations = 1
	}

	offer := models.Offer{
		ID:              id,
		AdvertisementID: in.AdvertisementID,
		PublisherID:     in.PublisherID,
		AdTypeSlug:      in.AdTypeSlug,
		DivID:           divID,
		AnonymizedIP:    logic.AnonymizeIP(in.RawIP),
		UserAgent:       logic.PersistedUserAgent(in.UserAgent, in.ParsedUA, false),
		Browser:         in.ParsedUA.Browser,
		OS:              in.ParsedUA.OS,
		IsBot:           in.ParsedUA.IsBot,
		IsMobile:        in.ParsedUA.IsMobile,
		Country:         in.Country,
		Keywords:        in.Keywords,
		URL:             validatedURL(in.URL),
		Rotations:       rotations,
		PaidEligible:    in.PaidEligible,
		CreatedAt:       time.Now(),
	}

	if pg != nil {
		if err := pg.InsertOffer(offer); err != nil {
			return offer, err
		}
	}

	if !in.Forced && redis != nil {
		if err := redis.PutNonceState(in.AdvertisementID, id, publisherSlug); err != nil {
			return offer, fmt.Errorf("write nonce state: %w", err)
		}
	}

	return offer, nil
}

// RecordDecision increments the AdImpression "decisions" counter for a
// (publisher, advertisement) pair, including the sentinel row
// (advertisementID == 0) used when no flight was eligible.
func RecordDecision(pg *db.Postgres, publisherID, advertisementID int, at time.Time) error {
	if pg == nil {
		return nil
	}
	day := at.Truncate(24 * time.Hour)
	return pg.UpsertAdImpression(publisherID, advertisementID, day, 1, 0, 0, 0)
}

// RecordOfferServed increments the AdImpression "offers" counter once an
// offer has actually been minted for a matched decision.
func RecordOfferServed(pg *db.Postgres, publisherID, advertisementID int, at time.Time) error {
	if pg == nil {
		return nil
	}
	day := at.Truncate(24 * time.Hour)
	return pg.UpsertAdImpression(publisherID, advertisementID, day, 0, 1, 0, 0)
}

func validatedURL(raw string) string {
	if raw == "" {
		return ""
	}
	if !isWellFormedURL(raw) {
		return ""
	}
	return raw
}

func isWellFormedURL(raw string) bool {
	for _, r := range raw {
		if r <= 0x20 {
			return false
		}
	}
	return len(raw) > 0 && (hasPrefix(raw, "http://") || hasPrefix(raw, "https://"))
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
