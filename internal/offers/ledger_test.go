package offers

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adserve/core/internal/models"
)

func TestCreateOffer_MintsUUIDv7Nonce(t *testing.T) {
	offer, err := CreateOffer(nil, nil, "pub-1", NewOfferInput{AdvertisementID: 1, PublisherID: 1})
	require.NoError(t, err)

	parsed, err := uuid.Parse(offer.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

// TestCreateOffer_ForcedUsesSentinelNonce covers property 6: non-house
// forced ads get the fixed "forced" sentinel nonce instead of a real one.
func TestCreateOffer_ForcedUsesSentinelNonce(t *testing.T) {
	offer, err := CreateOffer(nil, nil, "pub-1", NewOfferInput{AdvertisementID: 1, PublisherID: 1, Forced: true})
	require.NoError(t, err)
	assert.Equal(t, models.ForcedNonce, offer.ID)
}

func TestCreateOffer_TruncatesDivID(t *testing.T) {
	long := strings.Repeat("x", DivIDMaxLen+50)
	offer, err := CreateOffer(nil, nil, "pub-1", NewOfferInput{DivID: long})
	require.NoError(t, err)
	assert.Len(t, []rune(offer.DivID), DivIDMaxLen)
}

func TestCreateOffer_RotationsDefaultsToOne(t *testing.T) {
	offer, err := CreateOffer(nil, nil, "pub-1", NewOfferInput{Rotations: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, offer.Rotations)

	offer, err = CreateOffer(nil, nil, "pub-1", NewOfferInput{Rotations: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, offer.Rotations)
}

func TestCreateOffer_DropsMalformedURL(t *testing.T) {
	offer, err := CreateOffer(nil, nil, "pub-1", NewOfferInput{URL: "not a url"})
	require.NoError(t, err)
	assert.Equal(t, "", offer.URL)

	offer, err = CreateOffer(nil, nil, "pub-1", NewOfferInput{URL: "https://example.com/page"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", offer.URL)
}

func TestCreateOffer_AnonymizesIP(t *testing.T) {
	offer, err := CreateOffer(nil, nil, "pub-1", NewOfferInput{RawIP: "203.0.113.99"})
	require.NoError(t, err)
	assert.Equal(t, "203.0.0.0", offer.AnonymizedIP)
}

func TestRecordDecision_NilPostgresIsNoop(t *testing.T) {
	assert.NoError(t, RecordDecision(nil, 1, 1, time.Now()))
}

func TestRecordOfferServed_NilPostgresIsNoop(t *testing.T) {
	assert.NoError(t, RecordOfferServed(nil, 1, 1, time.Now()))
}
