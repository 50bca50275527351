package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryAdDataStore_LookupsAfterReload(t *testing.T) {
	store := NewInMemoryAdDataStore()

	catalog := Catalog{
		Publishers: []Publisher{{ID: 1, Slug: "pub-a", AuthToken: "tok-a"}},
		Campaigns:  []Campaign{{ID: 1, Slug: "camp-a", CampaignType: CampaignTypePaid}},
		Flights:    []Flight{{ID: 1, CampaignID: 1}},
		Advertisements: []Advertisement{
			{ID: 1, Slug: "ad-a", FlightID: 1},
		},
	}
	require.NoError(t, store.ReloadAll(catalog))

	assert.Equal(t, "pub-a", store.GetPublisher(1).Slug)
	assert.Equal(t, 1, store.GetPublisherBySlug("pub-a").ID)
	assert.Equal(t, 1, store.GetPublisherByToken("tok-a").ID)
	assert.Nil(t, store.GetPublisherByToken("unknown"))
	assert.Equal(t, "camp-a", store.GetCampaignBySlug("camp-a").Slug)
	assert.Len(t, store.GetAdvertisementsByFlight(1), 1)
	assert.Len(t, store.GetAllFlights(), 1)
}

func TestInMemoryAdDataStore_ReloadReplacesPriorCatalog(t *testing.T) {
	store := NewInMemoryAdDataStore()
	require.NoError(t, store.ReloadAll(Catalog{Publishers: []Publisher{{ID: 1, Slug: "old"}}}))
	require.NoError(t, store.ReloadAll(Catalog{Publishers: []Publisher{{ID: 2, Slug: "new"}}}))

	assert.Nil(t, store.GetPublisher(1))
	assert.Equal(t, "new", store.GetPublisher(2).Slug)
}

func TestInMemoryAdDataStore_UpdateFlightsTotals(t *testing.T) {
	store := NewInMemoryAdDataStore()
	require.NoError(t, store.ReloadAll(Catalog{Flights: []Flight{{ID: 1}, {ID: 2}}}))

	require.NoError(t, store.UpdateFlightTotals(1, 100, 5))

	f := store.GetFlight(1)
	assert.Equal(t, 100, f.TotalViews)
	assert.Equal(t, 5, f.TotalClicks)

	other := store.GetFlight(2)
	assert.Equal(t, 0, other.TotalViews)
}

func TestInMemoryAdDataStore_UpdateFlightsTotals_UnknownFlightErrors(t *testing.T) {
	store := NewInMemoryAdDataStore()
	require.NoError(t, store.ReloadAll(Catalog{Flights: []Flight{{ID: 1}}}))

	err := store.UpdateFlightTotals(999, 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryAdDataStore_EmptyStoreHasNoLookups(t *testing.T) {
	store := NewInMemoryAdDataStore()
	assert.Nil(t, store.GetPublisher(1))
	assert.Nil(t, store.GetFlight(1))
	assert.Empty(t, store.GetAllFlights())
}
