package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adserve/core/internal/models"
)

func TestAuthenticate_UnauthedPublisherAlwaysOK(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	pub := &models.Publisher{UnauthedAdDecisions: true}
	assert.Equal(t, authOK, authenticate(r, pub))
}

func TestAuthenticate_MissingTokenWhenAuthRequired(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	pub := &models.Publisher{AuthToken: "abc"}
	assert.Equal(t, authMissingToken, authenticate(r, pub))
}

func TestAuthenticate_WrongToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer wrong-token")
	pub := &models.Publisher{AuthToken: "correct-token"}
	assert.Equal(t, authWrongPublisher, authenticate(r, pub))
}

func TestAuthenticate_CorrectToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer correct-token")
	pub := &models.Publisher{AuthToken: "correct-token"}
	assert.Equal(t, authOK, authenticate(r, pub))
}

func TestBearerToken_MalformedHeaderIgnored(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Equal(t, "", bearerToken(r))
}
