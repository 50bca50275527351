package api

import (
	"net/http"
	"strings"

	"github.com/adserve/core/internal/models"
)

// authResult is the outcome of authenticating a decision request against
// a resolved publisher.
type authResult int

const (
	authOK authResult = iota
	authMissingToken
	authWrongPublisher
)

// authenticate implements spec.md §6: decision requests require a
// bearer token unless the publisher has unauthed_ad_decisions=true.
// Tokens are opaque, one-to-one with a publisher, modeled on the
// teacher's X-API-Key header check in GetAdHandler but generalized to
// the Authorization: Bearer <token> scheme.
func authenticate(r *http.Request, pub *models.Publisher) authResult {
	if pub.UnauthedAdDecisions {
		return authOK
	}
	token := bearerToken(r)
	if token == "" {
		return authMissingToken
	}
	if pub.AuthToken == "" || token != pub.AuthToken {
		return authWrongPublisher
	}
	return authOK
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}
