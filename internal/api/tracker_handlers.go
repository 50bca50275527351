package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ViewProxyHandler implements GET /proxy/view/{advertisement_id}/{nonce}/.
func (s *Server) ViewProxyHandler(w http.ResponseWriter, r *http.Request) {
	adID, nonce, ok := pathAdAndNonce(w, r)
	if !ok {
		return
	}
	s.Tracker.ViewProxy(w, r, adID, nonce)
}

// ClickProxyHandler implements GET /proxy/click/{advertisement_id}/{nonce}/.
func (s *Server) ClickProxyHandler(w http.ResponseWriter, r *http.Request) {
	adID, nonce, ok := pathAdAndNonce(w, r)
	if !ok {
		return
	}
	s.Tracker.ClickProxy(w, r, adID, nonce)
}

// ViewTimeHandler implements GET /proxy/view-time/{advertisement_id}/{nonce}/.
func (s *Server) ViewTimeHandler(w http.ResponseWriter, r *http.Request) {
	adID, nonce, ok := pathAdAndNonce(w, r)
	if !ok {
		return
	}
	s.Tracker.ViewTime(w, r, adID, nonce)
}

func pathAdAndNonce(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	vars := mux.Vars(r)
	nonce := vars["nonce"]
	adID, err := strconv.Atoi(vars["advertisement_id"])
	if err != nil {
		http.Error(w, "invalid advertisement_id", http.StatusBadRequest)
		return 0, "", false
	}
	return adID, nonce, true
}
