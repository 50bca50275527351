package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/adserve/core/internal/observability"
)

// HealthHandler reports process health plus the rollup worker's
// heartbeat freshness (spec.md §4.8).
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "health"
	const method = "GET"

	status := http.StatusOK
	body := map[string]string{"status": "ok"}

	if s.Rollup != nil {
		staleAfter := s.Config.RollupHeartbeatStale
		if err := s.Rollup.HealthStatus(staleAfter); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["reason"] = err.Error()
		}
	}

	writeJSON(w, status, body)
	observability.IncrementRequests(endpoint, method, strconv.Itoa(status))
	observability.RequestLatency.WithLabelValues(endpoint, method).Observe(time.Since(start).Seconds())
}
