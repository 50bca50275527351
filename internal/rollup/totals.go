// Package rollup implements the periodic aggregator (C8): refreshing
// denormalized flight totals from AdImpression rows, writing a
// per-worker heartbeat, and applying refunds. Grounded on the teacher's
// background-ticker pattern in tools/cmd/server/main.go (auto-reload
// ticker keyed off cfg.ReloadInterval) and on
// original_source/adserver/management/commands/refresh_flight_totals.py
// for the "sum impressions per flight, write back denormalized totals"
// shape, adapted from a one-shot management command into a recurring
// worker per spec.md §4.8.
package rollup

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/adserve/core/internal/db"
	"github.com/adserve/core/internal/models"
)

// ErrStaleHeartbeat is returned by HealthStatus when the worker hasn't
// written a heartbeat recently enough.
var ErrStaleHeartbeat = errors.New("rollup heartbeat stale")

// DefaultInterval is the nominal refresh cadence from spec.md §4.8.
const DefaultInterval = 5 * time.Minute

// HeartbeatKey is the cache key the worker writes its last-run time to.
const HeartbeatKey = "rollup:heartbeat"

// Worker periodically sums AdImpression rows into flight-level totals.
type Worker struct {
	Store    models.AdDataStore
	Postgres *db.Postgres
	Redis    *db.RedisStore
	Logger   *zap.Logger
	Interval time.Duration
}

func (w *Worker) logger() *zap.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return zap.L()
}

// Run blocks, refreshing totals on a ticker until ctx is canceled,
// mirroring the teacher's reload-ticker goroutine shape.
func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RefreshAll(); err != nil {
				w.logger().Error("rollup refresh", zap.Error(err))
			}
			if err := w.Redis.WriteHeartbeat(HeartbeatKey); err != nil {
				w.logger().Error("rollup heartbeat", zap.Error(err))
			}
		}
	}
}

// RefreshAll sums AdImpression counters into total_views/total_clicks
// for every flight, one batched Postgres sum per flight followed by a
// single atomic store swap, mirroring refresh_flight_totals.py's
// per-flight loop but collecting results before the one write.
func (w *Worker) RefreshAll() error {
	flights := w.Store.GetAllFlights()
	updates := make(map[int]models.FlightTotals, len(flights))

	for _, f := range flights {
		ads := w.Store.GetAdvertisementsByFlight(f.ID)
		if len(ads) == 0 {
			continue
		}
		ids := make([]int, len(ads))
		for i, a := range ads {
			ids[i] = a.ID
		}
		views, clicks, err := w.Postgres.SumFlightTotals(ids)
		if err != nil {
			w.logger().Error("sum flight totals", zap.Int("flight_id", f.ID), zap.Error(err))
			continue
		}
		updates[f.ID] = models.FlightTotals{TotalViews: views, TotalClicks: clicks}
	}

	return w.Store.UpdateFlightsTotals(updates)
}

// HealthStatus reports whether the worker's heartbeat is still fresh.
func (w *Worker) HealthStatus(staleAfter time.Duration) error {
	age, err := w.Redis.HeartbeatAge(HeartbeatKey)
	if err != nil {
		return err
	}
	if age > staleAfter {
		return ErrStaleHeartbeat
	}
	return nil
}
