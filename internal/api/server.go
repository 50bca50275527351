// Package api wires the decision pipeline's components into HTTP
// handlers, grounded on the teacher's internal/api/server.go Server
// struct and Reload()/notifyUpdate() pattern.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adserve/core/internal/config"
	"github.com/adserve/core/internal/db"
	"github.com/adserve/core/internal/geoip"
	"github.com/adserve/core/internal/logic"
	"github.com/adserve/core/internal/rollup"
	"github.com/adserve/core/internal/tracker"

	"github.com/adserve/core/internal/models"
)

// Server groups every dependency the decision and tracker handlers need.
type Server struct {
	Logger      *zap.Logger
	Redis       *db.RedisStore
	Postgres    *db.Postgres
	AdDataStore models.AdDataStore
	GeoIP       *geoip.GeoIP
	Matcher     *logic.Matcher
	Tracker     *tracker.Handler
	Rollup      *rollup.Worker
	Config      config.Config

	// BaseURL prefixes the view/click/view-time links the decision
	// response embeds (e.g. "https://ads.example.com").
	BaseURL string

	reloadMu sync.Mutex
}

// NewServer constructs a Server from its already-initialized
// dependencies.
func NewServer(logger *zap.Logger, redis *db.RedisStore, pg *db.Postgres, adDataStore models.AdDataStore, geo *geoip.GeoIP, matcher *logic.Matcher, trk *tracker.Handler, worker *rollup.Worker, cfg config.Config, baseURL string) *Server {
	return &Server{
		Logger:      logger,
		Redis:       redis,
		Postgres:    pg,
		AdDataStore: adDataStore,
		GeoIP:       geo,
		Matcher:     matcher,
		Tracker:     trk,
		Rollup:      worker,
		Config:      cfg,
		BaseURL:     baseURL,
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.L()
}

// AdDataUpdateChannel is the redis pubsub channel publishers/admins use
// to signal that the catalog changed out of band.
const AdDataUpdateChannel = "ad-data-updates"

type updateMessage struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
}

func (s *Server) notifyUpdate(entity, action string) {
	if s.Redis == nil || s.Redis.Client == nil {
		s.logger().Warn("redis store not available, skipping update notification")
		return
	}
	payload, err := json.Marshal(updateMessage{Entity: entity, Action: action})
	if err != nil {
		s.logger().Error("marshal update message", zap.Error(err))
		return
	}
	if err := s.Redis.Client.Publish(context.Background(), AdDataUpdateChannel, payload).Err(); err != nil {
		s.logger().Error("publish update message", zap.Error(err))
	}
}

// Reload refreshes the entire catalog from Postgres in one atomic swap.
func (s *Server) Reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.Postgres == nil {
		return fmt.Errorf("postgres unavailable")
	}
	catalog, err := s.Postgres.LoadCatalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := s.AdDataStore.ReloadAll(catalog); err != nil {
		return fmt.Errorf("reload ad data store: %w", err)
	}
	s.notifyUpdate("catalog", "reload")
	return nil
}

// StartReloadLoop periodically calls Reload until ctx is cancelled,
// mirroring the teacher's cfg.ReloadInterval ticker in tools/cmd/server.
func (s *Server) StartReloadLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Reload(); err != nil {
				s.logger().Error("periodic reload", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
