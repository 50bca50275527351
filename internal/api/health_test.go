package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adserve/core/internal/config"
	"github.com/adserve/core/internal/db"
	"github.com/adserve/core/internal/rollup"
)

func healthTestRedisStore(t *testing.T) *db.RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	return &db.RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		Ctx:    context.Background(),
	}
}

func TestHealthHandler_NoRollupWorkerIsOK(t *testing.T) {
	s := &Server{Config: config.Config{RollupHeartbeatStale: time.Minute}}
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.HealthHandler(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler_FreshHeartbeatIsOK(t *testing.T) {
	store := healthTestRedisStore(t)
	require.NoError(t, store.WriteHeartbeat(rollup.HeartbeatKey))

	s := &Server{
		Rollup: &rollup.Worker{Redis: store},
		Config: config.Config{RollupHeartbeatStale: time.Minute},
	}
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.HealthHandler(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler_StaleHeartbeatIsDegraded(t *testing.T) {
	store := healthTestRedisStore(t)
	require.NoError(t, store.Client.Set(store.Ctx, rollup.HeartbeatKey, time.Now().Add(-time.Hour).Unix(), 0).Err())

	s := &Server{
		Rollup: &rollup.Worker{Redis: store},
		Config: config.Config{RollupHeartbeatStale: time.Minute},
	}
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.HealthHandler(rec, r)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
