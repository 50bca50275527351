package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adserve/core/internal/models"
)

func TestServer_Reload_NoPostgresIsError(t *testing.T) {
	s := &Server{AdDataStore: models.NewInMemoryAdDataStore()}
	require.Error(t, s.Reload())
}

func TestServer_NotifyUpdate_NoRedisIsNoop(t *testing.T) {
	s := &Server{}
	assert.NotPanics(t, func() { s.notifyUpdate("catalog", "reload") })
}

func TestServer_StartReloadLoop_ZeroIntervalReturnsImmediately(t *testing.T) {
	s := &Server{AdDataStore: models.NewInMemoryAdDataStore()}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.StartReloadLoop(ctx, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartReloadLoop with zero interval did not return")
	}
}

func TestServer_StartReloadLoop_StopsOnContextCancel(t *testing.T) {
	s := &Server{AdDataStore: models.NewInMemoryAdDataStore()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.StartReloadLoop(ctx, time.Hour)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartReloadLoop did not stop after context cancellation")
	}
}
