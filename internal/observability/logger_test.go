package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetLogLevel_DevDefaultsToDebug(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, zap.DebugLevel, getLogLevel())
}

func TestGetLogLevel_ExplicitOverridesEnv(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("LOG_LEVEL", "ERROR")
	assert.Equal(t, zap.ErrorLevel, getLogLevel())
}

func TestGetLogLevel_DefaultsToInfo(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, zap.InfoLevel, getLogLevel())
}

func TestShouldSample_Bounds(t *testing.T) {
	assert.True(t, ShouldSample(1.0))
	assert.False(t, ShouldSample(0.0))
}

func TestGetSamplingRate_ByEnv(t *testing.T) {
	t.Setenv("ENV", "development")
	assert.Equal(t, 1.0, GetSamplingRate())

	t.Setenv("ENV", "staging")
	assert.Equal(t, 0.5, GetSamplingRate())

	t.Setenv("ENV", "production")
	assert.Equal(t, 0.1, GetSamplingRate())
}

func TestInitLoggerWithLevel_Succeeds(t *testing.T) {
	logger, err := InitLoggerWithLevel(zap.InfoLevel, "adserve-test")
	assert.NoError(t, err)
	assert.NotNil(t, logger)
}
