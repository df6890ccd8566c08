package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "https://power.larc.nasa.gov/api/temporal/daily/point", cfg.PowerBaseURL)
	assert.Equal(t, "AG", cfg.PowerCommunity)
	assert.Equal(t, "19810101", cfg.PowerStart)
	assert.Equal(t, "20241231", cfg.PowerEnd)
	assert.Equal(t, 60*time.Second, cfg.PowerTimeout)
	assert.Equal(t, 3, cfg.PowerMaxRetries)
	assert.Empty(t, cfg.PowerFixture)
	assert.Equal(t, 7, cfg.DefaultWindowDays)
	assert.Equal(t, domain.DefaultThresholds(), cfg.Thresholds)
	assert.Zero(t, cfg.ConfidenceLevel)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "likelihood-results", cfg.KafkaResultsTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://climo.example")
	t.Setenv("POWER_BASE_URL", "http://power.test/daily")
	t.Setenv("POWER_COMMUNITY", "RE")
	t.Setenv("POWER_START", "20000101")
	t.Setenv("POWER_END", "20201231")
	t.Setenv("POWER_TIMEOUT", "15s")
	t.Setenv("POWER_MAX_RETRIES", "0")
	t.Setenv("POWER_FIXTURE", "testdata/power.json")
	t.Setenv("DEFAULT_WINDOW_DAYS", "10")
	t.Setenv("THRESHOLD_HOT", "35.5")
	t.Setenv("THRESHOLD_COLD", "-10")
	t.Setenv("CONFIDENCE_LEVEL", "0.9")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_RESULTS_TOPIC", "custom-results")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "https://climo.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "http://power.test/daily", cfg.PowerBaseURL)
	assert.Equal(t, "RE", cfg.PowerCommunity)
	assert.Equal(t, "20000101", cfg.PowerStart)
	assert.Equal(t, "20201231", cfg.PowerEnd)
	assert.Equal(t, 15*time.Second, cfg.PowerTimeout)
	assert.Equal(t, 0, cfg.PowerMaxRetries)
	assert.Equal(t, "testdata/power.json", cfg.PowerFixture)
	assert.Equal(t, 10, cfg.DefaultWindowDays)
	assert.Equal(t, domain.Threshold{Value: 35.5, Direction: domain.DirectionGreater}, cfg.Thresholds[domain.ConditionHot])
	assert.Equal(t, domain.Threshold{Value: -10, Direction: domain.DirectionLess}, cfg.Thresholds[domain.ConditionCold])
	assert.Equal(t, 7.0, cfg.Thresholds[domain.ConditionWind].Value)
	assert.Equal(t, 0.9, cfg.ConfidenceLevel)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "custom-results", cfg.KafkaResultsTopic)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"POWER_TIMEOUT", "bad"},
		{"POWER_TIMEOUT", "0s"},
		{"MAPBOX_TIMEOUT", "bad"},
		{"POWER_MAX_RETRIES", "-1"},
		{"POWER_MAX_RETRIES", "three"},
		{"DEFAULT_WINDOW_DAYS", "-2"},
		{"POWER_START", "1981-01-01"},
		{"POWER_END", "2024"},
		{"THRESHOLD_WET", "lots"},
		{"THRESHOLD_WIND", "NaN"},
		{"CONFIDENCE_LEVEL", "95"},
		{"CONFIDENCE_LEVEL", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_ArchiveEndBeforeStart(t *testing.T) {
	t.Setenv("POWER_START", "20200101")
	t.Setenv("POWER_END", "20190101")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POWER_END")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestConfig_Settings(t *testing.T) {
	t.Run("default z is exact", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		s := cfg.Settings()
		assert.Equal(t, domain.DefaultZ, s.Z)
		assert.Equal(t, 0.95, s.ConfidenceLevel)
		assert.Equal(t, "19810101", s.ArchiveStart)
		assert.Equal(t, "20241231", s.ArchiveEnd)
	})

	t.Run("confidence level sets z", func(t *testing.T) {
		t.Setenv("CONFIDENCE_LEVEL", "0.99")
		cfg, err := Load()
		require.NoError(t, err)

		s := cfg.Settings()
		assert.InDelta(t, 2.5758, s.Z, 1e-4)
		assert.Equal(t, 0.99, s.ConfidenceLevel)
	})

	t.Run("thresholds are copied", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		s := cfg.Settings()
		s.Thresholds[domain.ConditionHot] = domain.ConditionHot.WithThresholdValue(99)
		assert.Equal(t, 32.0, cfg.Thresholds[domain.ConditionHot].Value)
	})
}

func TestSplitList(t *testing.T) {
	tests := map[string][]string{
		"*":                   {"*"},
		"a.test, b.test":      {"a.test", "b.test"},
		" ,https://x.test,, ": {"https://x.test"},
		"":                    nil,
	}
	for in, want := range tests {
		assert.Equal(t, want, splitList(in), in)
	}
}
