package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
)

const archiveDateLayout = "20060102"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// NASA POWER provider configuration.
	PowerBaseURL    string
	PowerCommunity  string
	PowerStart      string
	PowerEnd        string
	PowerTimeout    time.Duration
	PowerMaxRetries int
	PowerFixture    string

	// Estimation configuration.
	DefaultWindowDays int
	Thresholds        map[domain.Condition]domain.Threshold
	ConfidenceLevel   float64 // 0 when unset

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Result publication; disabled when KafkaBrokers is empty.
	KafkaBrokers      []string
	KafkaResultsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	powerTimeout, err := parsePositiveDuration("POWER_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	powerMaxRetries, err := parseInt("POWER_MAX_RETRIES", 3, 0)
	if err != nil {
		return nil, err
	}
	windowDays, err := parseInt("DEFAULT_WINDOW_DAYS", domain.DefaultWindowDays, 0)
	if err != nil {
		return nil, err
	}

	powerStart := sharedcfg.EnvOrDefault("POWER_START", "19810101")
	powerEnd := sharedcfg.EnvOrDefault("POWER_END", "20241231")
	if err := validateArchivePeriod(powerStart, powerEnd); err != nil {
		return nil, err
	}

	thresholds, err := parseThresholds()
	if err != nil {
		return nil, err
	}

	confidence, err := parseConfidenceLevel()
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),

		PowerBaseURL:    sharedcfg.EnvOrDefault("POWER_BASE_URL", "https://power.larc.nasa.gov/api/temporal/daily/point"),
		PowerCommunity:  sharedcfg.EnvOrDefault("POWER_COMMUNITY", "AG"),
		PowerStart:      powerStart,
		PowerEnd:        powerEnd,
		PowerTimeout:    powerTimeout,
		PowerMaxRetries: powerMaxRetries,
		PowerFixture:    os.Getenv("POWER_FIXTURE"),

		DefaultWindowDays: windowDays,
		Thresholds:        thresholds,
		ConfidenceLevel:   confidence,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		KafkaBrokers:      sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaResultsTopic: sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "likelihood-results"),
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// PublishEnabled reports whether results are written to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Settings returns the estimation settings for the configured deployment.
// z is exactly domain.DefaultZ unless CONFIDENCE_LEVEL is set.
func (c *Config) Settings() domain.Settings {
	s := domain.Settings{
		Thresholds:      make(map[domain.Condition]domain.Threshold, len(c.Thresholds)),
		Z:               domain.DefaultZ,
		ConfidenceLevel: 0.95,
		ArchiveStart:    c.PowerStart,
		ArchiveEnd:      c.PowerEnd,
	}
	for k, v := range c.Thresholds {
		s.Thresholds[k] = v
	}
	if c.ConfidenceLevel > 0 {
		s.Z = domain.ZForConfidence(c.ConfidenceLevel)
		s.ConfidenceLevel = c.ConfidenceLevel
	}
	return s
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, fallback, minValue int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minValue {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minValue)
	}
	return n, nil
}

func validateArchivePeriod(start, end string) error {
	s, err := time.Parse(archiveDateLayout, start)
	if err != nil {
		return errors.New("invalid POWER_START: must be YYYYMMDD")
	}
	e, err := time.Parse(archiveDateLayout, end)
	if err != nil {
		return errors.New("invalid POWER_END: must be YYYYMMDD")
	}
	if e.Before(s) {
		return errors.New("invalid POWER_END: must not be before POWER_START")
	}
	return nil
}

func parseThresholds() (map[domain.Condition]domain.Threshold, error) {
	thresholds := domain.DefaultThresholds()
	for _, c := range domain.AllConditions {
		key := "THRESHOLD_" + strings.ToUpper(string(c))
		s := os.Getenv(key)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid %s: must be a number", key)
		}
		thresholds[c] = c.WithThresholdValue(v)
	}
	return thresholds, nil
}

func parseConfidenceLevel() (float64, error) {
	s := os.Getenv("CONFIDENCE_LEVEL")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0 && v < 1) {
		return 0, errors.New("invalid CONFIDENCE_LEVEL: must be between 0 and 1 exclusive")
	}
	return v, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

// splitList splits a comma-separated value, trimming spaces and dropping
// empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
