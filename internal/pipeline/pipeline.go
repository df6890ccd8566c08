package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
	"github.com/couchcryptid/climo-likelihood/internal/observability"
)

// SeriesProvider fetches the daily archive for a point.
type SeriesProvider interface {
	Name() string
	FetchSeries(ctx context.Context, lat, lon float64) (domain.TimeSeries, error)
	CheckReadiness(ctx context.Context) error
}

// Publisher receives every successful result.
type Publisher interface {
	Publish(ctx context.Context, result domain.LikelihoodResult) error
}

// Pipeline answers likelihood queries: fetch, estimate, enrich, publish.
type Pipeline struct {
	provider  SeriesProvider
	geocoder  domain.Geocoder
	publisher Publisher
	settings  domain.Settings
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a Pipeline. geocoder and publisher may be nil to disable
// place enrichment and result publication.
func New(provider SeriesProvider, geocoder domain.Geocoder, publisher Publisher, settings domain.Settings, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		provider:  provider,
		geocoder:  geocoder,
		publisher: publisher,
		settings:  settings,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run answers a single query.
func (p *Pipeline) Run(ctx context.Context, req domain.Request) (domain.LikelihoodResult, error) {
	start := p.clock.Now()
	result, err := p.run(ctx, req)
	p.metrics.LikelihoodRequests.WithLabelValues(outcome(err)).Inc()
	p.metrics.LikelihoodDuration.Observe(p.clock.Since(start).Seconds())
	return result, err
}

func (p *Pipeline) run(ctx context.Context, req domain.Request) (domain.LikelihoodResult, error) {
	series, err := p.provider.FetchSeries(ctx, req.Lat, req.Lon)
	if err != nil {
		p.logger.Error("fetch series failed", "error", err, "lat", req.Lat, "lon", req.Lon)
		return domain.LikelihoodResult{}, err
	}
	p.metrics.SeriesDays.Observe(float64(len(series.Records)))

	result, err := domain.Estimate(series, req, p.settings)
	if err != nil {
		return domain.LikelihoodResult{}, err
	}
	result.Metadata.Provider = p.provider.Name()
	result.Metadata.GeneratedAt = p.clock.Now().UTC().Truncate(time.Second)

	for c, r := range result.Results {
		p.metrics.SampleSize.WithLabelValues(string(c)).Observe(float64(r.N))
		if r.N == 0 {
			p.metrics.UndefinedResults.WithLabelValues(string(c)).Inc()
		}
	}

	result = domain.EnrichWithPlace(ctx, result, p.geocoder, p.logger)
	p.publish(ctx, result)

	p.logger.Info("likelihood computed",
		"lat", req.Lat,
		"lon", req.Lon,
		"date", req.Date.Format(domain.DateLayout),
		"window_days", req.WindowDays,
		"window_samples", result.Metadata.WindowSamples,
		"conditions", len(result.Results),
	)
	return result, nil
}

// publish is best effort; failures never reach the caller.
func (p *Pipeline) publish(ctx context.Context, result domain.LikelihoodResult) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, result); err != nil {
		p.logger.Warn("publish result failed", "error", err, "key", result.Key())
		p.metrics.PublishErrors.Inc()
		return
	}
	p.metrics.ResultsPublished.Inc()
}

// CheckReadiness delegates to the provider.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	return p.provider.CheckReadiness(ctx)
}

// Conditions describes the configured conditions in evaluation order.
func (p *Pipeline) Conditions() []domain.ConditionInfo {
	return domain.DescribeConditions(p.settings.Thresholds)
}

// DefaultConditions returns every configured condition, used when a query
// does not name any.
func (p *Pipeline) DefaultConditions() []domain.Condition {
	out := make([]domain.Condition, 0, len(domain.AllConditions))
	for _, c := range domain.AllConditions {
		if _, ok := p.settings.Thresholds[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Geocoder returns the configured geocoder, or nil when geocoding is disabled.
func (p *Pipeline) Geocoder() domain.Geocoder {
	return p.geocoder
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrProvider):
		return "provider_error"
	default:
		return "error"
	}
}
