package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climo"

// Metrics holds the Prometheus counters, histograms, and gauges for the likelihood service.
type Metrics struct {
	LikelihoodRequests *prometheus.CounterVec // labels: outcome={success,invalid,provider_error,error}
	LikelihoodDuration prometheus.Histogram

	// Time series provider metrics.
	ProviderFetchDuration *prometheus.HistogramVec // labels: provider
	ProviderErrors        *prometheus.CounterVec   // labels: provider, reason={transport,status,decode,circuit_open,canceled}
	ProviderRetries       prometheus.Counter
	ProviderCircuitOpen   prometheus.Gauge
	SeriesDays            prometheus.Histogram

	// Estimation metrics.
	SampleSize       *prometheus.HistogramVec // labels: condition
	UndefinedResults *prometheus.CounterVec   // labels: condition

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss,evict}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge

	// Result publication metrics.
	ResultsPublished prometheus.Counter
	PublishErrors    prometheus.Counter

	// HTTP metrics.
	HTTPRequestDuration *prometheus.HistogramVec // labels: route, method, status
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		LikelihoodRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "likelihood_requests_total",
			Help:      "Likelihood queries by outcome.",
		}, []string{"outcome"}),
		LikelihoodDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "likelihood_duration_seconds",
			Help:      "Duration of a complete fetch-estimate-enrich cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		ProviderFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_fetch_duration_seconds",
			Help:      "Time series fetch duration in seconds, including retries.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Time series fetch failures by provider and reason.",
		}, []string{"provider", "reason"}),
		ProviderRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      "Retried time series fetch attempts.",
		}),
		ProviderCircuitOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_circuit_open",
			Help:      "1 when the provider circuit breaker is open, 0 otherwise.",
		}),
		SeriesDays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "series_days",
			Help:      "Number of daily records in a fetched time series.",
			Buckets:   []float64{365, 1825, 3650, 7300, 10950, 14600, 18250},
		}),
		SampleSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sample_size",
			Help:      "Valid windowed samples per condition estimate.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 750, 1000},
		}, []string{"condition"}),
		UndefinedResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undefined_results_total",
			Help:      "Condition estimates with no valid samples.",
		}, []string{"condition"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_published_total",
			Help:      "Likelihood results written to the results topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed writes to the results topic.",
		}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.LikelihoodRequests,
		m.LikelihoodDuration,
		m.ProviderFetchDuration,
		m.ProviderErrors,
		m.ProviderRetries,
		m.ProviderCircuitOpen,
		m.SeriesDays,
		m.SampleSize,
		m.UndefinedResults,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.ResultsPublished,
		m.PublishErrors,
		m.HTTPRequestDuration,
	}
}
