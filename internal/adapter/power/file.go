package power

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
)

// FixtureProviderName identifies the fixture provider in metadata.
const FixtureProviderName = "power-fixture"

// FileProvider serves a POWER daily point payload from a local file. The
// query coordinates are echoed onto the series; the data is the same for
// every point.
type FileProvider struct {
	path   string
	logger *slog.Logger
}

// NewFileProvider creates a provider reading path on every fetch.
func NewFileProvider(path string, logger *slog.Logger) *FileProvider {
	return &FileProvider{path: path, logger: logger}
}

// Name returns the provider name.
func (p *FileProvider) Name() string { return FixtureProviderName }

// FetchSeries reads and decodes the fixture. Every error wraps domain.ErrProvider.
func (p *FileProvider) FetchSeries(ctx context.Context, lat, lon float64) (domain.TimeSeries, error) {
	if err := ctx.Err(); err != nil {
		return domain.TimeSeries{}, fmt.Errorf("%w: %s: %w", domain.ErrProvider, FixtureProviderName, err)
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return domain.TimeSeries{}, fmt.Errorf("%w: %s: %w", domain.ErrProvider, FixtureProviderName, err)
	}
	series, err := Decode(data, lat, lon)
	if err != nil {
		return domain.TimeSeries{}, fmt.Errorf("%w: %s: %w", domain.ErrProvider, FixtureProviderName, err)
	}
	p.logger.Debug("fixture series loaded", "path", p.path, "days", len(series.Records))
	return series, nil
}

// CheckReadiness reports whether the fixture file is readable.
func (p *FileProvider) CheckReadiness(_ context.Context) error {
	if _, err := os.Stat(p.path); err != nil {
		return fmt.Errorf("fixture %s: %w", p.path, err)
	}
	return nil
}
