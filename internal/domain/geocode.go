package domain

import (
	"context"
	"log/slog"
)

// Geo sources recorded in Metadata.GeoSource.
const (
	GeoSourceReverse  = "reverse"
	GeoSourceOriginal = "original"
	GeoSourceFailed   = "failed"
)

// EnrichWithPlace attempts to name the queried point. If geocoder is nil the
// result is returned unchanged; a failed lookup only sets GeoSource
// (graceful degradation).
func EnrichWithPlace(ctx context.Context, result LikelihoodResult, geocoder Geocoder, logger *slog.Logger) LikelihoodResult {
	if geocoder == nil {
		return result
	}

	place, err := geocoder.ReverseGeocode(ctx, result.Query.Lat, result.Query.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", result.Query.Lat,
			"lon", result.Query.Lon,
			"error", err,
		)
		result.Metadata.GeoSource = GeoSourceFailed
		return result
	}
	if place.FormattedAddress == "" && place.PlaceName == "" {
		result.Metadata.GeoSource = GeoSourceOriginal
		return result
	}

	result.Metadata.PlaceName = place.FormattedAddress
	if result.Metadata.PlaceName == "" {
		result.Metadata.PlaceName = place.PlaceName
	}
	result.Metadata.GeoSource = GeoSourceReverse
	return result
}
