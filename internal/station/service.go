package station

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fueltrack/backend-go/internal/config"
	"github.com/fueltrack/backend-go/internal/models"
	"github.com/fueltrack/backend-go/pkg/http/client"
)

// DefaultRadiusMeters is used when a search request carries no radius.
const DefaultRadiusMeters = 3000

// commercialFinder is the Google Places path; failures are recoverable.
type commercialFinder interface {
	FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.Station, error)
}

// openFinder is the OSM chain; it absorbs its own failures.
type openFinder interface {
	FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) []models.Station
}

// Service selects a provider per search and reports which one actually
// produced the data. Commercial-provider failures are never surfaced to the
// caller; they degrade transparently to the OSM chain.
type Service struct {
	google commercialFinder
	osm    openFinder
}

// NewService wires the provider clients from configuration. The Google path
// is only constructed when a non-placeholder key is present.
func NewService(cfg *config.Config) *Service {
	svc := &Service{
		osm: NewOSMFinder(
			client.New(client.Options{
				BaseURL:   cfg.OverpassBaseURL,
				Timeout:   cfg.HTTPTimeout,
				UserAgent: "FuelTrackAI/1.0",
			}),
			client.New(client.Options{
				BaseURL:   cfg.NominatimBaseURL,
				Timeout:   cfg.HTTPTimeout,
				UserAgent: "FuelTrackAI/1.0",
			}),
			nil,
		),
	}

	if cfg.GoogleConfigured() {
		svc.google = NewGoogleFinder(
			client.New(client.Options{
				BaseURL: cfg.GoogleBaseURL,
				Timeout: cfg.HTTPTimeout,
			}),
			cfg.GooglePlacesKey,
		)
	}

	return svc
}

// FindNearby returns the unified station list for a query point. The result
// is always a success envelope; an empty station list is a valid outcome.
func (s *Service) FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) *models.StationSearchResult {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	loc := models.Location{Lat: lat, Lng: lng}

	if s.google != nil {
		stations, err := s.google.FindNearby(ctx, lat, lng, radiusMeters)
		if err == nil {
			return models.NewStationSearchResult(models.ProviderGoogle, stations, radiusMeters, loc)
		}
		log.Warn().Err(err).Msg("Google Places failed, falling back to OSM")
	}

	stations := s.osm.FindNearby(ctx, lat, lng, radiusMeters)
	return models.NewStationSearchResult(models.ProviderOSM, stations, radiusMeters, loc)
}
