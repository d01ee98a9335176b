package station

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fueltrack/backend-go/internal/geo"
	"github.com/fueltrack/backend-go/internal/models"
	"github.com/fueltrack/backend-go/pkg/http/client"
)

// GoogleFinder queries the Google Places nearby-search API. It is only
// constructed when a real API key is configured; any failure is reported to
// the provider selector, which falls through to the OSM chain.
type GoogleFinder struct {
	httpClient client.Interface
	apiKey     string
}

func NewGoogleFinder(httpClient client.Interface, apiKey string) *GoogleFinder {
	return &GoogleFinder{
		httpClient: httpClient,
		apiKey:     apiKey,
	}
}

type googlePlacesResponse struct {
	Status  string              `json:"status"`
	Results []googlePlaceResult `json:"results"`
}

type googlePlaceResult struct {
	PlaceID  string `json:"place_id"`
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	// FormattedAddress is only present on some result types.
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Rating       *float64 `json:"rating"`
	OpeningHours *struct {
		OpenNow *bool `json:"open_now"`
	} `json:"opening_hours"`
}

func (f *GoogleFinder) FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.Station, error) {
	path := fmt.Sprintf(
		"/maps/api/place/nearbysearch/json?location=%f,%f&radius=%d&type=gas_station&key=%s",
		lat, lng, radiusMeters, f.apiKey,
	)

	resp, err := f.httpClient.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("querying google places: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("google places returned status %d", resp.StatusCode)
	}

	var placesResp googlePlacesResponse
	if err := json.Unmarshal(resp.Body, &placesResp); err != nil {
		return nil, fmt.Errorf("decoding google places response: %w", err)
	}

	if placesResp.Status != "OK" && placesResp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("google places API error: %s", placesResp.Status)
	}

	log.Debug().Int("result_count", len(placesResp.Results)).Msg("Google Places search complete")

	stations := make([]models.Station, 0, len(placesResp.Results))
	for _, place := range placesResp.Results {
		address := place.Vicinity
		if address == "" {
			address = place.FormattedAddress
		}

		var isOpen *bool
		if place.OpeningHours != nil {
			isOpen = place.OpeningHours.OpenNow
		}

		placeLat := place.Geometry.Location.Lat
		placeLng := place.Geometry.Location.Lng

		stations = append(stations, models.Station{
			ID:             place.PlaceID,
			Name:           place.Name,
			Brand:          place.Name,
			Address:        address,
			Latitude:       placeLat,
			Longitude:      placeLng,
			DistanceMeters: geo.Distance(lat, lng, placeLat, placeLng),
			Rating:         place.Rating,
			IsOpen:         isOpen,
			Provider:       models.ProviderGoogle,
		})
	}

	sortStationsByDistance(stations)

	return stations, nil
}
