package station

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/fueltrack/backend-go/internal/geo"
	"github.com/fueltrack/backend-go/internal/models"
	"github.com/fueltrack/backend-go/pkg/http/client"
)

// Tuning constants for the OSM search chain. The radius buffer and the
// result/enrichment caps are carried over from the original deployment;
// existing callers may rely on their exact effect on result sets.
const (
	maxOSMRadiusMeters = 10000
	radiusBufferMeters = 1000
	maxRawResults      = 10
	maxEnrichments     = 8
	maxStations        = 20
	overpassTimeoutSec = 15
)

// OSMFinder resolves nearby fuel stations from the Overpass API, enriching
// sparse results through Nominatim reverse geocoding and falling back to a
// Nominatim bounding-box search when Overpass is unreachable.
type OSMFinder struct {
	overpass  client.Interface
	nominatim client.Interface
	// limiter paces Nominatim calls; its usage policy allows roughly one
	// request per second, so enrichment is strictly sequential.
	limiter *rate.Limiter
}

func NewOSMFinder(overpass, nominatim client.Interface, limiter *rate.Limiter) *OSMFinder {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(nominatimMinInterval), 1)
	}
	return &OSMFinder{
		overpass:  overpass,
		nominatim: nominatim,
		limiter:   limiter,
	}
}

// FindNearby runs the full fallback chain. It never fails: a dead Overpass
// endpoint falls through to the bounding-box search, and a dead Nominatim
// yields an empty list. Callers must treat zero stations as a valid outcome.
func (f *OSMFinder) FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) []models.Station {
	stations, err := f.overpassNearby(ctx, lat, lng, radiusMeters)
	if err == nil {
		return stations
	}
	log.Warn().Err(err).Msg("Overpass query failed, falling back to Nominatim bbox search")

	stations, err = f.nominatimNearby(ctx, lat, lng, radiusMeters)
	if err != nil {
		log.Error().Err(err).Msg("Nominatim fallback failed, returning empty result")
		return nil
	}
	return stations
}

type overpassElement struct {
	ID     int64   `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

func (f *OSMFinder) overpassNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.Station, error) {
	searchRadius := radiusMeters
	if searchRadius > maxOSMRadiusMeters {
		searchRadius = maxOSMRadiusMeters
	}

	log.Debug().
		Float64("lat", lat).
		Float64("lng", lng).
		Int("radius_m", searchRadius).
		Msg("Searching Overpass for fuel stations")

	query := fmt.Sprintf(
		`[out:json][timeout:%d];(node["amenity"="fuel"](around:%d,%f,%f);way["amenity"="fuel"](around:%d,%f,%f););out center tags;`,
		overpassTimeoutSec, searchRadius, lat, lng, searchRadius, lat, lng,
	)

	resp, err := f.overpass.Get(ctx, "/api/interpreter?data="+url.QueryEscape(query))
	if err != nil {
		return nil, fmt.Errorf("querying overpass: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("overpass returned status %d", resp.StatusCode)
	}

	var overpassResp struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := json.Unmarshal(resp.Body, &overpassResp); err != nil {
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}

	var stations []models.Station
	enrichCalls := 0

	for i, element := range overpassResp.Elements {
		if i >= maxRawResults {
			break
		}

		elemLat, elemLon := element.Lat, element.Lon
		if element.Center != nil {
			elemLat, elemLon = element.Center.Lat, element.Center.Lon
		}

		address := FormatAddress(element.Tags)
		businessName := ""

		if address == AddressNotAvailable && enrichCalls < maxEnrichments {
			enrichCalls++
			enrichedAddress, enrichedName, err := f.reverseGeocode(ctx, elemLat, elemLon)
			if err != nil {
				log.Debug().Err(err).Int("station", i+1).Msg("Reverse geocode failed")
				address = fmt.Sprintf("Near %.4f, %.4f", elemLat, elemLon)
			} else {
				address = enrichedAddress
				businessName = enrichedName
			}
		} else if address == AddressNotAvailable {
			address = fmt.Sprintf("Coordinates: %.4f, %.4f", elemLat, elemLon)
		}

		// Distance is always recomputed locally. Overpass occasionally
		// returns results just outside the nominal radius.
		distance := geo.Distance(lat, lng, elemLat, elemLon)
		if distance > radiusMeters+radiusBufferMeters {
			log.Debug().
				Int("station", i+1).
				Int("distance_m", distance).
				Msg("Skipping station outside radius buffer")
			continue
		}

		name, brand := NormalizeStation(element.Tags, businessName)

		operator := element.Tags["operator"]
		if operator == "" {
			operator = brand
		}

		openingHours := element.Tags["opening_hours"]
		if openingHours == "" {
			openingHours = unknownOpening
		}

		stations = append(stations, models.Station{
			ID:             strconv.FormatInt(element.ID, 10),
			Name:           name,
			Brand:          brand,
			Operator:       operator,
			Address:        address,
			Latitude:       elemLat,
			Longitude:      elemLon,
			DistanceMeters: distance,
			OpeningHours:   openingHours,
			FuelTypes:      ExtractFuelTypes(element.Tags),
			MapsURL:        fmt.Sprintf("https://www.google.com/maps?q=%f,%f", elemLat, elemLon),
			DirectionsURL:  fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%f,%f", elemLat, elemLon),
			Coordinates:    fmt.Sprintf("%.6f, %.6f", elemLat, elemLon),
			Provider:       models.ProviderOSM,
		})
	}

	sortStationsByDistance(stations)

	if len(stations) > maxStations {
		stations = stations[:maxStations]
	}

	return stations, nil
}
