package station

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fueltrack/backend-go/internal/geo"
	"github.com/fueltrack/backend-go/internal/models"
)

const (
	nominatimLimit = 15
	// nominatimMinInterval is the hard sequential throttle between
	// Nominatim calls. Their usage policy allows one request per second;
	// the extra 100ms keeps clock skew from tripping it.
	nominatimMinInterval = 1100 * time.Millisecond

	// Degrees-per-km approximations used to size the fallback bounding box.
	kmPerDegreeLat = 110.574
	kmPerDegreeLng = 111.320
)

var coordTextRe = regexp.MustCompile(`\d+\.\d+,\s*\d+\.\d+`)

type nominatimPlace struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// nominatimNearby is the terminal fallback stage: a structured amenity=fuel
// search bounded by a box sized from the clamped radius.
func (f *OSMFinder) nominatimNearby(ctx context.Context, lat, lng float64, radiusMeters int) ([]models.Station, error) {
	clamped := radiusMeters
	if clamped > maxOSMRadiusMeters {
		clamped = maxOSMRadiusMeters
	}
	radiusKm := float64(clamped) / 1000

	latDegrees := radiusKm / kmPerDegreeLat
	lngDegrees := radiusKm / (kmPerDegreeLng * math.Cos(lat*math.Pi/180))

	left := lng - lngDegrees
	right := lng + lngDegrees
	bottom := lat - latDegrees
	top := lat + latDegrees

	log.Debug().
		Float64("left", left).
		Float64("bottom", bottom).
		Float64("right", right).
		Float64("top", top).
		Msg("Nominatim bbox search")

	path := fmt.Sprintf(
		"/search?format=json&amenity=fuel&bounded=1&viewbox=%f,%f,%f,%f&limit=%d&addressdetails=1",
		left, top, right, bottom, nominatimLimit,
	)

	resp, err := f.nominatim.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("querying nominatim: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.Unmarshal(resp.Body, &places); err != nil {
		return nil, fmt.Errorf("decoding nominatim response: %w", err)
	}

	var stations []models.Station
	for _, place := range places {
		placeLat, latErr := strconv.ParseFloat(place.Lat, 64)
		placeLng, lngErr := strconv.ParseFloat(place.Lon, 64)
		if latErr != nil || lngErr != nil {
			continue
		}

		distance := geo.Distance(lat, lng, placeLat, placeLng)
		if distance > radiusMeters+radiusBufferMeters {
			continue
		}

		name := strings.TrimSpace(strings.SplitN(place.DisplayName, ",", 2)[0])
		if name == "" {
			name = defaultName
		}

		stations = append(stations, models.Station{
			ID:             strconv.FormatInt(place.PlaceID, 10),
			Name:           name,
			Brand:          ExtractBrand(place.DisplayName),
			Operator:       defaultBrand,
			Address:        place.DisplayName,
			Latitude:       placeLat,
			Longitude:      placeLng,
			DistanceMeters: distance,
			Provider:       models.ProviderOSM,
		})
	}

	sortStationsByDistance(stations)

	return stations, nil
}

type reverseGeocodeResponse struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	NameDetails map[string]string `json:"namedetails"`
	ExtraTags   map[string]string `json:"extratags"`
	Address     struct {
		HouseNumber   string `json:"house_number"`
		Road          string `json:"road"`
		Street        string `json:"street"`
		Neighbourhood string `json:"neighbourhood"`
		Suburb        string `json:"suburb"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		County        string `json:"county"`
		State         string `json:"state"`
		StateDistrict string `json:"state_district"`
		Postcode      string `json:"postcode"`
	} `json:"address"`
}

// reverseGeocode resolves a point to an address and, opportunistically, a
// business name. Each call waits on the shared limiter first, so enrichment
// runs strictly one lookup at a time.
func (f *OSMFinder) reverseGeocode(ctx context.Context, lat, lon float64) (string, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", "", fmt.Errorf("waiting for nominatim rate limit: %w", err)
	}

	path := fmt.Sprintf(
		"/reverse?format=json&lat=%f&lon=%f&zoom=18&addressdetails=1&extratags=1&namedetails=1",
		lat, lon,
	)

	resp, err := f.nominatim.Get(ctx, path)
	if err != nil {
		return "", "", fmt.Errorf("reverse geocoding: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var geocoded reverseGeocodeResponse
	if err := json.Unmarshal(resp.Body, &geocoded); err != nil {
		return "", "", fmt.Errorf("decoding reverse geocode response: %w", err)
	}

	businessName := geocoded.NameDetails["name"]
	if businessName == "" {
		businessName = geocoded.NameDetails["name:en"]
	}
	if businessName == "" {
		businessName = geocoded.NameDetails["name:local"]
	}
	if businessName == "" {
		businessName = geocoded.ExtraTags["name"]
	}
	if businessName == "" {
		businessName = geocoded.ExtraTags["brand"]
	}
	if businessName == "" {
		businessName = geocoded.ExtraTags["operator"]
	}
	if businessName == "" {
		businessName = geocoded.Name
	}

	address := formatReverseAddress(geocoded)

	return address, businessName, nil
}

func formatReverseAddress(geocoded reverseGeocodeResponse) string {
	addr := geocoded.Address

	var parts []string
	appendIfSet := func(values ...string) {
		for _, v := range values {
			if v != "" {
				parts = append(parts, v)
				return
			}
		}
	}
	appendIfSet(addr.HouseNumber)
	appendIfSet(addr.Road, addr.Street)
	appendIfSet(addr.Neighbourhood)
	appendIfSet(addr.Suburb)
	appendIfSet(addr.City, addr.Town, addr.Village)
	appendIfSet(addr.County)
	appendIfSet(addr.State, addr.StateDistrict)
	appendIfSet(addr.Postcode)

	if len(parts) >= 2 {
		return strings.Join(parts, ", ")
	}

	if geocoded.DisplayName != "" {
		cleaned := coordTextRe.ReplaceAllString(geocoded.DisplayName, "")
		cleaned = strings.Trim(strings.TrimSpace(cleaned), ",")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned != "" {
			return cleaned
		}
	}

	return AddressNotAvailable
}

func sortStationsByDistance(stations []models.Station) {
	sort.Slice(stations, func(i, j int) bool {
		return stations[i].DistanceMeters < stations[j].DistanceMeters
	})
}
