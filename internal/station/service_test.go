package station

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltrack/backend-go/internal/config"
	"github.com/fueltrack/backend-go/internal/models"
)

type stubCommercialFinder struct {
	stations []models.Station
	err      error
	calls    int
}

func (s *stubCommercialFinder) FindNearby(_ context.Context, _, _ float64, _ int) ([]models.Station, error) {
	s.calls++
	return s.stations, s.err
}

type stubOpenFinder struct {
	stations []models.Station
	calls    int
}

func (s *stubOpenFinder) FindNearby(_ context.Context, _, _ float64, _ int) []models.Station {
	s.calls++
	return s.stations
}

func TestServicePrefersGoogleWhenAvailable(t *testing.T) {
	google := &stubCommercialFinder{stations: []models.Station{
		{ID: "g1", Name: "Shell", Provider: models.ProviderGoogle},
	}}
	osm := &stubOpenFinder{}

	svc := &Service{google: google, osm: osm}
	result := svc.FindNearby(context.Background(), testLat, testLng, 3000)

	assert.Equal(t, models.ProviderGoogle, result.Provider)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 0, osm.calls)
}

func TestServiceFallsBackToOSMOnGoogleFailure(t *testing.T) {
	google := &stubCommercialFinder{err: errors.New("REQUEST_DENIED")}
	osm := &stubOpenFinder{stations: []models.Station{
		{ID: "o1", Name: "Indian Oil Petrol Pump", Provider: models.ProviderOSM},
	}}

	svc := &Service{google: google, osm: osm}
	result := svc.FindNearby(context.Background(), testLat, testLng, 3000)

	assert.Equal(t, 1, google.calls)
	assert.Equal(t, 1, osm.calls)
	assert.Equal(t, models.ProviderOSM, result.Provider)
	assert.True(t, result.Success, "provider failure must not surface as a request error")
	assert.Equal(t, 1, result.Count)
}

func TestServiceUsesOSMWhenGoogleNotConfigured(t *testing.T) {
	osm := &stubOpenFinder{}

	svc := &Service{osm: osm}
	result := svc.FindNearby(context.Background(), testLat, testLng, 0)

	assert.Equal(t, 1, osm.calls)
	assert.Equal(t, models.ProviderOSM, result.Provider)
	assert.Equal(t, DefaultRadiusMeters, result.SearchRadius)
	assert.NotNil(t, result.Stations)
	assert.Equal(t, 0, result.Count)
}

func TestPlaceholderKeyNeverReachesGoogle(t *testing.T) {
	var googleCalls int32
	googleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&googleCalls, 1)
	}))
	defer googleSrv.Close()

	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements": []}`))
	}))
	defer overpassSrv.Close()

	cfg := config.New(
		config.WithPlacesProvider("google", config.GooglePlacesPlaceholderKey),
		config.WithHTTPTimeout(5*time.Second),
	)
	cfg.GoogleBaseURL = googleSrv.URL
	cfg.OverpassBaseURL = overpassSrv.URL
	cfg.NominatimBaseURL = "http://nominatim.invalid"

	svc := NewService(cfg)
	result := svc.FindNearby(context.Background(), testLat, testLng, 3000)

	assert.Equal(t, int32(0), atomic.LoadInt32(&googleCalls))
	assert.Equal(t, models.ProviderOSM, result.Provider)
	require.NotNil(t, result.Stations)
	assert.Equal(t, 0, result.Count)
}

func TestGoogleFinderParsesResults(t *testing.T) {
	googleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "type=gas_station")
		_, err := w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"place_id": "abc",
					"name": "Shell Select",
					"vicinity": "100 Feet Road, Indiranagar",
					"geometry": {"location": {"lat": 12.9786, "lng": 77.6408}},
					"rating": 4.2,
					"opening_hours": {"open_now": true}
				}
			]
		}`))
		require.NoError(t, err)
	}))
	defer googleSrv.Close()

	finder := NewGoogleFinder(newTestClient(googleSrv.URL), "real-key")
	stations, err := finder.FindNearby(context.Background(), testLat, testLng, 3000)

	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Equal(t, "abc", stations[0].ID)
	assert.Equal(t, "Shell Select", stations[0].Name)
	assert.Equal(t, "100 Feet Road, Indiranagar", stations[0].Address)
	require.NotNil(t, stations[0].Rating)
	assert.InDelta(t, 4.2, *stations[0].Rating, 0.001)
	require.NotNil(t, stations[0].IsOpen)
	assert.True(t, *stations[0].IsOpen)
	assert.Positive(t, stations[0].DistanceMeters)
	assert.Equal(t, models.ProviderGoogle, stations[0].Provider)
}

func TestGoogleFinderRejectsAPIError(t *testing.T) {
	googleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "results": []}`))
	}))
	defer googleSrv.Close()

	finder := NewGoogleFinder(newTestClient(googleSrv.URL), "bad-key")
	_, err := finder.FindNearby(context.Background(), testLat, testLng, 3000)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}
