package station

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/fueltrack/backend-go/internal/models"
	"github.com/fueltrack/backend-go/pkg/http/client"
)

const (
	testLat = 12.9716
	testLng = 77.5946
)

// unthrottled removes the Nominatim pacing so tests finish instantly.
func unthrottled() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

func newTestClient(baseURL string) *client.Client {
	return client.New(client.Options{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

type overpassNode struct {
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

func overpassServer(t *testing.T, nodes []overpassNode) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "amenity")
		err := json.NewEncoder(w).Encode(map[string]interface{}{"elements": nodes})
		require.NoError(t, err)
	}))
}

func TestOverpassEnrichmentScenario(t *testing.T) {
	// Three nodes near the query point, none carrying a usable address, in
	// non-sorted order.
	nodes := []overpassNode{
		{ID: 1, Lat: testLat + 0.001, Lon: testLng, Tags: map[string]string{"brand": "Indian Oil"}},
		{ID: 2, Lat: testLat + 0.002, Lon: testLng, Tags: map[string]string{"brand": "Shell"}},
		{ID: 3, Lat: testLat + 0.0005, Lon: testLng, Tags: map[string]string{"brand": "HPCL"}},
	}

	overpassSrv := overpassServer(t, nodes)
	defer overpassSrv.Close()

	var reverseCalls int32
	nominatimSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reverse", r.URL.Path)
		atomic.AddInt32(&reverseCalls, 1)
		_, err := fmt.Fprint(w, `{
			"display_name": "MG Road, Bengaluru, Karnataka",
			"namedetails": {"name": "Lakshmi Petroleum"},
			"address": {"road": "MG Road", "city": "Bengaluru", "state": "Karnataka"}
		}`)
		require.NoError(t, err)
	}))
	defer nominatimSrv.Close()

	finder := NewOSMFinder(newTestClient(overpassSrv.URL), newTestClient(nominatimSrv.URL), unthrottled())

	stations := finder.FindNearby(context.Background(), testLat, testLng, 3000)

	require.Len(t, stations, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&reverseCalls),
		"each sparse result should be reverse geocoded once")

	// Sorted ascending by distance: node 3 is closest, node 2 farthest.
	assert.Equal(t, "3", stations[0].ID)
	assert.Equal(t, "1", stations[1].ID)
	assert.Equal(t, "2", stations[2].ID)
	for i := 1; i < len(stations); i++ {
		assert.LessOrEqual(t, stations[i-1].DistanceMeters, stations[i].DistanceMeters)
	}

	for _, s := range stations {
		assert.Equal(t, "MG Road, Bengaluru, Karnataka", s.Address)
		assert.Equal(t, "Lakshmi Petroleum", s.Name)
		assert.Equal(t, models.ProviderOSM, s.Provider)
		assert.LessOrEqual(t, s.DistanceMeters, 3000+radiusBufferMeters)
	}
}

func TestOverpassSkipsStationsBeyondRadiusBuffer(t *testing.T) {
	nodes := []overpassNode{
		{ID: 1, Lat: testLat + 0.001, Lon: testLng, Tags: map[string]string{
			"addr:street": "MG Road", "addr:city": "Bengaluru",
		}},
		// Roughly 5.5 km out, past the 3000+1000m cutoff.
		{ID: 2, Lat: testLat + 0.05, Lon: testLng, Tags: map[string]string{
			"addr:street": "Airport Road", "addr:city": "Bengaluru",
		}},
	}

	overpassSrv := overpassServer(t, nodes)
	defer overpassSrv.Close()

	finder := NewOSMFinder(newTestClient(overpassSrv.URL), newTestClient("http://unused.invalid"), unthrottled())

	stations := finder.FindNearby(context.Background(), testLat, testLng, 3000)

	require.Len(t, stations, 1)
	assert.Equal(t, "1", stations[0].ID)
}

func TestOverpassAddressFromTagsSkipsEnrichment(t *testing.T) {
	nodes := []overpassNode{
		{ID: 1, Lat: testLat + 0.001, Lon: testLng, Tags: map[string]string{
			"name": "City Fuel Station", "addr:street": "MG Road", "addr:city": "Bengaluru",
		}},
	}

	overpassSrv := overpassServer(t, nodes)
	defer overpassSrv.Close()

	var reverseCalls int32
	nominatimSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&reverseCalls, 1)
		_, _ = fmt.Fprint(w, `{}`)
	}))
	defer nominatimSrv.Close()

	finder := NewOSMFinder(newTestClient(overpassSrv.URL), newTestClient(nominatimSrv.URL), unthrottled())

	stations := finder.FindNearby(context.Background(), testLat, testLng, 3000)

	require.Len(t, stations, 1)
	assert.Equal(t, "MG Road, Bengaluru", stations[0].Address)
	assert.Equal(t, int32(0), atomic.LoadInt32(&reverseCalls))
}

func TestOverpassFailureFallsBackToNominatimOnce(t *testing.T) {
	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer overpassSrv.Close()

	var searchCalls int32
	nominatimSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		atomic.AddInt32(&searchCalls, 1)
		_, err := fmt.Fprintf(w, `[
			{"place_id": 101, "lat": "%f", "lon": "%f", "display_name": "Indian Oil, MG Road, Bengaluru"},
			{"place_id": 102, "lat": "%f", "lon": "%f", "display_name": "Corner Fuel Stop, Jayanagar, Bengaluru"}
		]`, testLat+0.002, testLng, testLat+0.001, testLng)
		require.NoError(t, err)
	}))
	defer nominatimSrv.Close()

	finder := NewOSMFinder(newTestClient(overpassSrv.URL), newTestClient(nominatimSrv.URL), unthrottled())

	stations := finder.FindNearby(context.Background(), testLat, testLng, 3000)

	assert.Equal(t, int32(1), atomic.LoadInt32(&searchCalls), "bbox fallback should run exactly once")
	require.Len(t, stations, 2)

	// Name is the first comma segment, brand a substring match.
	assert.Equal(t, "Corner Fuel Stop", stations[0].Name)
	assert.Equal(t, "Unknown", stations[0].Brand)
	assert.Equal(t, "Indian Oil", stations[1].Name)
	assert.Equal(t, "Indian Oil", stations[1].Brand)
}

func TestBothStagesFailYieldsEmptyResult(t *testing.T) {
	finder := NewOSMFinder(
		newTestClient("http://overpass.invalid"),
		newTestClient("http://nominatim.invalid"),
		unthrottled(),
	)

	stations := finder.FindNearby(context.Background(), testLat, testLng, 3000)
	assert.Empty(t, stations)
}

func TestNominatimFallbackFiltersByRadius(t *testing.T) {
	overpassSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer overpassSrv.Close()

	nominatimSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := fmt.Fprintf(w, `[
			{"place_id": 1, "lat": "%f", "lon": "%f", "display_name": "Near Station, Bengaluru"},
			{"place_id": 2, "lat": "%f", "lon": "%f", "display_name": "Far Station, Bengaluru"}
		]`, testLat+0.001, testLng, testLat+0.05, testLng)
		require.NoError(t, err)
	}))
	defer nominatimSrv.Close()

	finder := NewOSMFinder(newTestClient(overpassSrv.URL), newTestClient(nominatimSrv.URL), unthrottled())

	stations := finder.FindNearby(context.Background(), testLat, testLng, 3000)

	require.Len(t, stations, 1)
	assert.Equal(t, "Near Station", stations[0].Name)
}
