package models

type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderOSM    Provider = "osm"
)

// Station is a normalized fuel station produced by the search pipeline.
// DistanceMeters is always computed locally from the query location,
// never taken from the provider.
type Station struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Brand          string   `json:"brand"`
	Operator       string   `json:"operator,omitempty"`
	Address        string   `json:"address"`
	Latitude       float64  `json:"lat"`
	Longitude      float64  `json:"lng"`
	DistanceMeters int      `json:"distance"`
	OpeningHours   string   `json:"openingHours,omitempty"`
	FuelTypes      []string `json:"fuelTypes,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	IsOpen         *bool    `json:"isOpen,omitempty"`
	MapsURL        string   `json:"googleMapsUrl,omitempty"`
	DirectionsURL  string   `json:"googleMapsDirectionsUrl,omitempty"`
	Coordinates    string   `json:"coordinates,omitempty"`
	Provider       Provider `json:"provider"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StationSearchResult is the per-request response envelope. Built fresh on
// every search, never cached.
type StationSearchResult struct {
	Success      bool      `json:"success"`
	Provider     Provider  `json:"provider"`
	Count        int       `json:"count"`
	Stations     []Station `json:"stations"`
	SearchRadius int       `json:"searchRadius"`
	Location     Location  `json:"location"`
}

func NewStationSearchResult(provider Provider, stations []Station, radius int, loc Location) *StationSearchResult {
	if stations == nil {
		stations = []Station{}
	}
	return &StationSearchResult{
		Success:      true,
		Provider:     provider,
		Count:        len(stations),
		Stations:     stations,
		SearchRadius: radius,
		Location:     loc,
	}
}
