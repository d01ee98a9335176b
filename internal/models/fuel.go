package models

import "time"

type FuelType string

const (
	FuelPetrol   FuelType = "petrol"
	FuelDiesel   FuelType = "diesel"
	FuelCNG      FuelType = "cng"
	FuelElectric FuelType = "electric"
)

// FuelEntry is one fill-up record owned by a user.
type FuelEntry struct {
	ID             string    `json:"id" dynamodbav:"id"`
	UserID         string    `json:"userId" dynamodbav:"userId"`
	VehicleID      *string   `json:"vehicleId,omitempty" dynamodbav:"vehicleId,omitempty"`
	Date           time.Time `json:"date" dynamodbav:"date,unixtime"`
	StationName    string    `json:"stationName,omitempty" dynamodbav:"stationName,omitempty"`
	StationPlaceID string    `json:"stationPlaceId,omitempty" dynamodbav:"stationPlaceId,omitempty"`
	Liters         float64   `json:"liters" dynamodbav:"liters"`
	PricePerLiter  float64   `json:"pricePerLiter" dynamodbav:"pricePerLiter"`
	TotalCost      float64   `json:"totalCost" dynamodbav:"totalCost"`
	FuelType       FuelType  `json:"fuelType" dynamodbav:"fuelType"`
	Odometer       *float64  `json:"odometer,omitempty" dynamodbav:"odometer,omitempty"`
	Notes          string    `json:"notes,omitempty" dynamodbav:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt" dynamodbav:"createdAt,unixtime"`
}

// MonthlyStat is one month's aggregate over a user's entries.
type MonthlyStat struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	TotalCost   float64 `json:"totalCost"`
	TotalLiters float64 `json:"totalLiters"`
	AvgPrice    float64 `json:"avgPrice"`
	Count       int     `json:"count"`
}

// FuelSummary is the all-time rollup for a user.
type FuelSummary struct {
	TotalEntries int        `json:"totalEntries"`
	TotalCost    float64    `json:"totalCost"`
	TotalLiters  float64    `json:"totalLiters"`
	AvgPrice     float64    `json:"avgPrice"`
	LastEntry    *FuelEntry `json:"lastEntry"`
}
