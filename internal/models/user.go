package models

import "time"

type Preferences struct {
	DefaultFuelType FuelType `json:"defaultFuelType" dynamodbav:"defaultFuelType"`
	Currency        string   `json:"currency" dynamodbav:"currency"`
	Units           string   `json:"units" dynamodbav:"units"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		DefaultFuelType: FuelPetrol,
		Currency:        "INR",
		Units:           "metric",
	}
}

type User struct {
	ID           string      `json:"id" dynamodbav:"id"`
	Email        string      `json:"email" dynamodbav:"email"`
	PasswordHash string      `json:"-" dynamodbav:"passwordHash"`
	Name         string      `json:"name" dynamodbav:"name"`
	Preferences  Preferences `json:"preferences" dynamodbav:"preferences"`
	CreatedAt    time.Time   `json:"createdAt" dynamodbav:"createdAt,unixtime"`
}
