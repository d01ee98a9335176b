package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	return respond(body, http.StatusOK)
}

func Created(body interface{}) (events.APIGatewayProxyResponse, error) {
	return respond(body, http.StatusCreated)
}

func respond(body interface{}, statusCode int) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(ErrorResponse{Error: message})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(body),
	}, nil
}

// Parameter parsing helpers
func ParseCoordinates(params map[string]string) (float64, float64, error) {
	latStr, hasLat := params["lat"]
	lngStr, hasLng := params["lng"]

	if !hasLat || !hasLng {
		return 0, 0, MissingCoordinatesError{}
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, InvalidCoordinatesError{}
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return 0, 0, InvalidCoordinatesError{}
	}

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, InvalidCoordinatesError{}
	}

	return lat, lng, nil
}

// ParseRadius returns the radius parameter in meters, or defaultRadius when
// absent or unparseable.
func ParseRadius(params map[string]string, defaultRadius int) int {
	if radiusStr, ok := params["radius"]; ok {
		if radius, err := strconv.Atoi(radiusStr); err == nil && radius > 0 {
			return radius
		}
	}
	return defaultRadius
}

type MissingCoordinatesError struct{}

func (e MissingCoordinatesError) Error() string {
	return "Latitude and longitude are required"
}

type InvalidCoordinatesError struct{}

func (e InvalidCoordinatesError) Error() string {
	return "Invalid coordinates"
}
