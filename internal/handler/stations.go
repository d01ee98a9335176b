package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/fueltrack/backend-go/internal/api"
	"github.com/fueltrack/backend-go/internal/models"
	"github.com/fueltrack/backend-go/internal/station"
)

// StationFinder is the station search service as handlers see it.
type StationFinder interface {
	FindNearby(ctx context.Context, lat, lng float64, radiusMeters int) *models.StationSearchResult
}

type StationsHandler struct {
	finder StationFinder
}

func NewStationsHandler(finder StationFinder) *StationsHandler {
	return &StationsHandler{
		finder: finder,
	}
}

func (h *StationsHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	params := request.QueryStringParameters

	lat, lng, err := api.ParseCoordinates(params)
	if err != nil {
		return api.Error(err.Error(), http.StatusBadRequest)
	}

	radius := api.ParseRadius(params, station.DefaultRadiusMeters)

	log.Info().
		Float64("lat", lat).
		Float64("lng", lng).
		Int("radius", radius).
		Msg("Handling station search request")

	return api.Success(h.finder.FindNearby(ctx, lat, lng, radius))
}
