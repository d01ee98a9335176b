package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/fueltrack/backend-go/internal/api"
	"github.com/fueltrack/backend-go/internal/auth"
	"github.com/fueltrack/backend-go/internal/fuel"
	"github.com/fueltrack/backend-go/internal/models"
)

// FuelStore is the fuel entry store as the handler sees it.
type FuelStore interface {
	Create(ctx context.Context, entry *models.FuelEntry) error
	List(ctx context.Context, userID string, filter fuel.ListFilter) ([]models.FuelEntry, error)
	Get(ctx context.Context, userID, entryID string) (*models.FuelEntry, error)
	Delete(ctx context.Context, userID, entryID string) error
	MonthlyStats(ctx context.Context, userID string) ([]models.MonthlyStat, error)
	Summary(ctx context.Context, userID string) (*models.FuelSummary, error)
}

type FuelHandler struct {
	store FuelStore
	auth  Authenticator
}

func NewFuelHandler(store FuelStore, authenticator Authenticator) *FuelHandler {
	return &FuelHandler{
		store: store,
		auth:  authenticator,
	}
}

func (h *FuelHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	user, err := h.auth.Authenticate(ctx, bearerHeader(request.Headers))
	if err != nil {
		return authError(err)
	}

	path := strings.TrimSuffix(request.Path, "/")
	method := request.HTTPMethod

	switch {
	case method == http.MethodPost && path == "/fuel":
		return h.create(ctx, user.ID, request.Body)
	case method == http.MethodGet && path == "/fuel":
		return h.list(ctx, user.ID, request.QueryStringParameters)
	case method == http.MethodGet && path == "/fuel/stats":
		return h.stats(ctx, user.ID)
	case method == http.MethodGet && path == "/fuel/summary":
		return h.summary(ctx, user.ID)
	case method == http.MethodGet && strings.HasPrefix(path, "/fuel/"):
		return h.get(ctx, user.ID, entryID(request, path))
	case method == http.MethodDelete && strings.HasPrefix(path, "/fuel/"):
		return h.delete(ctx, user.ID, entryID(request, path))
	}

	return api.Error("Not found", http.StatusNotFound)
}

func (h *FuelHandler) create(ctx context.Context, userID, body string) (events.APIGatewayProxyResponse, error) {
	var entry models.FuelEntry
	if err := json.Unmarshal([]byte(body), &entry); err != nil {
		return api.Error("Invalid request body", http.StatusBadRequest)
	}
	entry.UserID = userID

	if err := h.store.Create(ctx, &entry); err != nil {
		if errors.Is(err, fuel.ErrInvalidEntry) {
			return api.Error(err.Error(), http.StatusBadRequest)
		}
		log.Error().Err(err).Msg("Error creating fuel entry")
		return api.Error("Error creating fuel entry", http.StatusInternalServerError)
	}

	return api.Created(entry)
}

func (h *FuelHandler) list(ctx context.Context, userID string, params map[string]string) (events.APIGatewayProxyResponse, error) {
	filter := fuel.ListFilter{
		VehicleID: params["vehicleId"],
		Query:     params["q"],
	}
	if from, ok := params["from"]; ok {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return api.Error("Invalid from date", http.StatusBadRequest)
		}
		filter.StartDate = t
	}
	if to, ok := params["to"]; ok {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return api.Error("Invalid to date", http.StatusBadRequest)
		}
		filter.EndDate = t
	}

	entries, err := h.store.List(ctx, userID, filter)
	if err != nil {
		log.Error().Err(err).Msg("Error listing fuel entries")
		return api.Error("Error listing fuel entries", http.StatusInternalServerError)
	}

	return api.Success(map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

func (h *FuelHandler) get(ctx context.Context, userID, id string) (events.APIGatewayProxyResponse, error) {
	if id == "" {
		return api.Error("Entry id is required", http.StatusBadRequest)
	}

	entry, err := h.store.Get(ctx, userID, id)
	if err != nil {
		log.Error().Err(err).Msg("Error getting fuel entry")
		return api.Error("Error getting fuel entry", http.StatusInternalServerError)
	}
	if entry == nil {
		return api.Error("Entry not found", http.StatusNotFound)
	}

	return api.Success(entry)
}

func (h *FuelHandler) delete(ctx context.Context, userID, id string) (events.APIGatewayProxyResponse, error) {
	if id == "" {
		return api.Error("Entry id is required", http.StatusBadRequest)
	}

	if err := h.store.Delete(ctx, userID, id); err != nil {
		log.Error().Err(err).Msg("Error deleting fuel entry")
		return api.Error("Error deleting fuel entry", http.StatusInternalServerError)
	}

	return api.Success(map[string]bool{"deleted": true})
}

func (h *FuelHandler) stats(ctx context.Context, userID string) (events.APIGatewayProxyResponse, error) {
	stats, err := h.store.MonthlyStats(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("Error computing monthly stats")
		return api.Error("Error computing stats", http.StatusInternalServerError)
	}

	return api.Success(map[string]interface{}{"months": stats})
}

func (h *FuelHandler) summary(ctx context.Context, userID string) (events.APIGatewayProxyResponse, error) {
	summary, err := h.store.Summary(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msg("Error computing fuel summary")
		return api.Error("Error computing summary", http.StatusInternalServerError)
	}

	return api.Success(summary)
}

// entryID prefers the API Gateway path parameter and falls back to the
// last path segment for proxy-style routes.
func entryID(request events.APIGatewayProxyRequest, path string) string {
	if id, ok := request.PathParameters["id"]; ok {
		return id
	}
	return strings.TrimPrefix(path, "/fuel/")
}

func authError(err error) (events.APIGatewayProxyResponse, error) {
	switch {
	case errors.Is(err, auth.ErrNoToken):
		return api.Error("Authentication required", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrTokenExpired):
		return api.Error("Token expired", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUserNotFound):
		return api.Error("Invalid token", http.StatusUnauthorized)
	}
	log.Error().Err(err).Msg("Authentication failed")
	return api.Error("Authentication failed", http.StatusInternalServerError)
}
