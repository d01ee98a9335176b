package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/fueltrack/backend-go/internal/api"
	"github.com/fueltrack/backend-go/internal/auth"
	"github.com/fueltrack/backend-go/internal/models"
)

// AuthService covers account management on top of token resolution.
type AuthService interface {
	Authenticator
	Register(ctx context.Context, email, password, name string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	UpdateProfile(ctx context.Context, userID, name string, prefs *models.Preferences) (*models.User, error)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type profileRequest struct {
	Name        string              `json:"name,omitempty"`
	Preferences *models.Preferences `json:"preferences,omitempty"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthHandler struct {
	service AuthService
}

func NewAuthHandler(service AuthService) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

func (h *AuthHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	path := strings.TrimSuffix(request.Path, "/")
	method := request.HTTPMethod

	switch {
	case method == http.MethodPost && path == "/auth/register":
		return h.register(ctx, request.Body)
	case method == http.MethodPost && path == "/auth/login":
		return h.login(ctx, request.Body)
	case method == http.MethodGet && path == "/auth/me":
		return h.me(ctx, request)
	case method == http.MethodPut && path == "/auth/me":
		return h.updateProfile(ctx, request)
	}

	return api.Error("Not found", http.StatusNotFound)
}

func (h *AuthHandler) register(ctx context.Context, body string) (events.APIGatewayProxyResponse, error) {
	var req credentialsRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return api.Error("Invalid request body", http.StatusBadRequest)
	}

	user, token, err := h.service.Register(ctx, req.Email, req.Password, req.Name)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrValidation):
		return api.Error(err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrEmailTaken):
		return api.Error(err.Error(), http.StatusConflict)
	default:
		log.Error().Err(err).Msg("Error registering user")
		return api.Error("Error registering user", http.StatusInternalServerError)
	}

	return api.Created(sessionResponse{Token: token, User: user})
}

func (h *AuthHandler) login(ctx context.Context, body string) (events.APIGatewayProxyResponse, error) {
	var req credentialsRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return api.Error("Invalid request body", http.StatusBadRequest)
	}

	user, token, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return api.Error(err.Error(), http.StatusUnauthorized)
		}
		log.Error().Err(err).Msg("Error logging in")
		return api.Error("Error logging in", http.StatusInternalServerError)
	}

	return api.Success(sessionResponse{Token: token, User: user})
}

func (h *AuthHandler) me(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	user, err := h.service.Authenticate(ctx, bearerHeader(request.Headers))
	if err != nil {
		return authError(err)
	}
	return api.Success(user)
}

func (h *AuthHandler) updateProfile(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	user, err := h.service.Authenticate(ctx, bearerHeader(request.Headers))
	if err != nil {
		return authError(err)
	}

	var req profileRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return api.Error("Invalid request body", http.StatusBadRequest)
	}

	updated, err := h.service.UpdateProfile(ctx, user.ID, req.Name, req.Preferences)
	if err != nil {
		log.Error().Err(err).Msg("Error updating profile")
		return api.Error("Error updating profile", http.StatusInternalServerError)
	}

	return api.Success(updated)
}
