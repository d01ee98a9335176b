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
	"github.com/fueltrack/backend-go/internal/chat"
	"github.com/fueltrack/backend-go/internal/models"
)

// Authenticator resolves a bearer token to a user. Handlers that allow
// anonymous access treat auth failures as "no identity" rather than 401.
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string) (*models.User, error)
}

// ChatRouter answers one chat turn.
type ChatRouter interface {
	Handle(ctx context.Context, msg chat.Message) chat.Reply
}

type chatRequest struct {
	Message  string           `json:"message"`
	Location *models.Location `json:"location,omitempty"`
}

type ChatHandler struct {
	router ChatRouter
	auth   Authenticator
}

func NewChatHandler(router ChatRouter, authenticator Authenticator) *ChatHandler {
	return &ChatHandler{
		router: router,
		auth:   authenticator,
	}
}

func (h *ChatHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var req chatRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return api.Error("Invalid request body", http.StatusBadRequest)
	}
	if strings.TrimSpace(req.Message) == "" {
		return api.Error("Message is required", http.StatusBadRequest)
	}

	msg := chat.Message{Text: req.Message}
	if req.Location != nil {
		msg.Lat = &req.Location.Lat
		msg.Lng = &req.Location.Lng
	}

	// Identity is optional in chat. An invalid token just means the
	// statistics intents will prompt the user to log in.
	if header := bearerHeader(request.Headers); header != "" {
		user, err := h.auth.Authenticate(ctx, header)
		switch {
		case err == nil:
			msg.UserID = user.ID
		case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUserNotFound):
			log.Debug().Err(err).Msg("Chat request with unusable token, continuing anonymously")
		default:
			log.Error().Err(err).Msg("Chat authentication failed")
		}
	}

	return api.Success(h.router.Handle(ctx, msg))
}

// bearerHeader returns the Authorization header regardless of casing.
// API Gateway does not normalize header keys.
func bearerHeader(headers map[string]string) string {
	for key, value := range headers {
		if strings.EqualFold(key, "Authorization") {
			return value
		}
	}
	return ""
}
