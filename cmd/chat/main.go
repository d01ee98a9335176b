package main

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/fueltrack/backend-go/internal/auth"
	"github.com/fueltrack/backend-go/internal/chat"
	"github.com/fueltrack/backend-go/internal/config"
	"github.com/fueltrack/backend-go/internal/fuel"
	"github.com/fueltrack/backend-go/internal/handler"
	"github.com/fueltrack/backend-go/internal/station"
)

var (
	chatHandler *handler.ChatHandler
	setupOnce   sync.Once
)

func init() {
	setupOnce.Do(func() {
		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()

		ctx := context.Background()
		dynamoClient, err := fuel.NewDynamoClient(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed creating DynamoDB client")
		}

		authService, err := auth.NewService(auth.NewDynamoUserStore(dynamoClient, cfg.UsersTable), cfg.JWTSecret)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed creating auth service")
		}

		fuelStore := fuel.NewStore(dynamoClient, cfg.FuelEntriesTable)
		router := chat.NewRouter(station.NewService(cfg), fuelStore)

		log.Info().Str("env", cfg.Environment).Msg("Starting chat lambda")

		chatHandler = handler.NewChatHandler(router, authService)
	})
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return chatHandler.HandleRequest(ctx, request)
}

func main() {
	lambda.Start(handleRequest)
}
