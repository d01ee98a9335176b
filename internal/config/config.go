package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GooglePlacesPlaceholderKey is the unset sentinel shipped in example env
// files. A key equal to this value is treated the same as no key at all.
const GooglePlacesPlaceholderKey = "YOUR_GOOGLE_PLACES_KEY"

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	HTTPTimeout time.Duration

	// Station search providers
	PlacesProvider   string
	GooglePlacesKey  string
	GoogleBaseURL    string
	OverpassBaseURL  string
	NominatimBaseURL string

	// Auth
	JWTSecret string

	// Persistence
	FuelEntriesTable string
	UsersTable       string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

// WithPlacesProvider selects the primary station-search provider.
func WithPlacesProvider(provider, apiKey string) Option {
	return func(c *Config) {
		c.PlacesProvider = provider
		c.GooglePlacesKey = apiKey
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:      "production",
		LogLevel:         zerolog.InfoLevel,
		HTTPTimeout:      30 * time.Second,
		PlacesProvider:   "osm",
		GoogleBaseURL:    "https://maps.googleapis.com",
		OverpassBaseURL:  "https://overpass-api.de",
		NominatimBaseURL: "https://nominatim.openstreetmap.org",
		FuelEntriesTable: "fuel-entries",
		UsersTable:       "fuel-users",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// GoogleConfigured reports whether the commercial provider is selected and
// carries a usable key. A placeholder key counts as unconfigured.
func (c *Config) GoogleConfigured() bool {
	return c.PlacesProvider == "google" &&
		c.GooglePlacesKey != "" &&
		c.GooglePlacesKey != GooglePlacesPlaceholderKey
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 30*time.Second)),
		WithPlacesProvider(
			getEnvOrDefault("PLACES_PROVIDER", "osm"),
			os.Getenv("GOOGLE_PLACES_API_KEY"),
		),
	)
	cfg.GoogleBaseURL = getEnvOrDefault("GOOGLE_PLACES_BASE_URL", cfg.GoogleBaseURL)
	cfg.OverpassBaseURL = getEnvOrDefault("OVERPASS_BASE_URL", cfg.OverpassBaseURL)
	cfg.NominatimBaseURL = getEnvOrDefault("NOMINATIM_BASE_URL", cfg.NominatimBaseURL)
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.FuelEntriesTable = getEnvOrDefault("FUEL_ENTRIES_TABLE", cfg.FuelEntriesTable)
	cfg.UsersTable = getEnvOrDefault("USERS_TABLE", cfg.UsersTable)
	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
