package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	VochainAPIURL  string
	CensusAPIURL   string
	AccountAddress string

	GovernanceTokenAddress string
	DAODomain              string
	DAOAddress             string

	CensusSyncAttempts int
	CensusSyncDelay    time.Duration

	UseInMemoryBackend bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "daoboard"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		VochainAPIURL:  os.Getenv("VOCHAIN_API_URL"),
		CensusAPIURL:   os.Getenv("CENSUS_API_URL"),
		AccountAddress: os.Getenv("VOTING_ACCOUNT_ADDRESS"),

		GovernanceTokenAddress: os.Getenv("GOVERNANCE_TOKEN_ADDRESS"),
		DAODomain:              os.Getenv("DAO_DOMAIN"),
		DAOAddress:             os.Getenv("DAO_ADDRESS"),

		CensusSyncAttempts: envInt("CENSUS_SYNC_ATTEMPTS", 5),
		CensusSyncDelay:    envDuration("CENSUS_SYNC_DELAY", 6*time.Second),

		UseInMemoryBackend: envBool("USE_IN_MEMORY_BACKEND", false),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
