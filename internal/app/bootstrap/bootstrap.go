package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	gaslessvoting "daoboard/contexts/governance/gasless-voting"
	postgresadapter "daoboard/contexts/governance/gasless-voting/adapters/postgres"
	"daoboard/contexts/governance/gasless-voting/adapters/vochain"
	"daoboard/internal/platform/config"
	"daoboard/internal/platform/db"
	"daoboard/internal/platform/httpserver"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	if cfg.UseInMemoryBackend {
		module := gaslessvoting.NewInMemoryModule(
			cfg.GovernanceTokenAddress,
			cfg.DAODomain,
			cfg.DAOAddress,
			logger,
		)
		server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
		return &APIApp{server: server, logger: logger}, nil
	}

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	if strings.TrimSpace(cfg.VochainAPIURL) == "" || strings.TrimSpace(cfg.CensusAPIURL) == "" {
		return nil, errors.New("VOCHAIN_API_URL and CENSUS_API_URL are required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	client := vochain.NewClient(vochain.Config{
		APIURL:         cfg.VochainAPIURL,
		CensusURL:      cfg.CensusAPIURL,
		AccountAddress: cfg.AccountAddress,
		Logger:         logger,
	})

	module := gaslessvoting.NewModule(gaslessvoting.Dependencies{
		Accounts:           client,
		Census:             client,
		Elections:          client,
		Ballots:            client,
		Proposals:          repo,
		Membership:         repo,
		IDGen:              postgresadapter.UUIDGenerator{},
		Clock:              postgresadapter.SystemClock{},
		TokenAddress:       cfg.GovernanceTokenAddress,
		DAODomain:          cfg.DAODomain,
		DAOAddress:         cfg.DAOAddress,
		CensusSyncAttempts: cfg.CensusSyncAttempts,
		CensusSyncDelay:    cfg.CensusSyncDelay,
		Logger:             logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
