package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/api"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/dedupe"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/logging"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/service"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stream"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/tracing"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/version"
)

func main() {
	cfg := loadConfigOrExit()
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.TraceServiceName, cfg.TraceEndpoint)
	if err != nil {
		logging.Error("tracing disabled", err, nil)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	lc := loadCatalogOrExit(cfg.CatalogPath)
	repo := createRepositoryOrExit(cfg.DBPath, lc.Seeds)

	svc := service.New(repo, lc.Catalog, stream.NewHub(), service.Options{
		Rules:          lc.Rules,
		MaxTickActions: cfg.MaxTickActions,
		Flights:        dedupe.New(),
	})
	service.StartIdempotencySweeper(ctx, repo, cfg.SweepInterval)

	router := api.NewRouter(api.NewCombatHandler(svc), api.NewIdempotencyStore(repo, cfg.IdempotencyTTL), []byte(cfg.JWTSecret))

	logging.Info("Server started", logging.Fields{
		constants.LogFieldAddr: cfg.Addr,
		"version":              version.Version,
		"npcs":                 len(lc.Catalog.NPCs),
		"skills":               len(lc.Catalog.Skills),
	})
	if err := serve(ctx, cfg.Addr, router); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
	logging.Info("Server stopped", nil)
}
