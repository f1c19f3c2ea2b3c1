package main

import (
	"context"
	"net/http"

	"github.com/agrimandi/procurement-engine/internal/market/application"
	markethttp "github.com/agrimandi/procurement-engine/internal/market/infra/http"
	marketpg "github.com/agrimandi/procurement-engine/internal/market/infra/store/postgres"
	marketws "github.com/agrimandi/procurement-engine/internal/market/infra/websocket"
	"github.com/agrimandi/procurement-engine/internal/notify"
	"github.com/agrimandi/procurement-engine/internal/shared/config"
	"github.com/agrimandi/procurement-engine/internal/shared/db"
	"github.com/agrimandi/procurement-engine/internal/shared/db/migrations"
	"github.com/agrimandi/procurement-engine/internal/shared/httpserver"
	"github.com/agrimandi/procurement-engine/internal/shared/logger"
	"github.com/agrimandi/procurement-engine/internal/shared/metrics"
	sharedws "github.com/agrimandi/procurement-engine/internal/shared/websocket"
	userpg "github.com/agrimandi/procurement-engine/internal/user/infra/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	cfg := config.Load()
	log.Info("starting procurement engine",
		zap.String("httpAddr", cfg.HTTPAddr),
		zap.String("metricsAddr", cfg.MetricsAddr),
		zap.Duration("sweepInterval", cfg.SweepInterval),
	)

	if cfg.RunMigrations {
		log.Info("running database migrations...")
		if err := migrations.RunMigrations(); err != nil {
			log.Fatal("database migration failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.GetPostgresDBPool(ctx)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	store := marketpg.NewStore(pool)
	users := userpg.NewUserRepository(pool)

	hub := sharedws.NewHub()
	go hub.Run(ctx)

	dispatcher := notify.NewMulti(
		notify.NewLogDispatcher(),
		marketws.NewHubBroadcaster(hub),
	)

	engine := application.NewEngine(store, dispatcher)
	listing := application.NewListing(store)
	service := application.NewMarketService(engine, listing)

	sweeper := application.NewSweeper(engine, cfg.SweepInterval)
	go sweeper.Run(ctx)

	go func() {
		log.Info("metrics listener started", zap.String("addr", cfg.MetricsAddr))
		if err := http.ListenAndServe(cfg.MetricsAddr, metrics.Handler()); err != nil {
			log.Error("metrics listener failed", zap.Error(err))
		}
	}()

	server := httpserver.NewServer()
	markethttp.NewHandlers(service, users).RegisterRoutes(server.App())

	feed := marketws.NewFeedHandler(listing, hub)
	server.App().Get("/ws/lots/:id", feed.Upgrade, feed.Serve(ctx))

	if err := server.Start(cfg.HTTPAddr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
