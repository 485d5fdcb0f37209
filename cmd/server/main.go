package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/reelclub/movienight/internal/config"
	"github.com/reelclub/movienight/internal/database"
	"github.com/reelclub/movienight/internal/handler"
	"github.com/reelclub/movienight/internal/metadata"
	"github.com/reelclub/movienight/internal/queue"
	"github.com/reelclub/movienight/internal/repository"
	"github.com/reelclub/movienight/internal/router"
	"github.com/reelclub/movienight/pkg/logger"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database open failed")
	}
	if err := database.Migrate(db, cfg.MigrationsPath); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}
	log.Info("database ready")

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; response cache and rate limiting disabled")
	}

	groups := repository.NewGroupRepo(db)
	sessions := repository.NewSessionRepo(db)
	roster := repository.NewRosterRepo(db)
	nights := repository.NewNightRepo(db)
	movies := metadata.NewClient(cfg.OMDBBaseURL, cfg.OMDBAPIKey)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, groups, sessions, log),
		Nights:   handler.NewNightHandler(nights, groups, log),
		Roster:   handler.NewRosterHandler(roster, log),
		Public:   handler.NewPublicHandler(groups, nights, roster, log),
		Metadata: handler.NewMetadataHandler(movies, log),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, sessions, rdb)

	// Night events (selections, cancellations) land in logs/nights.log via
	// the broker; the consumer reconnects on its own if the broker drops.
	go func() {
		if err := queue.StartNightConsumer(); err != nil {
			log.WithError(err).Error("night consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
