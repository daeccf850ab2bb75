package main

import (
	"log"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/railway-reservation/internal/config"
	"github.com/iliyamo/railway-reservation/internal/handler"
	"github.com/iliyamo/railway-reservation/internal/middleware"
	"github.com/iliyamo/railway-reservation/internal/queue"
	"github.com/iliyamo/railway-reservation/internal/repository"
	"github.com/iliyamo/railway-reservation/internal/router"
	"github.com/iliyamo/railway-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	trains, err := repository.NewTrainRepo(filepath.Join(cfg.DataDir, "trains.txt"))
	if err != nil {
		log.Fatalf("open train store: %v", err)
	}
	tickets, err := repository.NewTicketRepo(filepath.Join(cfg.DataDir, "tickets.txt"))
	if err != nil {
		log.Fatalf("open ticket store: %v", err)
	}
	waitlist, err := repository.NewWaitlistRepo(filepath.Join(cfg.DataDir, "waitlist.txt"))
	if err != nil {
		log.Fatalf("open waitlist store: %v", err)
	}
	users, err := repository.NewUserRepo(filepath.Join(cfg.DataDir, "users.txt"))
	if err != nil {
		log.Fatalf("open user store: %v", err)
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if err := users.EnsureAdmin(cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost); err != nil {
			log.Fatalf("seed admin account: %v", err)
		}
	}

	publisher := service.NewAMQPPublisher()
	svc := service.NewReservationService(trains, tickets, waitlist, publisher, cfg.LockWait)

	// The consumer turns booking and admin events into audit log lines.
	// It reconnects on its own, so a dead broker never blocks the API.
	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	rdb := config.NewRedisClient()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Auth:        handler.NewAuthHandler(cfg, users),
		Trains:      handler.NewTrainHandler(trains, publisher),
		Reservation: handler.NewReservationHandler(svc, tickets, trains, waitlist),
		JWTSecret:   cfg.JWTSecret,
		Cache:       middleware.ResponseCache(config.LoadCacheConfig(), rdb),
		RateLimit:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
