package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-session/config"
	"github.com/yeremiapane/table-session/database"
	"github.com/yeremiapane/table-session/events"
	"github.com/yeremiapane/table-session/idempotency"
	"github.com/yeremiapane/table-session/router"
	"github.com/yeremiapane/table-session/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogger(cfg.LogLevel)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg.DB)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}

	opts := router.Options{
		Issuer:         utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		SessionTTL:     cfg.SessionTTL,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		CORSOrigin:     cfg.CORSOrigin,
		Currency:       cfg.CurrencySymbol,
	}

	if cfg.NATSURL != "" {
		natsPub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsPub.Close()
		opts.Publishers = append(opts.Publishers, natsPub)
		utils.InfoLogger.Printf("Publishing events to NATS at %s", cfg.NATSURL)
	}

	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := idempotency.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			utils.ErrorLogger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		opts.Idempotency = idempotency.NewRedisStore(client, cfg.IdempotencyTTL)
	} else {
		utils.InfoLogger.Println("REDIS_ADDR not set, idempotency keys are kept in memory")
		opts.Idempotency = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	}

	app := router.SetupRouter(db, opts)

	app.Relay.Interval = cfg.OutboxInterval
	app.Relay.Start()

	stopCleanup := make(chan struct{})
	app.RateLimiter.StartCleanup(time.Minute, stopCleanup)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.InfoLogger.Println("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
	close(stopCleanup)
	app.Relay.Stop()
	if _, err := app.Relay.Flush(ctx); err != nil {
		utils.ErrorLogger.Printf("Final outbox flush: %v", err)
	}
}
