package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/scholarsync/bot/internal/clock"
	"github.com/scholarsync/bot/internal/command"
	"github.com/scholarsync/bot/internal/config"
	"github.com/scholarsync/bot/internal/dispatch"
	"github.com/scholarsync/bot/internal/gateway"
	"github.com/scholarsync/bot/internal/group"
	"github.com/scholarsync/bot/internal/summarize"
	mw "github.com/scholarsync/bot/pkg/middleware"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.New()

	// Core: registry, lifecycle engine, expiry scheduler
	registry := group.NewRegistry(clk)
	platform := dispatch.NewPlatform(cfg.PlatformBaseURL, cfg.PlatformToken, cfg.PublicChannelID, logger)
	groupService := group.NewService(registry, platform, logger)
	groupHandler := group.NewHandler(groupService)

	scheduler := group.NewScheduler(registry, platform, clk, logger, group.DefaultSweepInterval)
	go scheduler.Run(ctx)

	// Summarizer feature
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, document summaries will fail")
	}
	completer := summarize.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	// Chat command surface
	collector := gateway.NewCollector(platform, logger)
	processor := summarize.NewProcessor(completer, platform, collector, logger)
	router := command.NewRouter(groupService, collector, platform, processor, logger)
	gatewayHandler := gateway.NewHandler(router, collector, logger)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Liveness for external uptime monitors
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Bot is alive and running!"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/groups", groupHandler.Routes())
		r.With(mw.WebhookAuth(cfg.WebhookSecret)).Mount("/events", gatewayHandler.Routes())
	})

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logger.Fatal("server failed to start", zap.Error(err))
	}
}
