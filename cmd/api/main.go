package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"buildfund/auth"
	"buildfund/db"
	"buildfund/documents"
	"buildfund/httpapi"
	"buildfund/onboarding"
	"buildfund/verification"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		slog.Error("database bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	slog.Info("database connected")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	gateway := verification.NewGateway(os.Getenv("GOOGLE_API_KEY"), os.Getenv("COMPANIES_HOUSE_API_KEY"))

	authService := auth.NewService(auth.NewRepository(pool), jwtSecret)
	documentService := documents.NewService(documents.NewStore(pool))

	catalog := onboarding.NewCatalog()
	engine := onboarding.NewEngine(catalog, gateway, documentService, logger)
	conversationService := onboarding.NewConversationService(
		engine,
		onboarding.NewRenderer(catalog),
		onboarding.NewTracker(),
		onboarding.NewSessionRepository(pool),
		onboarding.NewProgressRepository(pool),
		logger,
	)

	handler := httpapi.NewHandler(authService, conversationService, documentService, gateway, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
