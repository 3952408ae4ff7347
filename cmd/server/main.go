package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/certready/backend/internal/api"
	"github.com/certready/backend/internal/infrastructure/config"
	"github.com/certready/backend/internal/progress"
	"github.com/certready/backend/internal/service"
	"github.com/certready/backend/internal/store"

	_ "github.com/certready/backend/docs" // generated swagger docs
)

// @title           CertReady API
// @version         1.0
// @description     Certification exam prep — timed practice sessions, scoring, and progress tracking.

// @host      localhost:8080
// @BasePath  /

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// ── Dependencies ────────────────────────────────────────────────
	db, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var reporter progress.Reporter = progress.Noop{}
	if cfg.ProgressURL != "" {
		reporter = progress.NewClient(cfg.ProgressURL, cfg.ProgressTimeout)
	}

	submitter := service.NewSubmissionService(db, reporter, logger, cfg.SaveTimeout, cfg.ProgressTimeout)
	sessions := service.NewSessionService(db, submitter, logger)
	defer sessions.Close()

	handler := api.NewHandler(db, sessions, logger)

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	api.RegisterRoutes(mux, handler)

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// ── Middleware chain: Logging → CORS → Auth → mux ───────────────
	chained := api.Logging(logger)(api.CORS(api.Auth(cfg.JWTSecret)(mux)))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           chained,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
