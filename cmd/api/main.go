package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/api/handlers"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/api/middleware"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/config"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/logger"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/pipeline"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/runs"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	runStore := runs.NewStore(cfg.MaxStoredRuns)
	validator := pipeline.NewValidator(log)
	runsHandler := handlers.NewRunsHandler(runStore, validator, cfg, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/runs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			runsHandler.CreateRun(w, r)
		case http.MethodGet:
			runsHandler.ListRuns(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
		parts := strings.Split(rest, "/")
		switch {
		case len(parts) == 1 && parts[0] != "":
			runsHandler.GetRun(w, r, parts[0])
		case len(parts) == 2 && strings.HasSuffix(parts[1], ".csv"):
			layer := strings.TrimSuffix(parts[1], ".csv")
			runsHandler.DownloadArtifact(w, r, parts[0], layer)
		default:
			middleware.WriteError(w, http.StatusNotFound, "Not found")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt, then drain in-flight requests.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
