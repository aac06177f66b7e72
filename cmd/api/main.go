package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "invoicer/api/swagger" // swagger docs
	"invoicer/internal/autosave"
	"invoicer/internal/config"
	"invoicer/internal/database"
	"invoicer/internal/export"
	"invoicer/internal/handler"
	"invoicer/internal/logger"
	"invoicer/internal/repository"
	"invoicer/internal/service"
	"invoicer/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// @title           Invoicer API
// @version         1.0
// @description     Invoices, autosaving drafts and saved records, scoped by workspace.
// @host            localhost:8080
// @BasePath        /
func main() {
	envFiles := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("Logger setup failed")
	}
	gin.SetMode(cfg.GinMode)
	if len(envFiles) == 0 {
		log.Debug().Msg("No env file found, using the process environment")
	}

	store, err := database.NewStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Store connection failed")
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("Store ready")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up dependencies (Repository -> Service -> Handler)
	clock := clockwork.NewRealClock()
	repos := repository.New(store, repository.Options{
		Clock:             clock,
		ProtectLastRecord: cfg.ProtectLastRecord,
	})
	services := service.New(repos, clock)
	if _, err := services.Workspaces.EnsureDefault(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare the default workspace")
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(cfg.CORSOrigins)
	go wsHub.Run(ctx)

	sessions := autosave.NewManager(autosave.Deps{
		Drafts:     repos.Drafts,
		Invoices:   services.Invoices,
		Forms:      services.Invoices,
		Workspaces: repos.Workspaces,
		Listener:   wsHub,
		Clock:      clock,
		DraftDelay: cfg.DraftDelay,
		EditDelay:  cfg.EditDelay,
	})

	router := handler.NewRouter(handler.RouterConfig{
		Services:    services,
		Sessions:    sessions,
		Hub:         wsHub,
		Exporter:    export.NewPDFExporter(),
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server failed")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	// Pending autosaves are written before the process exits
	if err := sessions.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Some autosave sessions could not be flushed")
	}
	log.Info().Msg("Server exited")
}
