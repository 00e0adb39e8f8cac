package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ecoalerta/ecoalerta-api/config"
	"github.com/ecoalerta/ecoalerta-api/database"
	"github.com/ecoalerta/ecoalerta-api/hub"
	"github.com/ecoalerta/ecoalerta-api/router"
	"github.com/ecoalerta/ecoalerta-api/utils"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts)
		},
	}
}

func runServe(opts *RootOptions) error {
	cfg := opts.cfg
	if cfg.IsProduction() && cfg.SecretKey == config.DefaultSecretKey {
		utils.ErrorLogger.Warn("SECRET_KEY is the development default; set it in production")
	}

	db, err := opts.openDB()
	if err != nil {
		utils.ErrorLogger.Errorf("Failed to connect to database: %v", err)
		return err
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Errorf("Failed to AutoMigrate: %v", err)
		return err
	}

	r := router.SetupRouter(db, cfg, hub.New())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.InfoLogger.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}
