package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/groceryhub/internal/backup"
	"github.com/dukerupert/groceryhub/internal/config"
	"github.com/dukerupert/groceryhub/internal/database"
	"github.com/dukerupert/groceryhub/internal/logging"
	"github.com/dukerupert/groceryhub/internal/pin"
	"github.com/dukerupert/groceryhub/internal/server"
)

func main() {
	restore := flag.String("restore", "", `restore the database from this backup key ("latest" for the newest) and exit`)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := pin.Check(); err != nil {
		logger.Error("pin hashing unavailable", "error", err)
		os.Exit(1)
	}

	if *restore != "" {
		if err := runRestore(cfg, *restore, logger); err != nil {
			logger.Error("restore failed", "error", err)
			os.Exit(1)
		}
		return
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Tips requests wait on the model; websocket writes set their own deadlines.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Background cleanup goroutine
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					logger.Info("cleaned up expired sessions", "count", n)
				}
				srv.PINLimiter().Sweep()
			case <-bgCtx.Done():
				return
			}
		}
	}()

	if cfg.Backup.Enabled() {
		srv.BackupManager().Start(bgCtx)
	}

	go func() {
		logger.Info("groceryhub starting", "addr", httpServer.Addr, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	bgCancel()
	srv.BackupManager().Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

// runRestore replaces cfg.DBPath with a backup. The server must be stopped.
func runRestore(cfg config.Config, key string, logger *slog.Logger) error {
	if !cfg.Backup.Enabled() {
		return backup.ErrDisabled
	}
	mgr := backup.NewManager(server.BackupConfig(cfg), nil, logger, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return mgr.Restore(ctx, key, cfg.DBPath)
}
