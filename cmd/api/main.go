// Command api runs the forum HTTP server.
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

	"github.com/emilythestrangee/forum/backend/internal/auth"
	"github.com/emilythestrangee/forum/backend/internal/config"
	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/handlers"
	"github.com/emilythestrangee/forum/backend/internal/logging"
	"github.com/emilythestrangee/forum/backend/internal/media"
	"github.com/emilythestrangee/forum/backend/internal/repository"
	"github.com/emilythestrangee/forum/backend/internal/server"
	"github.com/emilythestrangee/forum/backend/internal/session"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := logging.Setup(cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	repos := repository.New(db.GetDB())

	var store session.Store = repos.Sessions
	if cfg.RedisURL != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		store = session.NewRedisStore(client)
		log.Info("sessions stored in redis")
	}
	sessions := session.NewManager(store, repos.Users, cfg.SessionSecret)

	uploads, err := media.NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		return err
	}

	handler := handlers.NewHandler(handlers.Deps{
		Repos:         repos,
		Sessions:      sessions,
		Hasher:        auth.NewBcryptHasher(cfg.BcryptCost),
		Media:         uploads,
		Log:           log,
		PageSize:      cfg.PageSize,
		SecureCookies: cfg.IsProduction(),

		RequestTimeout: cfg.RequestTimeout,
	})

	srv := server.NewServer(cfg, server.Deps{
		DB:       db,
		Handler:  handler,
		Sessions: sessions,
		Log:      log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("addr", srv.Addr))
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

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
