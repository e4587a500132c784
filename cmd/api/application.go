package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Faysoula/SyncSolve-sub000/internal/handlers"
	"github.com/Faysoula/SyncSolve-sub000/internal/store"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultShutdownPeriod = 20 * time.Second
)

type Application struct {
	wg       sync.WaitGroup
	cfg      *Config
	handlers *handlers.HandlerRepo
	logger   *slog.Logger
	queries  *store.Queries
}

func NewApplication(cfg *Config, logger *slog.Logger, queries *store.Queries, handlerRepo *handlers.HandlerRepo) *Application {
	return &Application{
		cfg:      cfg,
		logger:   logger,
		queries:  queries,
		handlers: handlerRepo,
	}
}

type Config struct {
	HttpPort int
}

// Run starts the HTTP server and blocks until it stops. SIGINT/SIGTERM
// trigger a graceful shutdown with a bounded drain period.
func (app *Application) Run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", app.cfg.HttpPort),
		Handler:      app.routes(),
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelWarn),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	shutdownErr := make(chan error, 1)

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit

		app.logger.Info("shutting down server", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownPeriod)
		defer cancel()

		shutdownErr <- srv.Shutdown(ctx)
	}()

	app.logger.Info("starting server", "addr", srv.Addr)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownErr; err != nil {
		return err
	}

	app.wg.Wait()
	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
