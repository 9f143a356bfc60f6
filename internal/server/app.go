// Package server initializes and runs the authkeeper server core: it
// opens the database, applies migrations, wires the auth and reset
// services and keeps the cleanup janitor running until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	Auth    *services.AuthService
	Reset   *services.ResetService
	janitor *services.Janitor
}

func NewApp(cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	codec := auth.NewCodec([]byte(cfg.SecretKey), cfg.AccessTokenValidity)
	hasher := services.NewBcryptHasher()

	authSvc := services.NewAuthService(db, rm, codec, hasher, cfg, logger)
	resetSvc := services.NewResetService(db, rm, hasher, cfg, logger)
	janitor := services.NewJanitor(authSvc, resetSvc, cfg.CleanupInterval, logger)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		Auth:    authSvc,
		Reset:   resetSvc,
		janitor: janitor,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until the context is cancelled or a termination signal
// arrives, then closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.janitor.Run(ctx)
	}()
	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
	app.logger.Info(ctx, "app stopped")
}

// Close releases the database handle. Used by embedders that wire the
// services directly instead of calling Run.
func (app *App) Close() error {
	return app.db.Close()
}
