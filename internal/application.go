package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/boardfile"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/config"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/repository"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/repository/storage"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/repository/storage/sqlite"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/scramble"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/service"
	"github.com/rocketscienceinc/memory-scramble-backend/transport/rest"
	"github.com/rocketscienceinc/memory-scramble-backend/transport/websocket"
)

var (
	ErrAddrNotFound   = errors.New("redis address string is empty")
	ErrSQLitePath     = errors.New("sqlite storage path is empty")
	ErrUnknownBackend = errors.New("unknown stats backend")
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	grid, err := boardfile.Load(conf.BoardFile)
	if err != nil {
		return fmt.Errorf("could not load board file: %w", err)
	}

	log.Info("Loaded board", "file", conf.BoardFile, "rows", grid.Rows(), "cols", grid.Cols())

	board := scramble.New(grid)

	statsRepo, closeStats, err := newStatsRepository(ctx, conf)
	if err != nil {
		return fmt.Errorf("could not create stats repository: %w", err)
	}

	defer func() {
		if err = closeStats(); err != nil {
			log.Error("could not close stats storage", "error", err)
		}
	}()

	statsService := service.NewStatsService(statsRepo)
	gameplayService := service.NewGameplayService(logger, board, statsService)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, gameplayService, statsService)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameplayService)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newStatsRepository picks the stats backend from the config. The returned
// close function releases whatever storage the backend opened.
func newStatsRepository(ctx context.Context, conf *config.Config) (repository.StatsRepository, func() error, error) {
	noop := func() error { return nil }

	switch conf.Stats.Backend {
	case "", "memory":
		return repository.NewMemoryStatsRepository(), noop, nil

	case "redis":
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewStatsRepository(redisStorage.Connection), redisStorage.Close, nil

	case "sqlite":
		if conf.SQLiteStoragePath == "" {
			return nil, nil, ErrSQLitePath
		}

		sqliteStorage, err := sqlite.New(conf.SQLiteStoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteStatsRepository(sqliteStorage.Connection), sqliteStorage.Close, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownBackend, conf.Stats.Backend)
	}
}
