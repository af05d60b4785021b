package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameplayService interface {
	Look(ctx context.Context, player string) (string, error)
	Flip(ctx context.Context, player string, row, col int) (string, error)
	Watch(ctx context.Context, player string) (string, error)
	MapCards(ctx context.Context, player string, labels map[string]string) (string, error)
}

type statsService interface {
	Leaderboard(ctx context.Context, limit int) ([]entity.PlayerScore, error)
	PlayerStats(ctx context.Context, player string) (*entity.PlayerStats, error)
}

type Server struct {
	logger *slog.Logger

	gameplay gameplayService
	stats    statsService
}

func New(logger *slog.Logger, gameplay gameplayService, stats statsService) *Server {
	return &Server{
		logger:   logger,
		gameplay: gameplay,
		stats:    stats,
	}
}

// Start - serves the HTTP API until ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Router(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,

		// no WriteTimeout: watch responses stay pending until the
		// board changes
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Router wires every route of the HTTP API.
func (that *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ping", that.handlePing).Methods(http.MethodGet)

	router.HandleFunc("/look/{player}", that.handleLook).Methods(http.MethodGet)
	router.HandleFunc("/flip/{player}/{row}/{col}", that.handleFlip).Methods(http.MethodPost)
	router.HandleFunc("/watch/{player}", that.handleWatch).Methods(http.MethodGet)
	router.HandleFunc("/map/{player}", that.handleMapCards).Methods(http.MethodPost)

	router.HandleFunc("/scores", that.handleScores).Methods(http.MethodGet)
	router.HandleFunc("/stats/{player}", that.handleStats).Methods(http.MethodGet)

	return router
}
