package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/loadtest"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "base URL of the game server")
	players := flag.Int("players", 8, "number of concurrent players")
	flips := flag.Int("flips", 200, "flips per player")
	watchers := flag.Int("watchers", 2, "number of board watchers")
	timeout := flag.Duration("timeout", 10*time.Second, "per request timeout")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn or error")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := loadtest.Run(ctx, logger, loadtest.Options{
		Addr:     *addr,
		Players:  *players,
		Flips:    *flips,
		Watchers: *watchers,
		Timeout:  *timeout,
	})
	if err != nil {
		logger.Error("load run failed", "error", err)
		os.Exit(1)
	}

	fmt.Print(report)
}

func parseLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
