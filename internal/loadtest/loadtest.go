// Package loadtest drives a running game server with concurrent players and
// reports flip latency and throughput.
package loadtest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const scoutPlayer = "loadtest-scout"

type Options struct {
	Addr     string // base URL of the REST server
	Players  int    // concurrent flipping players
	Flips    int    // flips each player makes
	Watchers int    // players polling the watch endpoint
	Timeout  time.Duration
}

// Run floods the server at opts.Addr with random flips and measures how it
// holds up. The board dimensions are learned from the server itself.
func Run(ctx context.Context, logger *slog.Logger, opts Options) (*Report, error) {
	log := logger.With("component", "loadtest")

	client := &http.Client{Timeout: opts.Timeout}

	rows, cols, err := boardSize(ctx, client, opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to learn board size: %w", err)
	}

	log.Info("Starting load run", "players", opts.Players, "flips", opts.Flips, "watchers", opts.Watchers, "rows", rows, "cols", cols)

	var mu sync.Mutex
	var latencies []time.Duration
	var succeeded, rejected, failed, wakeups int

	watchCtx, stopWatchers := context.WithCancel(ctx)
	defer stopWatchers()

	watchGroup, _ := errgroup.WithContext(watchCtx)
	for i := 0; i < opts.Watchers; i++ {
		watchGroup.Go(func() error {
			player := uuid.NewString()
			for watchCtx.Err() == nil {
				if watchOnce(watchCtx, client, opts.Addr, player) {
					mu.Lock()
					wakeups++
					mu.Unlock()
				}
			}
			return nil
		})
	}

	start := time.Now()

	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < opts.Players; i++ {
		group.Go(func() error {
			player := uuid.NewString()

			for j := 0; j < opts.Flips; j++ {
				if err := groupCtx.Err(); err != nil {
					return err
				}

				row, col := rand.Intn(rows), rand.Intn(cols)
				latency, status, flipErr := flip(groupCtx, client, opts.Addr, player, row, col)

				mu.Lock()
				switch {
				case flipErr != nil:
					failed++
				case status >= http.StatusInternalServerError:
					failed++
				case status >= http.StatusBadRequest:
					rejected++
					latencies = append(latencies, latency)
				default:
					succeeded++
					latencies = append(latencies, latency)
				}
				mu.Unlock()
			}

			return nil
		})
	}

	if err = group.Wait(); err != nil {
		return nil, fmt.Errorf("load run aborted: %w", err)
	}

	duration := time.Since(start)

	stopWatchers()
	if err = watchGroup.Wait(); err != nil {
		log.Error("watcher error", "error", err)
	}

	report := buildReport(latencies, succeeded, rejected, failed, wakeups, duration)

	log.Info("Load run finished", "requests", report.Requests, "failed", report.Failed, "duration", duration.String())

	return report, nil
}

// flip posts a single flip and reports how long the server took to answer.
func flip(ctx context.Context, client *http.Client, addr, player string, row, col int) (time.Duration, int, error) {
	url := fmt.Sprintf("%s/flip/%s/%d/%d", addr, player, row, col)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build flip request: %w", err)
	}

	start := time.Now()

	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return latency, 0, fmt.Errorf("failed to flip: %w", err)
	}
	defer resp.Body.Close()

	// drain the body so the connection can be reused
	if _, err = io.Copy(io.Discard, resp.Body); err != nil {
		return latency, resp.StatusCode, fmt.Errorf("failed to read flip response: %w", err)
	}

	return latency, resp.StatusCode, nil
}

// watchOnce long-polls the watch endpoint. It reports true when the server
// answered with a fresh view.
func watchOnce(ctx context.Context, client *http.Client, addr, player string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"/watch/"+player, nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if _, err = io.Copy(io.Discard, resp.Body); err != nil {
		return false
	}

	return resp.StatusCode == http.StatusOK
}

// boardSize asks the server for a view and reads the dimensions off its
// header line.
func boardSize(ctx context.Context, client *http.Client, addr string) (int, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"/look/"+scoutPlayer, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build look request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to look at board: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read look response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("unexpected look status %d", resp.StatusCode)
	}

	header, _, found := strings.Cut(string(body), "\n")
	if !found {
		return 0, 0, fmt.Errorf("malformed view %q", string(body))
	}

	rawRows, rawCols, found := strings.Cut(header, "x")
	if !found {
		return 0, 0, fmt.Errorf("malformed view header %q", header)
	}

	rows, err := strconv.Atoi(rawRows)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed row count %q: %w", rawRows, err)
	}

	cols, err := strconv.Atoi(rawCols)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed column count %q: %w", rawCols, err)
	}

	return rows, cols, nil
}
