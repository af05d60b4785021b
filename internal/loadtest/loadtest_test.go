package loadtest

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/memory-scramble-backend/internal/entity"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/repository"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/scramble"
	"github.com/rocketscienceinc/memory-scramble-backend/internal/service"
	"github.com/rocketscienceinc/memory-scramble-backend/transport/rest"
)

func TestRun(t *testing.T) {
	// Given: a real server on a small board
	grid, err := entity.NewGrid(2, 2, []string{"A", "A", "B", "B"})
	require.NoError(t, err)

	logger := slog.Default()
	statsService := service.NewStatsService(repository.NewMemoryStatsRepository())
	gameplay := service.NewGameplayService(logger, scramble.New(grid), statsService)

	server := httptest.NewServer(rest.New(logger, gameplay, statsService).Router())
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// When: a short load run hammers it
	report, err := Run(ctx, logger, Options{
		Addr:     server.URL,
		Players:  3,
		Flips:    20,
		Watchers: 1,
		Timeout:  2 * time.Second,
	})

	// Then: every flip is accounted for and the numbers hang together
	require.NoError(t, err)
	assert.Equal(t, 60, report.Requests)
	assert.Equal(t, report.Requests, report.Success+report.Rejected+report.Failed)
	assert.Positive(t, report.Success)
	assert.Positive(t, report.Throughput)
	assert.GreaterOrEqual(t, report.P95, report.P50)
	assert.GreaterOrEqual(t, report.Max, report.Min)
}

func TestRun_UnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Run(ctx, slog.Default(), Options{
		Addr:    "http://127.0.0.1:1",
		Players: 1,
		Flips:   1,
		Timeout: time.Second,
	})

	require.Error(t, err)
}

func TestBuildReport(t *testing.T) {
	latencies := []time.Duration{
		5 * time.Millisecond,
		1 * time.Millisecond,
		3 * time.Millisecond,
		2 * time.Millisecond,
		4 * time.Millisecond,
	}

	report := buildReport(latencies, 4, 1, 2, 3, time.Second)

	assert.Equal(t, 7, report.Requests)
	assert.Equal(t, 3, report.Wakeups)
	assert.Equal(t, time.Millisecond, report.Min)
	assert.Equal(t, 5*time.Millisecond, report.Max)
	assert.Equal(t, 3*time.Millisecond, report.Mean)
	assert.InDelta(t, 5.0, report.Throughput, 0.001)
	assert.Equal(t, 3*time.Millisecond, report.P50)
	assert.Equal(t, 5*time.Millisecond, report.P95)
	assert.Equal(t, 5*time.Millisecond, report.P99)
}

func TestBuildReport_NoLatencies(t *testing.T) {
	report := buildReport(nil, 0, 0, 5, 0, time.Second)

	assert.Equal(t, 5, report.Requests)
	assert.Zero(t, report.Mean)
	assert.Zero(t, report.Throughput)
	assert.NotEmpty(t, report.String())
}
