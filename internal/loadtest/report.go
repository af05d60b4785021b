package loadtest

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Report summarizes one load run.
type Report struct {
	Requests int
	Success  int
	Rejected int // moves the board refused, still counted as answered
	Failed   int // transport errors, timeouts and server faults
	Wakeups  int // watch responses delivered

	Duration   time.Duration
	Throughput float64 // answered flips per second

	Min  time.Duration
	Mean time.Duration
	Max  time.Duration
	P50  time.Duration
	P95  time.Duration
	P99  time.Duration
}

func buildReport(latencies []time.Duration, succeeded, rejected, failed, wakeups int, duration time.Duration) *Report {
	report := &Report{
		Requests: succeeded + rejected + failed,
		Success:  succeeded,
		Rejected: rejected,
		Failed:   failed,
		Wakeups:  wakeups,
		Duration: duration,
	}

	if duration > 0 {
		report.Throughput = float64(succeeded+rejected) / duration.Seconds()
	}

	if len(latencies) == 0 {
		return report
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var total time.Duration
	for _, latency := range latencies {
		total += latency
	}

	report.Min = latencies[0]
	report.Max = latencies[len(latencies)-1]
	report.Mean = total / time.Duration(len(latencies))
	report.P50 = percentile(latencies, 0.50)
	report.P95 = percentile(latencies, 0.95)
	report.P99 = percentile(latencies, 0.99)

	return report
}

// percentile reads the q-th quantile off an already sorted slice.
func percentile(sorted []time.Duration, q float64) time.Duration {
	idx := int(float64(len(sorted)) * q)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return sorted[idx]
}

func (that *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "requests:   %d (ok %d, rejected %d, failed %d)\n", that.Requests, that.Success, that.Rejected, that.Failed)
	fmt.Fprintf(&b, "watch:      %d wakeups\n", that.Wakeups)
	fmt.Fprintf(&b, "duration:   %s\n", that.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "throughput: %.1f flips/s\n", that.Throughput)
	fmt.Fprintf(&b, "latency:    min %s, mean %s, max %s\n", that.Min.Round(time.Microsecond), that.Mean.Round(time.Microsecond), that.Max.Round(time.Microsecond))
	fmt.Fprintf(&b, "quantiles:  p50 %s, p95 %s, p99 %s\n", that.P50.Round(time.Microsecond), that.P95.Round(time.Microsecond), that.P99.Round(time.Microsecond))

	return b.String()
}
