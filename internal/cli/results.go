package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/hackebrot/go-rx-scheduler/internal/fib"
)

// Summary holds statistics over the successful results of a run.
type Summary struct {
	Count  int
	Failed int

	Mean   time.Duration
	Median time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
}

// summarize logs each result and computes summary statistics for successful executions.
func summarize(results []fib.Result, log *slog.Logger) Summary {
	var (
		sum       Summary
		durations []time.Duration
	)
	for _, result := range results {
		duration := result.Duration()
		if result.Error != nil {
			sum.Failed++
			log.Error(
				"error executing task",
				"task_id", result.TaskID,
				"duration_microseconds", duration.Microseconds(),
				"error", result.Error,
			)
			continue
		}
		durations = append(durations, duration)
		log.Debug(
			"task completed",
			"task_id", result.TaskID,
			"duration_microseconds", duration.Microseconds(),
		)
	}

	sum.Count = len(durations)
	if sum.Count == 0 {
		return sum
	}

	slices.Sort(durations)
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	sum.Mean = total / time.Duration(len(durations))
	sum.Median = durations[len(durations)/2]
	sum.P95 = durations[int(float64(len(durations))*0.95)]
	sum.P99 = durations[int(float64(len(durations))*0.99)]
	sum.Min = durations[0]
	sum.Max = durations[len(durations)-1]

	log.Info(
		"task execution summary",
		"count", sum.Count,
		"failed", sum.Failed,
		"mean_microseconds", sum.Mean.Microseconds(),
		"median_microseconds", sum.Median.Microseconds(),
		"p95_microseconds", sum.P95.Microseconds(),
		"p99_microseconds", sum.P99.Microseconds(),
		"min_microseconds", sum.Min.Microseconds(),
		"max_microseconds", sum.Max.Microseconds(),
	)
	return sum
}

func printResult(w io.Writer, r fib.Result, offset time.Duration) {
	if r.Error != nil {
		fmt.Fprintf(w, "+%-10s %-16s n=%-2d error=%v\n", offset, r.TaskID, r.N, r.Error)
		return
	}
	fmt.Fprintf(w, "+%-10s %-16s n=%-2d value=%v\n", offset, r.TaskID, r.N, r.Value)
}

func printSummary(w io.Writer, runID string, s Summary) {
	fmt.Fprintf(w, "run %s: %d tasks, %d failed\n", runID, s.Count+s.Failed, s.Failed)
}
