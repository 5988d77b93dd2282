package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hackebrot/go-rx-scheduler/internal/fib"
	"github.com/hackebrot/go-rx-scheduler/pkg/scheduler"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newSerialCmd() *cobra.Command {
	cfg := DefaultConfig()
	cfg.MaxOffset = 200 * time.Millisecond
	cmd := &cobra.Command{
		Use:   "serial",
		Short: "Run the workload on a serial run loop",
		Long: "Starts a run loop and lets --producers goroutines schedule the tasks onto it\n" +
			"concurrently. Tasks still run one at a time, in due order, on the loop goroutine.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runSerial(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	bindWorkloadFlags(cmd, &cfg)
	cmd.Flags().IntVar(&cfg.Producers, "producers", cfg.Producers, "Goroutines scheduling tasks concurrently")
	return cmd
}

func runSerial(ctx context.Context, out io.Writer, cfg Config) error {
	runID := uuid.NewString()
	log := logger.With("run_id", runID, "mode", "serial")

	loop := scheduler.NewRunLoop(scheduler.RunLoopConfig{Name: "rxsched-" + runID, Logger: log})
	s := scheduler.NewSerial(loop, log)
	tasks := newTasks(cfg)

	// results is only touched on the loop goroutine until the group is done.
	results := make([]fib.Result, 0, len(tasks))
	done := make(chan struct{})
	record := func(r fib.Result) {
		results = append(results, r)
		if len(results) == len(tasks) {
			close(done)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := loop.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	for p := range cfg.Producers {
		g.Go(func() error {
			for i := p; i < len(tasks); i += cfg.Producers {
				tasks[i].Schedule(s, record)
			}
			return nil
		})
	}
	g.Go(func() error {
		select {
		case <-done:
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	start := time.Now()
	log.Info("starting serial scheduler", "count_tasks", len(tasks), "producers", cfg.Producers)
	if err := g.Wait(); err != nil {
		return fmt.Errorf("run loop: %w", err)
	}
	if len(results) < len(tasks) {
		log.Warn("run interrupted", "count_tasks", len(tasks), "completed", len(results))
	}

	for _, r := range results {
		printResult(out, r, r.StartTime.Sub(start).Truncate(time.Millisecond))
	}
	printSummary(out, runID, summarize(results, log))
	return nil
}
