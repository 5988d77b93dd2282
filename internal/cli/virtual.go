package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hackebrot/go-rx-scheduler/internal/fib"
	"github.com/hackebrot/go-rx-scheduler/pkg/scheduler"
	"github.com/spf13/cobra"
)

func newVirtualCmd() *cobra.Command {
	cfg := DefaultConfig()
	cmd := &cobra.Command{
		Use:   "virtual",
		Short: "Replay the workload on a simulated clock",
		Long: "Schedules every task on a historical virtual-time scheduler and advances the clock\n" +
			"to --max-offset, so a run over any span of simulated time finishes immediately.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runVirtual(cmd.OutOrStdout(), cfg, time.Now().Truncate(time.Second))
		},
	}
	bindWorkloadFlags(cmd, &cfg)
	cmd.Flags().StringVar(&cfg.Cron, "cron", cfg.Cron, "Cron expression that ticks while the clock advances")
	return cmd
}

func runVirtual(out io.Writer, cfg Config, start time.Time) error {
	runID := uuid.NewString()
	log := logger.With("run_id", runID, "mode", "virtual")
	s := scheduler.NewHistoricalScheduler(start, log)

	var results []fib.Result
	record := func(r fib.Result) { results = append(results, r) }
	for _, task := range newTasks(cfg) {
		task.Schedule(s, record)
	}

	ticks := 0
	if cfg.Cron != "" {
		cron, err := scheduler.ScheduleCron(s, cfg.Cron, log, func(at time.Time) {
			ticks++
			log.Info("cron tick", "at", at)
		})
		if err != nil {
			return err
		}
		defer cron.Dispose()
	}

	log.Info("starting virtual time scheduler", "count_tasks", s.PendingCount(), "start", start)
	if err := s.AdvanceTo(start.Add(cfg.MaxOffset)); err != nil {
		return fmt.Errorf("advance clock: %w", err)
	}

	for _, r := range results {
		printResult(out, r, r.At.Sub(start))
	}
	if cfg.Cron != "" {
		fmt.Fprintf(out, "cron %q ticked %d times\n", cfg.Cron, ticks)
	}
	printSummary(out, runID, summarize(results, log))
	return nil
}
