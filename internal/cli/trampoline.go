package cli

import (
	"io"

	"github.com/google/uuid"
	"github.com/hackebrot/go-rx-scheduler/internal/fib"
	"github.com/hackebrot/go-rx-scheduler/pkg/scheduler"
	"github.com/spf13/cobra"
)

func newTrampolineCmd() *cobra.Command {
	cfg := DefaultConfig()
	cfg.MaxOffset = 0
	cmd := &cobra.Command{
		Use:   "trampoline",
		Short: "Run the workload as one recursive chain on a trampoline",
		Long: "Each task schedules the next one from inside its own action. The trampoline turns\n" +
			"that recursion into a loop on the calling goroutine; task delays are ignored.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runTrampoline(cmd.OutOrStdout(), cfg)
		},
	}
	cmd.Flags().IntVar(&cfg.Tasks, "tasks", cfg.Tasks, "Number of Fibonacci tasks")
	return cmd
}

func runTrampoline(out io.Writer, cfg Config) error {
	runID := uuid.NewString()
	log := logger.With("run_id", runID, "mode", "trampoline")
	tr := scheduler.NewTrampoline(log)
	tasks := newTasks(cfg)

	var results []fib.Result
	record := func(r fib.Result) { results = append(results, r) }

	log.Info("starting trampoline", "count_tasks", len(tasks))
	scheduler.ScheduleRecursive(tr, 0, func(i int, recurse func(int)) {
		tasks[i].Action(record)(tr, nil)
		if i+1 < len(tasks) {
			recurse(i + 1)
		}
	})

	for _, r := range results {
		printResult(out, r, 0)
	}
	printSummary(out, runID, summarize(results, log))
	return nil
}
