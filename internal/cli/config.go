package cli

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hackebrot/go-fibonacci"
	"github.com/hackebrot/go-rx-scheduler/internal/fib"
	"github.com/spf13/cobra"
)

// Config holds the workload settings shared by all commands.
type Config struct {
	// Tasks is the number of tasks; task n computes fib(n).
	Tasks int

	// Seed drives the random task delays. Zero picks a random seed.
	Seed uint64

	// MaxOffset bounds the random delay given to each task.
	MaxOffset time.Duration

	// Producers is the number of goroutines feeding the serial scheduler.
	Producers int

	// Cron, if set, ticks alongside the virtual-time workload.
	Cron string
}

// DefaultConfig returns the settings used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Tasks:     10,
		MaxOffset: 20 * time.Second,
		Producers: 4,
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Tasks < 1 || c.Tasks > fib.MaxN {
		errs = append(errs, fmt.Errorf("--tasks must be between 1 and %d, got %d", fib.MaxN, c.Tasks))
	}
	if c.MaxOffset < 0 {
		errs = append(errs, fmt.Errorf("--max-offset must not be negative, got %s", c.MaxOffset))
	}
	if c.Producers < 1 {
		errs = append(errs, fmt.Errorf("--producers must be at least 1, got %d", c.Producers))
	}
	return errors.Join(errs...)
}

func bindWorkloadFlags(cmd *cobra.Command, cfg *Config) {
	cmd.Flags().IntVar(&cfg.Tasks, "tasks", cfg.Tasks, "Number of Fibonacci tasks")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Seed for task delays (0 = random)")
	cmd.Flags().DurationVar(&cfg.MaxOffset, "max-offset", cfg.MaxOffset, "Upper bound of the random delay per task")
}

// newTasks builds tasks 1..cfg.Tasks with delays drawn from [0, MaxOffset].
func newTasks(cfg Config) []*fib.Task {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	tasks := make([]*fib.Task, 0, cfg.Tasks)
	for n := 1; n <= cfg.Tasks; n++ {
		var offset time.Duration
		if cfg.MaxOffset > 0 {
			offset = time.Duration(rng.Int64N(int64(cfg.MaxOffset) + 1))
		}
		offset = offset.Truncate(time.Millisecond)
		id := fmt.Sprintf("fib%d-+%s", n, offset)
		tasks = append(tasks, fib.NewTask(id, n, fibonacci.NewRecursive(), offset))
	}
	return tasks
}
