package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"
	"github.com/hackebrot/go-rx-scheduler/pkg/disposable"
)

// ErrInvalidCronExpr is returned by ScheduleCron for an expression gronx
// cannot parse.
var ErrInvalidCronExpr = errors.New("scheduler: invalid cron expression")

// ScheduleCron calls action at every instant matching the cron expression
// expr, as read on s's clock. The first occurrence is the first match
// strictly after s.Now(); each later one is computed from the previous
// occurrence, so a virtual clock replays a schedule exactly. If a later
// occurrence cannot be computed, the schedule ends and the error is logged.
// A nil logger means slog.Default().
func ScheduleCron(s Scheduler, expr string, logger *slog.Logger, action func(at time.Time)) (disposable.Disposable, error) {
	if !gronx.IsValid(expr) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCronExpr, expr)
	}
	return scheduleCron(s, expr, gronx.NextTickAfter, logger, action)
}

type nextTickFunc func(expr string, ref time.Time, inclRefTime bool) (time.Time, error)

func scheduleCron(s Scheduler, expr string, next nextTickFunc, logger *slog.Logger, action func(at time.Time)) (disposable.Disposable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "cron", "expr", expr)

	first, err := next(expr, s.Now(), false)
	if err != nil {
		return nil, fmt.Errorf("next occurrence of %q: %w", expr, err)
	}

	current := disposable.NewSerial()

	var fire func(ImmediateScheduler, time.Time) disposable.Disposable
	fire = func(_ ImmediateScheduler, at time.Time) disposable.Disposable {
		if current.IsDisposed() {
			return disposable.Nop
		}
		action(at)
		following, err := next(expr, at, false)
		if err != nil {
			logger.Error("cron schedule ended, next occurrence failed", "after", at, "error", err)
			current.Dispose()
			return disposable.Nop
		}
		current.SetDisposable(ScheduleAbsolute(s, following, following, fire))
		return disposable.Nop
	}

	current.SetDisposable(ScheduleAbsolute(s, first, first, fire))
	return current, nil
}
