package scheduler

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hackebrot/go-rx-scheduler/pkg/disposable"
)

// Serial marshals work onto one ExecutionContext. It may be called from any
// goroutine and its actions never run concurrently with each other.
//
// A Schedule call made on the context, outside any action this scheduler is
// running, executes synchronously. Every other call, including any call made
// from inside one of its own actions, is deferred to a later turn of the
// context. Nested continuations thus never grow the stack, and control
// returns to the outer caller before they run.
type Serial struct {
	ec      ExecutionContext
	logger  *slog.Logger
	running atomic.Bool
}

// NewSerial creates a scheduler bound to ec. A nil logger means slog.Default().
func NewSerial(ec ExecutionContext, logger *slog.Logger) *Serial {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serial{
		ec:     ec,
		logger: logger.With("component", "serial_scheduler"),
	}
}

// Now returns the wall-clock time.
func (s *Serial) Now() time.Time {
	return time.Now()
}

// Schedule runs action now when allowed (see Serial), otherwise defers it.
// The returned handle skips a deferred action if disposed before its turn.
func (s *Serial) Schedule(state any, action Action) disposable.Disposable {
	if s.ec.IsCurrent() && !s.running.Load() {
		s.running.Store(true)
		defer s.running.Store(false)
		return orNop(action(s, state))
	}
	return s.post(newScheduledItem(s, state, action))
}

// ScheduleRelative defers action until due has elapsed, then queues it on
// the context like any deferred action.
func (s *Serial) ScheduleRelative(state any, due time.Duration, action Action) disposable.Disposable {
	if due <= 0 {
		return s.post(newScheduledItem(s, state, action))
	}

	it := newScheduledItem(s, state, action)
	timer := time.AfterFunc(due, func() {
		s.post(it)
	})
	return disposable.Action(func() {
		timer.Stop()
		it.Dispose()
	})
}

// ScheduleAbsolute is ScheduleRelative with the delay measured to at.
func (s *Serial) ScheduleAbsolute(state any, at time.Time, action Action) disposable.Disposable {
	return s.ScheduleRelative(state, time.Until(at), action)
}

func (s *Serial) post(it *scheduledItem) disposable.Disposable {
	err := s.ec.Post(func() {
		if it.IsDisposed() {
			return
		}
		s.running.Store(true)
		defer s.running.Store(false)
		it.invoke()
	})
	if err != nil {
		s.logger.Warn("dropping action, execution context rejected it", "error", err)
		it.Dispose()
	}
	return it
}

var _ Scheduler = (*Serial)(nil)
