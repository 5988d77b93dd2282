package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrLoopAlreadyRunning is returned when Run is called on a loop that is already running.
	ErrLoopAlreadyRunning = errors.New("scheduler: loop is already running")

	// ErrLoopTerminated is returned when work is posted to, or Run is called on, a loop that has stopped.
	ErrLoopTerminated = errors.New("scheduler: loop has been terminated")

	// ErrReentrantRun is returned when Run is called from within the loop itself.
	ErrReentrantRun = errors.New("scheduler: cannot call Run from within the loop")
)

// ExecutionContext is a single serial execution context, such as an
// application's main loop. Posted functions run one at a time, in the order
// they were posted.
type ExecutionContext interface {
	// Post queues fn to run on the context. It never runs fn inline.
	Post(fn func()) error

	// IsCurrent reports whether the caller is running on the context.
	IsCurrent() bool
}

// PanicError carries a panic raised by a job running on a RunLoop.
type PanicError struct {
	Value any
	Stack []byte
}

// Error reports the panic value.
func (e *PanicError) Error() string {
	return fmt.Sprintf("scheduler: job panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// RunLoopConfig holds RunLoop settings.
type RunLoopConfig struct {
	// Name identifies the loop in logs. Empty means a random UUID.
	Name string

	// Logger receives loop diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultRunLoopConfig returns sensible defaults.
func DefaultRunLoopConfig() RunLoopConfig {
	return RunLoopConfig{Name: uuid.NewString()}
}

const (
	loopIdle int32 = iota
	loopRunning
	loopTerminated
)

// RunLoop is an ExecutionContext driven by whichever goroutine calls Run.
// Producers on any goroutine append to a pending slice under a mutex; the
// loop swaps it for a spare slice and runs the batch without holding the
// lock.
type RunLoop struct {
	name   string
	logger *slog.Logger

	mu      sync.Mutex
	state   int32
	pending []func()
	spare   []func()

	wakeup chan struct{}
	owner  atomic.Uint64
}

// NewRunLoop creates a loop. It does nothing until Run is called.
func NewRunLoop(cfg RunLoopConfig) *RunLoop {
	if cfg.Name == "" {
		cfg.Name = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RunLoop{
		name:   cfg.Name,
		logger: cfg.Logger.With("component", "run_loop", "loop", cfg.Name),
		wakeup: make(chan struct{}, 1),
	}
}

// Name returns the loop's name.
func (l *RunLoop) Name() string {
	return l.name
}

// Run processes posted work on the calling goroutine until ctx is cancelled
// or a job panics. A panicking job ends the loop with a *PanicError.
// A loop runs at most once; posts after Run returns fail with
// ErrLoopTerminated.
func (l *RunLoop) Run(ctx context.Context) error {
	if l.IsCurrent() {
		return ErrReentrantRun
	}

	l.mu.Lock()
	switch l.state {
	case loopRunning:
		l.mu.Unlock()
		return ErrLoopAlreadyRunning
	case loopTerminated:
		l.mu.Unlock()
		return ErrLoopTerminated
	}
	l.state = loopRunning
	l.mu.Unlock()

	l.owner.Store(goroutineID())
	defer l.terminate()

	l.logger.Debug("run loop started")
	for {
		if err := l.runBatch(); err != nil {
			l.logger.Error("job panicked, stopping run loop", "error", err)
			return err
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("run loop stopping (context cancelled)")
			return ctx.Err()
		case <-l.wakeup:
		}
	}
}

// Post queues fn. It is safe to call from any goroutine, including the loop.
func (l *RunLoop) Post(fn func()) error {
	l.mu.Lock()
	if l.state == loopTerminated {
		l.mu.Unlock()
		return ErrLoopTerminated
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wakeup <- struct{}{}:
	default:
	}
	return nil
}

// IsCurrent reports whether the caller is the goroutine running the loop.
func (l *RunLoop) IsCurrent() bool {
	owner := l.owner.Load()
	return owner != 0 && owner == goroutineID()
}

// runBatch runs everything posted so far. Work posted by the batch itself
// is picked up by the next batch.
func (l *RunLoop) runBatch() error {
	l.mu.Lock()
	batch := l.pending
	l.pending = l.spare[:0]
	l.mu.Unlock()

	for i, fn := range batch {
		batch[i] = nil
		if err := runJob(fn); err != nil {
			l.requeue(batch[i+1:])
			return err
		}
	}

	l.mu.Lock()
	l.spare = batch[:0]
	l.mu.Unlock()
	return nil
}

// requeue puts the unfinished tail of a batch back in front of newer work.
func (l *RunLoop) requeue(rest []func()) {
	if len(rest) == 0 {
		return
	}
	l.mu.Lock()
	l.pending = append(append(make([]func(), 0, len(rest)+len(l.pending)), rest...), l.pending...)
	l.mu.Unlock()
}

func runJob(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}

func (l *RunLoop) terminate() {
	l.owner.Store(0)

	l.mu.Lock()
	l.state = loopTerminated
	dropped := len(l.pending)
	l.pending = nil
	l.spare = nil
	l.mu.Unlock()

	if dropped > 0 {
		l.logger.Warn("dropping pending jobs at shutdown", "count_tasks", dropped)
	}
}

var _ ExecutionContext = (*RunLoop)(nil)
