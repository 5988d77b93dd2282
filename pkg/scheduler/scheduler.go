// Package scheduler decides when and where units of work run. It offers
// three disciplines behind one contract: a reentrant same-goroutine
// trampoline, a serial scheduler that marshals work onto one execution
// context, and a deterministic virtual-time engine for tests.
package scheduler

import (
	"time"

	"github.com/hackebrot/go-rx-scheduler/pkg/disposable"
)

// ImmediateScheduler runs work as soon as its discipline allows.
type ImmediateScheduler interface {
	// Schedule arranges for action to run with state. The returned handle
	// cancels the action if it has not started yet.
	Schedule(state any, action Action) disposable.Disposable
}

// Scheduler is an ImmediateScheduler with a clock and timed scheduling.
type Scheduler interface {
	ImmediateScheduler

	// Now returns the scheduler's notion of the current time.
	Now() time.Time

	// ScheduleRelative runs action once due has elapsed on the scheduler's clock.
	ScheduleRelative(state any, due time.Duration, action Action) disposable.Disposable

	// ScheduleAbsolute runs action once the scheduler's clock reaches at.
	ScheduleAbsolute(state any, at time.Time, action Action) disposable.Disposable
}
