package scheduler

import (
	"log/slog"
	"time"
)

// HistoricalConverter is a virtual clock expressed as wall-clock instants,
// with intervals as time.Duration.
type HistoricalConverter struct{}

// ToTime returns v unchanged.
func (HistoricalConverter) ToTime(v time.Time) time.Time { return v }

// FromTime returns t unchanged.
func (HistoricalConverter) FromTime(t time.Time) time.Time { return t }

// ToDuration returns i unchanged.
func (HistoricalConverter) ToDuration(i time.Duration) time.Duration { return i }

// FromDuration returns d unchanged.
func (HistoricalConverter) FromDuration(d time.Duration) time.Duration { return d }

// Offset returns v moved by i.
func (HistoricalConverter) Offset(v time.Time, i time.Duration) time.Time { return v.Add(i) }

// Compare orders instants chronologically.
func (HistoricalConverter) Compare(a, b time.Time) int { return a.Compare(b) }

// HistoricalScheduler replays time-dependent work against a simulated
// calendar, for example to run a day of cron schedules in a test.
type HistoricalScheduler = VirtualTimeScheduler[time.Time, time.Duration]

// NewHistoricalScheduler creates a HistoricalScheduler whose clock starts at initial.
func NewHistoricalScheduler(initial time.Time, logger *slog.Logger) *HistoricalScheduler {
	return NewVirtualTimeScheduler[time.Time, time.Duration](initial, HistoricalConverter{}, logger)
}

var _ VirtualTimeConverter[time.Time, time.Duration] = HistoricalConverter{}
