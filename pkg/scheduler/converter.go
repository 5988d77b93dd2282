package scheduler

import (
	"cmp"
	"log/slog"
	"math"
	"time"
)

// TickConverter is a virtual clock counted in integer ticks. Tick n maps to
// Epoch + n*Resolution. Conversions to wall-clock values saturate at the
// limits of time.Duration (about 292 years either side of Epoch) instead of
// wrapping around. Conversions to ticks round to the nearest tick.
type TickConverter struct {
	Epoch      time.Time
	Resolution time.Duration
}

// ToTime returns the instant tick v stands for.
func (c TickConverter) ToTime(v int64) time.Time {
	return c.Epoch.Add(c.ToDuration(v))
}

// FromTime returns the tick nearest to t.
func (c TickConverter) FromTime(t time.Time) int64 {
	return c.FromDuration(t.Sub(c.Epoch))
}

// ToDuration returns the length of i ticks.
func (c TickConverter) ToDuration(i int64) time.Duration {
	res := int64(c.Resolution)
	switch {
	case i > math.MaxInt64/res:
		return time.Duration(math.MaxInt64)
	case i < math.MinInt64/res:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(i * res)
}

// FromDuration returns d as a whole number of ticks, halfway values rounded
// away from zero.
func (c TickConverter) FromDuration(d time.Duration) int64 {
	return int64(d.Round(c.Resolution) / c.Resolution)
}

// Offset returns v moved by i ticks, saturating at the int64 limits.
func (c TickConverter) Offset(v, i int64) int64 {
	switch {
	case i > 0 && v > math.MaxInt64-i:
		return math.MaxInt64
	case i < 0 && v < math.MinInt64-i:
		return math.MinInt64
	}
	return v + i
}

// Compare orders ticks numerically.
func (c TickConverter) Compare(a, b int64) int {
	return cmp.Compare(a, b)
}

// TickScheduler is a virtual-time scheduler over integer ticks.
type TickScheduler = VirtualTimeScheduler[int64, int64]

// NewTickScheduler creates a TickScheduler whose tick 0 is epoch and whose
// clock starts at initialClock. One tick lasts resolution (one second if
// resolution is not positive).
func NewTickScheduler(epoch time.Time, initialClock int64, resolution time.Duration, logger *slog.Logger) *TickScheduler {
	if resolution <= 0 {
		resolution = time.Second
	}
	conv := TickConverter{Epoch: epoch, Resolution: resolution}
	return NewVirtualTimeScheduler[int64, int64](initialClock, conv, logger)
}

var _ VirtualTimeConverter[int64, int64] = TickConverter{}
