package scheduler

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hackebrot/go-rx-scheduler/pkg/disposable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tickEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// firing records the clock and label of every action that runs.
type firing struct {
	Clock int64
	Label int
}

func record(sched *TickScheduler, log *[]firing, label int) Action {
	return func(ImmediateScheduler, any) disposable.Disposable {
		*log = append(*log, firing{Clock: sched.Clock(), Label: label})
		return nil
	}
}

func TestVirtual_FiresInTimeOrder(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, 10*time.Second, nil)
	rng := rand.New(rand.NewPCG(7, 11))

	const n = 20000
	times := make([]int64, n)
	var observed []int64
	for i := range times {
		times[i] = int64(rng.IntN(10000))
		s.ScheduleRelative(nil, time.Duration(times[i])*10*time.Second, func(ImmediateScheduler, any) disposable.Disposable {
			observed = append(observed, s.Clock())
			return nil
		})
	}
	assert.Equal(t, n, s.PendingCount())

	s.Start()

	slices.Sort(times)
	if diff := cmp.Diff(times, observed); diff != "" {
		t.Errorf("clock sequence mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, s.PendingCount())
	assert.False(t, s.IsRunning())
}

func TestVirtual_TiesRunInSchedulingOrder(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)
	var log []firing

	s.ScheduleAbsoluteVirtual(nil, 5, record(s, &log, 1))
	s.ScheduleAbsoluteVirtual(nil, 3, record(s, &log, 2))
	s.ScheduleAbsoluteVirtual(nil, 5, record(s, &log, 3))
	s.ScheduleAbsoluteVirtual(nil, 3, record(s, &log, 4))
	s.Schedule(nil, record(s, &log, 5))

	s.Start()

	want := []firing{{0, 5}, {3, 2}, {3, 4}, {5, 1}, {5, 3}}
	assert.Equal(t, want, log)
}

func TestVirtual_StopTakesEffectMidRun(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)
	var log []firing

	s.ScheduleAbsoluteVirtual(nil, 1, func(ImmediateScheduler, any) disposable.Disposable {
		log = append(log, firing{s.Clock(), 1})
		s.Stop()
		return nil
	})
	s.ScheduleAbsoluteVirtual(nil, 1, record(s, &log, 2))
	s.ScheduleAbsoluteVirtual(nil, 2, record(s, &log, 3))

	s.Start()
	assert.Equal(t, []firing{{1, 1}}, log)
	assert.False(t, s.IsRunning())
	assert.Equal(t, 2, s.PendingCount())

	s.Start()
	assert.Equal(t, []firing{{1, 1}, {1, 2}, {2, 3}}, log)
}

func TestVirtual_AdvanceToPrefixLaw(t *testing.T) {
	for seed := range uint64(20) {
		rng := rand.New(rand.NewPCG(seed, 99))
		dues := make([]int64, 200)
		for i := range dues {
			dues[i] = int64(rng.IntN(1000))
		}
		t1 := int64(rng.IntN(1000))
		t2 := t1 + 1 + int64(rng.IntN(1000))

		split := NewTickScheduler(tickEpoch, 0, time.Second, nil)
		whole := NewTickScheduler(tickEpoch, 0, time.Second, nil)
		var splitLog, wholeLog []firing
		for i, due := range dues {
			split.ScheduleAbsoluteVirtual(nil, due, record(split, &splitLog, i))
			whole.ScheduleAbsoluteVirtual(nil, due, record(whole, &wholeLog, i))
		}

		require.NoError(t, split.AdvanceTo(t1))
		assert.Equal(t, t1, split.Clock())
		require.NoError(t, split.AdvanceTo(t2))
		require.NoError(t, whole.AdvanceTo(t2))

		if diff := cmp.Diff(wholeLog, splitLog); diff != "" {
			t.Errorf("seed %d: firing sequence mismatch (-whole +split):\n%s", seed, diff)
		}
		assert.Equal(t, whole.Clock(), split.Clock())
		assert.Equal(t, t2, whole.Clock())
	}
}

func TestVirtual_AdvanceLeavesLaterItemsQueued(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)
	var log []firing
	s.ScheduleAbsoluteVirtual(nil, 10, record(s, &log, 1))
	s.ScheduleAbsoluteVirtual(nil, 20, record(s, &log, 2))

	require.NoError(t, s.AdvanceBy(10))
	assert.Equal(t, []firing{{10, 1}}, log)
	assert.Equal(t, 1, s.PendingCount())

	require.NoError(t, s.AdvanceBy(5))
	assert.Equal(t, int64(15), s.Clock())
	assert.Len(t, log, 1)
}

func TestVirtual_AdvanceErrors(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 100, time.Second, nil)

	err := s.AdvanceTo(50)
	assert.ErrorIs(t, err, ErrTimeInPast)
	assert.Equal(t, int64(100), s.Clock())

	var nested error
	s.Schedule(nil, func(ImmediateScheduler, any) disposable.Disposable {
		nested = s.AdvanceTo(200)
		return nil
	})
	s.Start()
	assert.ErrorIs(t, nested, ErrAlreadyRunning)
	assert.Equal(t, int64(100), s.Clock())
}

func TestVirtual_Sleep(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)
	var clocks []int64
	note := func(ImmediateScheduler, any) disposable.Disposable {
		clocks = append(clocks, s.Clock())
		return nil
	}

	s.ScheduleRelative(nil, time.Second, func(sched ImmediateScheduler, _ any) disposable.Disposable {
		note(sched, nil)
		require.NoError(t, s.Sleep(10))
		s.ScheduleRelativeVirtual(nil, 2, note)
		return nil
	})
	s.ScheduleAbsoluteVirtual(nil, 5, note)

	s.Start()
	assert.Equal(t, []int64{1, 11, 13}, clocks)

	assert.ErrorIs(t, s.Sleep(1), ErrNotRunning)
}

func TestVirtual_SleepBackwards(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 10, time.Second, nil)
	var err error
	s.Schedule(nil, func(ImmediateScheduler, any) disposable.Disposable {
		err = s.Sleep(-5)
		return nil
	})
	s.Start()
	assert.ErrorIs(t, err, ErrTimeInPast)
	assert.Equal(t, int64(10), s.Clock())
}

func TestVirtual_PastItemsDoNotRewindClock(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)
	var log []firing

	s.ScheduleAbsoluteVirtual(nil, 10, func(ImmediateScheduler, any) disposable.Disposable {
		s.ScheduleAbsoluteVirtual(nil, 3, record(s, &log, 2))
		return nil
	})
	s.Start()

	assert.Equal(t, []firing{{10, 2}}, log)
	assert.Equal(t, int64(10), s.Clock())
}

func TestVirtual_DisposeHandle(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)
	var log []firing

	cancelled := s.ScheduleAbsoluteVirtual(nil, 1, record(s, &log, 1))
	inner := disposable.NewBoolean()
	ran := s.ScheduleAbsoluteVirtual(nil, 2, func(ImmediateScheduler, any) disposable.Disposable {
		return inner
	})

	cancelled.Dispose()
	assert.Equal(t, 1, s.PendingCount())

	s.Start()
	assert.Empty(t, log)
	assert.False(t, inner.IsDisposed())

	ran.Dispose()
	assert.True(t, inner.IsDisposed())
}

func TestVirtual_StartWhileRunningIsNoop(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)
	var log []firing

	s.ScheduleAbsoluteVirtual(nil, 1, func(ImmediateScheduler, any) disposable.Disposable {
		s.Start()
		log = append(log, firing{s.Clock(), 1})
		return nil
	})
	s.ScheduleAbsoluteVirtual(nil, 2, record(s, &log, 2))

	s.Start()
	assert.Equal(t, []firing{{1, 1}, {2, 2}}, log)
}

func TestVirtual_PanicStopsScheduler(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)
	var log []firing

	s.ScheduleAbsoluteVirtual(nil, 1, func(ImmediateScheduler, any) disposable.Disposable {
		panic("boom")
	})
	s.ScheduleAbsoluteVirtual(nil, 2, record(s, &log, 2))

	assert.PanicsWithValue(t, "boom", s.Start)
	assert.False(t, s.IsRunning())
	assert.Empty(t, log)

	s.Start()
	assert.Equal(t, []firing{{2, 2}}, log)
}

func TestTickConverter(t *testing.T) {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := TickConverter{Epoch: epoch, Resolution: time.Minute}

	assert.Equal(t, epoch.Add(90*time.Minute), c.ToTime(90))
	assert.Equal(t, int64(90), c.FromTime(epoch.Add(90*time.Minute)))
	assert.Equal(t, 3*time.Minute, c.ToDuration(3))
	assert.Equal(t, int64(3), c.FromDuration(150*time.Second))
	assert.Equal(t, int64(2), c.FromDuration(149*time.Second))
	assert.Equal(t, int64(7), c.Offset(5, 2))
	assert.Equal(t, -1, c.Compare(1, 2))
	assert.Equal(t, 0, c.Compare(2, 2))
}

func TestTickConverter_Rounding(t *testing.T) {
	c := TickConverter{Epoch: tickEpoch, Resolution: time.Second}

	assert.Equal(t, int64(2), c.FromDuration(1500*time.Millisecond))
	assert.Equal(t, int64(1), c.FromDuration(1400*time.Millisecond))
	assert.Equal(t, int64(0), c.FromDuration(400*time.Millisecond))
	assert.Equal(t, int64(-2), c.FromDuration(-1500*time.Millisecond))
	assert.Equal(t, int64(5), c.FromTime(tickEpoch.Add(4600*time.Millisecond)))
}

func TestTickConverter_Saturates(t *testing.T) {
	c := TickConverter{Epoch: tickEpoch, Resolution: time.Second}

	assert.Equal(t, time.Duration(math.MaxInt64), c.ToDuration(1<<40))
	assert.Equal(t, time.Duration(math.MinInt64), c.ToDuration(-(1 << 40)))
	assert.Equal(t, int64(math.MaxInt64), c.Offset(math.MaxInt64-1, 5))
	assert.Equal(t, int64(math.MinInt64), c.Offset(math.MinInt64+1, -5))
	assert.Equal(t, int64(7), c.Offset(5, 2))
}

func TestTickScheduler_WallClock(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)
	assert.Equal(t, tickEpoch, s.Now())

	var firedAt []int64
	s.ScheduleAbsolute(nil, tickEpoch.Add(5*time.Second), func(ImmediateScheduler, any) disposable.Disposable {
		firedAt = append(firedAt, s.Clock())
		return nil
	})
	s.ScheduleRelative(nil, 1500*time.Millisecond, func(ImmediateScheduler, any) disposable.Disposable {
		firedAt = append(firedAt, s.Clock())
		return nil
	})

	s.Start()
	assert.Equal(t, []int64{2, 5}, firedAt)
	assert.Equal(t, tickEpoch.Add(5*time.Second), s.Now())
}

func TestTickScheduler_FarFutureClockDoesNotWrap(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)

	require.NoError(t, s.AdvanceBy(1<<40))
	assert.Equal(t, int64(1<<40), s.Clock())
	assert.True(t, s.Now().After(tickEpoch.AddDate(290, 0, 0)), "clock wrapped to %v", s.Now())
}

func TestVirtual_StopDuringAdvanceKeepsClock(t *testing.T) {
	s := NewTickScheduler(tickEpoch, 0, time.Second, nil)
	var log []firing

	s.ScheduleAbsoluteVirtual(nil, 1, record(s, &log, 1))
	s.ScheduleAbsoluteVirtual(nil, 2, func(ImmediateScheduler, any) disposable.Disposable {
		log = append(log, firing{s.Clock(), 2})
		s.Stop()
		return nil
	})
	s.ScheduleAbsoluteVirtual(nil, 3, record(s, &log, 3))

	require.NoError(t, s.AdvanceTo(10))

	assert.Equal(t, []firing{{1, 1}, {2, 2}}, log)
	assert.Equal(t, int64(2), s.Clock())
	assert.False(t, s.IsRunning())
	assert.Equal(t, 1, s.PendingCount())

	require.NoError(t, s.AdvanceTo(10))
	assert.Equal(t, []firing{{1, 1}, {2, 2}, {3, 3}}, log)
	assert.Equal(t, int64(10), s.Clock())
}
