package cli

import (
	"bytes"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/hackebrot/go-rx-scheduler/internal/fib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))) })

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

var summaryRE = regexp.MustCompile(`run [0-9a-f-]{36}: (\d+) tasks, (\d+) failed`)

func resultLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "+") {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestVirtualCommand(t *testing.T) {
	out, err := execute(t, "virtual", "--tasks", "12", "--seed", "42", "--max-offset", "1h")
	require.NoError(t, err)

	m := summaryRE.FindStringSubmatch(out)
	require.NotNil(t, m, out)
	assert.Equal(t, "12", m[1])
	assert.Equal(t, "0", m[2])

	lines := resultLines(out)
	require.Len(t, lines, 12)
	var prev time.Duration
	for _, line := range lines {
		d, err := time.ParseDuration(strings.TrimPrefix(strings.Fields(line)[0], "+"))
		require.NoError(t, err, line)
		assert.GreaterOrEqual(t, d, prev, "results out of time order:\n%s", out)
		assert.LessOrEqual(t, d, time.Hour)
		prev = d
	}
}

func TestVirtualCommand_SameSeedSameOrder(t *testing.T) {
	first, err := execute(t, "virtual", "--seed", "7")
	require.NoError(t, err)
	second, err := execute(t, "virtual", "--seed", "7")
	require.NoError(t, err)

	assert.Equal(t, resultLines(first), resultLines(second))
}

func TestVirtualCommand_Cron(t *testing.T) {
	out, err := execute(t, "virtual", "--tasks", "3", "--seed", "1", "--max-offset", "3h", "--cron", "0 * * * *")
	require.NoError(t, err)
	assert.Contains(t, out, `cron "0 * * * *" ticked 3 times`)
}

func TestVirtualCommand_BadCron(t *testing.T) {
	_, err := execute(t, "virtual", "--cron", "every tuesday")
	assert.Error(t, err)
}

func TestSerialCommand(t *testing.T) {
	out, err := execute(t, "serial", "--tasks", "15", "--producers", "3", "--max-offset", "30ms", "--seed", "3")
	require.NoError(t, err)

	m := summaryRE.FindStringSubmatch(out)
	require.NotNil(t, m, out)
	assert.Equal(t, "15", m[1])
	assert.Equal(t, "0", m[2])
	assert.Len(t, resultLines(out), 15)
}

func TestTrampolineCommand(t *testing.T) {
	out, err := execute(t, "trampoline", "--tasks", "8")
	require.NoError(t, err)

	lines := resultLines(out)
	require.Len(t, lines, 8)
	for i, line := range lines {
		assert.Contains(t, line, "fib"+strconv.Itoa(i+1)+"-")
		assert.Regexp(t, `n=`+strconv.Itoa(i+1)+`\s`, line)
	}
}

func TestInvalidFlags(t *testing.T) {
	_, err := execute(t, "virtual", "--tasks", "0")
	assert.ErrorContains(t, err, "--tasks")

	_, err = execute(t, "serial", "--producers", "0", "--max-offset=-1s")
	assert.ErrorContains(t, err, "--producers")
	assert.ErrorContains(t, err, "--max-offset")

	_, err = execute(t, "trampoline", "--log-format", "xml")
	assert.ErrorContains(t, err, "log format")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Tasks = fib.MaxN + 1
	assert.Error(t, cfg.Validate())
}

func TestSummarize(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var results []fib.Result
	for i := 1; i <= 10; i++ {
		results = append(results, fib.Result{
			TaskID:    strconv.Itoa(i),
			StartTime: base,
			EndTime:   base.Add(time.Duration(i) * time.Millisecond),
		})
	}
	results = append(results, fib.Result{TaskID: "bad", Error: fib.ErrOutOfRange})

	s := summarize(results, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	assert.Equal(t, 10, s.Count)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 10*time.Millisecond, s.Max)
	assert.Equal(t, 6*time.Millisecond, s.Median)
	assert.Equal(t, 5500*time.Microsecond, s.Mean)
	assert.Equal(t, 10*time.Millisecond, s.P95)
}

func TestNewTasks_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 99

	a, b := newTasks(cfg), newTasks(cfg)
	require.Len(t, a, cfg.Tasks)
	for i := range a {
		assert.Equal(t, a[i].ID(), b[i].ID())
		assert.Equal(t, i+1, a[i].N())
		assert.LessOrEqual(t, a[i].Delay(), cfg.MaxOffset)
	}
}
