package runner

import (
	"context"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/bootup/internal/report"
	"github.com/bgricker/bootup/internal/step"
)

func newTestRunner(opts Options) *Runner {
	opts.Logger = zerolog.Nop()
	return New(opts)
}

func shellStep(name, script string) step.Step {
	return step.Step{
		Name:     name,
		Command:  step.Command{Shell: script},
		Required: true,
	}
}

func requirePOSIX(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses POSIX shell commands")
	}
}

func TestRunSuccess(t *testing.T) {
	requirePOSIX(t)
	r := newTestRunner(Options{})

	results := r.Run(context.Background(), shellStep("hello", "echo hi"))
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, report.StatusOK, res.Status)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, 1, res.Attempt)
	assert.Equal(t, "hi", strings.TrimSpace(res.Stdout))
}

func TestRunCommandFailureExitCode(t *testing.T) {
	requirePOSIX(t)
	r := newTestRunner(Options{})

	results := r.Run(context.Background(), shellStep("fail", "exit 3"))
	require.Len(t, results, 1)
	assert.Equal(t, report.StatusFailed, results[0].Status)
	assert.Equal(t, 3, results[0].ExitCode)
}

func TestRunRetriesExhaustBudget(t *testing.T) {
	requirePOSIX(t)
	r := newTestRunner(Options{})

	s := shellStep("flaky", "exit 1")
	s.Retries = 2

	results := r.Run(context.Background(), s)
	require.Len(t, results, 3, "retries = 2 means 3 attempts")
	for i, res := range results {
		assert.Equal(t, i+1, res.Attempt)
		assert.Equal(t, report.StatusFailed, res.Status)
	}
}

func TestRunRetryStopsOnSuccess(t *testing.T) {
	requirePOSIX(t)
	dir := t.TempDir()
	r := newTestRunner(Options{})

	// Fails on the first attempt, succeeds once the marker file exists.
	s := shellStep("recovers", "test -f marker || { touch marker; exit 1; }")
	s.Dir = dir
	s.Retries = 3

	results := r.Run(context.Background(), s)
	require.Len(t, results, 2)
	assert.Equal(t, report.StatusFailed, results[0].Status)
	assert.Equal(t, report.StatusOK, results[1].Status)
}

func TestRunTimeoutSentinel(t *testing.T) {
	requirePOSIX(t)
	r := newTestRunner(Options{})

	s := shellStep("slow", "sleep 5")
	s.Timeout = 100 * time.Millisecond

	start := time.Now()
	results := r.Run(context.Background(), s)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, report.StatusTimedOut, res.Status)
	assert.Equal(t, report.ExitCodeNone, res.ExitCode)
	assert.Less(t, time.Since(start), 3*time.Second, "timeout must kill the process early")
}

func TestRunTimeoutRetries(t *testing.T) {
	requirePOSIX(t)
	r := newTestRunner(Options{})

	s := shellStep("slow", "sleep 5")
	s.Timeout = 50 * time.Millisecond
	s.Retries = 1

	results := r.Run(context.Background(), s)
	require.Len(t, results, 2, "a timeout consumes the retry budget like a failure")
	assert.Equal(t, report.StatusTimedOut, results[0].Status)
	assert.Equal(t, report.StatusTimedOut, results[1].Status)
}

func TestRunSpawnErrorNotRetried(t *testing.T) {
	r := newTestRunner(Options{})

	s := step.Step{
		Name:    "ghost",
		Command: step.Command{Argv: []string{"definitely-not-a-real-binary-4f2a"}},
		Retries: 5,
	}

	results := r.Run(context.Background(), s)
	require.Len(t, results, 1, "spawn errors are terminal, never retried")

	res := results[0]
	assert.Equal(t, report.StatusSpawnError, res.Status)
	assert.Equal(t, report.ExitCodeNone, res.ExitCode)
	assert.Contains(t, res.Stderr, "cannot start")
}

func TestRunAborted(t *testing.T) {
	requirePOSIX(t)
	r := newTestRunner(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	s := shellStep("server", "sleep 10")
	s.Retries = 2

	start := time.Now()
	results := r.Run(ctx, s)
	require.Len(t, results, 1, "an aborted attempt is not retried")
	assert.Equal(t, report.StatusAborted, results[0].Status)
	assert.Equal(t, report.ExitCodeNone, results[0].ExitCode)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunDryRun(t *testing.T) {
	r := newTestRunner(Options{DryRun: true})

	results := r.Run(context.Background(), shellStep("anything", "rm -rf /tmp/nope"))
	require.Len(t, results, 1)
	assert.Equal(t, report.StatusSkipped, results[0].Status)
	assert.True(t, results[0].DryRun)
}

func TestRunOutputTruncation(t *testing.T) {
	requirePOSIX(t)
	r := newTestRunner(Options{MaxOutputBytes: 64, TailLines: 1000})

	// Fails so the capture survives tail trimming unchanged in length terms.
	results := r.Run(context.Background(), shellStep("noisy", "yes x | head -c 10000; exit 1"))
	require.Len(t, results, 1)
	assert.True(t, results[0].StdoutTruncated)
	assert.LessOrEqual(t, len(results[0].Stdout), 64)
}

func TestRunStepEnvOverlay(t *testing.T) {
	requirePOSIX(t)
	r := newTestRunner(Options{Env: []string{"PATH=" + pathEnv(t), "BASE_VAR=base"}})

	s := shellStep("env", `echo "$BASE_VAR-$STEP_VAR"`)
	s.Env = map[string]string{"STEP_VAR": "step"}

	results := r.Run(context.Background(), s)
	require.Len(t, results, 1)
	require.Equal(t, report.StatusOK, results[0].Status)
	assert.Equal(t, "base-step", strings.TrimSpace(results[0].Stdout))
}

func TestRunWorkingDirectory(t *testing.T) {
	requirePOSIX(t)
	dir := t.TempDir()
	r := newTestRunner(Options{})

	s := shellStep("pwd", "pwd")
	s.Dir = dir

	results := r.Run(context.Background(), s)
	require.Len(t, results, 1)
	require.Equal(t, report.StatusOK, results[0].Status)
	assert.Contains(t, strings.TrimSpace(results[0].Stdout), dir)
}

func TestTailLines(t *testing.T) {
	in := "a\nb\nc\nd\n"
	assert.Equal(t, "c\nd", tailLines(in, 2))
	assert.Equal(t, "a\nb\nc\nd", tailLines(in, 10))
	assert.Equal(t, "", tailLines("", 5))
}

func pathEnv(t *testing.T) string {
	t.Helper()
	if path := os.Getenv("PATH"); path != "" {
		return path
	}
	return "/usr/bin:/bin"
}
