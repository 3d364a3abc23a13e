package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bgricker/bootup/internal/report"
	"github.com/bgricker/bootup/internal/step"
)

// Options configure how the runner executes step attempts.
type Options struct {
	Stdout         io.Writer
	Stderr         io.Writer
	Verbose        bool
	DryRun         bool
	MaxOutputBytes int
	TailLines      int
	Env            []string
	Now            func() time.Time
	Logger         zerolog.Logger
}

// Runner executes a single step at a time, one child process per attempt.
type Runner struct {
	opts Options
}

// waitDelay bounds how long Wait blocks on lingering pipe readers after
// the child is killed.
const waitDelay = 5 * time.Second

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = 64 * 1024
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{opts: opts}
}

// Run executes one step, re-attempting command failures and timeouts up
// to the step's retry budget. Each attempt yields its own StepResult; a
// failing command is a normal result, never an error. Spawn errors and
// cancellation are terminal for the step regardless of remaining budget.
func (r *Runner) Run(ctx context.Context, s step.Step) []report.StepResult {
	if r.opts.DryRun {
		return []report.StepResult{{
			StepName: s.Name,
			Attempt:  1,
			Command:  s.Command.String(),
			Status:   report.StatusSkipped,
			ExitCode: report.ExitCodeNone,
			DryRun:   true,
		}}
	}

	attempts := s.Retries + 1
	results := make([]report.StepResult, 0, attempts)
	for attempt := 1; attempt <= attempts; attempt++ {
		res := r.runAttempt(ctx, s, attempt)
		results = append(results, res)

		if res.Status.OK() {
			break
		}
		if res.Status == report.StatusSpawnError || res.Status == report.StatusAborted {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			r.opts.Logger.Debug().
				Str("step", s.Name).
				Int("attempt", attempt).
				Str("status", string(res.Status)).
				Msg("retrying step")
		}
	}
	return results
}

func (r *Runner) runAttempt(ctx context.Context, s step.Step, attempt int) report.StepResult {
	result := report.StepResult{
		StepName: s.Name,
		Attempt:  attempt,
		Command:  s.Command.String(),
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if s.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	argv := s.Command.Resolve()
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = s.Dir
	cmd.Env = mergeEnv(r.opts.Env, s.Env)
	cmd.WaitDelay = waitDelay
	// Descendants go too: a timed-out step must not leave a half-started
	// broker or server behind.
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return terminate(cmd)
	}

	stdout := newCapture(r.opts.MaxOutputBytes)
	stderr := newCapture(r.opts.MaxOutputBytes)
	if r.opts.Verbose {
		cmd.Stdout = io.MultiWriter(r.opts.Stdout, stdout)
		cmd.Stderr = io.MultiWriter(r.opts.Stderr, stderr)
	} else {
		cmd.Stdout = stdout
		cmd.Stderr = stderr
	}

	r.opts.Logger.Debug().
		Str("step", s.Name).
		Int("attempt", attempt).
		Str("command", result.Command).
		Msg("starting step")

	start := r.opts.Now()
	if err := cmd.Start(); err != nil {
		result.ExitCode = report.ExitCodeNone
		if ctx.Err() != nil {
			result.Status = report.StatusAborted
			return result
		}
		result.Status = report.StatusSpawnError
		result.Stderr = spawnErrorMessage(argv[0], err)
		return result
	}

	waitErr := cmd.Wait()
	result.Duration = r.opts.Now().Sub(start)
	result.DurationMS = result.Duration.Milliseconds()
	result.Stdout, result.StdoutTruncated = stdout.Contents()
	result.Stderr, result.StderrTruncated = stderr.Contents()

	switch {
	case ctx.Err() != nil:
		result.Status = report.StatusAborted
		result.ExitCode = report.ExitCodeNone
	case runCtx.Err() == context.DeadlineExceeded:
		result.Status = report.StatusTimedOut
		result.ExitCode = report.ExitCodeNone
	case waitErr != nil:
		result.Status = report.StatusFailed
		result.ExitCode = exitCode(waitErr)
	default:
		result.Status = report.StatusOK
	}

	if !result.Status.OK() {
		result.Stdout = tailLines(result.Stdout, r.opts.TailLines)
		result.Stderr = tailLines(result.Stderr, r.opts.TailLines)
	}

	r.opts.Logger.Debug().
		Str("step", s.Name).
		Int("attempt", attempt).
		Str("status", string(result.Status)).
		Dur("duration", result.Duration).
		Msg("step finished")

	return result
}

func spawnErrorMessage(name string, err error) string {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return fmt.Sprintf("cannot start %q: %v", name, execErr.Err)
	}
	return fmt.Sprintf("cannot start %q: %v", name, err)
}

func mergeEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}
	envMap := make(map[string]string, len(base)+len(overlay))
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for k, v := range overlay {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return out
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok {
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
