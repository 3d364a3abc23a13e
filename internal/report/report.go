package report

import (
	"time"

	"github.com/google/uuid"
)

// Status classifies the outcome of a single step attempt.
type Status string

const (
	// StatusOK means the process exited zero.
	StatusOK Status = "ok"
	// StatusFailed means the process ran and exited non-zero.
	StatusFailed Status = "failed"
	// StatusTimedOut means the process was killed after exceeding its timeout.
	StatusTimedOut Status = "timed-out"
	// StatusSpawnError means the process could not be started at all.
	StatusSpawnError Status = "spawn-error"
	// StatusAborted means the run was cancelled while the process was in flight.
	StatusAborted Status = "aborted"
	// StatusSkipped means the step was not executed (dry run).
	StatusSkipped Status = "skipped"
)

// ExitCodeNone marks attempts that produced no meaningful exit code:
// timeout kills, spawn errors and aborts. Distinct from every real exit
// code, including 0.
const ExitCodeNone = -1

// OK reports whether the attempt counts as successful.
func (s Status) OK() bool {
	return s == StatusOK || s == StatusSkipped
}

// StepResult captures the outcome of one step attempt. Created once per
// attempt and never mutated afterwards.
type StepResult struct {
	StepName        string        `json:"step_name"`
	Attempt         int           `json:"attempt"`
	Command         string        `json:"command"`
	Status          Status        `json:"status"`
	ExitCode        int           `json:"exit_code"`
	Duration        time.Duration `json:"-"`
	DurationMS      int64         `json:"duration_ms"`
	Stdout          string        `json:"stdout,omitempty"`
	Stderr          string        `json:"stderr,omitempty"`
	StdoutTruncated bool          `json:"stdout_truncated,omitempty"`
	StderrTruncated bool          `json:"stderr_truncated,omitempty"`
	DryRun          bool          `json:"dry_run,omitempty"`
}

// Outcome is the terminal state of a whole run.
type Outcome string

const (
	// OutcomeSuccess means no required step failed.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailed means a required step exhausted its attempts.
	OutcomeFailed Outcome = "failed"
	// OutcomeAborted means the run was cancelled before completion.
	OutcomeAborted Outcome = "aborted"
)

// RunReport is the ordered record of every attempt in one orchestrator
// invocation. Results appear in step declaration order; retries of the
// same step are consecutive.
type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Results    []StepResult  `json:"results"`
	Outcome    Outcome       `json:"outcome"`
	FailedStep string        `json:"failed_step,omitempty"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// New returns an empty report with a fresh run ID.
func New(now time.Time) RunReport {
	return RunReport{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Outcome:   OutcomeSuccess,
	}
}

// Append records an attempt and folds its duration into the total.
func (r *RunReport) Append(res StepResult) {
	r.Results = append(r.Results, res)
	r.Duration += res.Duration
	r.DurationMS = r.Duration.Milliseconds()
}

// Summary aggregates attempt counts for rendering.
type Summary struct {
	Steps    int `json:"steps"`
	Attempts int `json:"attempts"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// Summarize counts distinct steps and per-attempt outcomes.
func (r *RunReport) Summarize() Summary {
	sum := Summary{Attempts: len(r.Results)}
	seen := make(map[string]struct{}, len(r.Results))
	for _, res := range r.Results {
		if _, ok := seen[res.StepName]; !ok {
			seen[res.StepName] = struct{}{}
			sum.Steps++
		}
		switch res.Status {
		case StatusOK:
			sum.Passed++
		case StatusSkipped:
			sum.Skipped++
		default:
			sum.Failed++
		}
	}
	return sum
}

// Process exit codes for the CLI, one per failure kind.
const (
	ExitSuccess    = 0
	ExitStepFailed = 1
	ExitSpawnError = 2
	ExitConfig     = 3
	ExitAborted    = 130
)

// ExitCode maps the report outcome to the process exit code. A run that
// stopped because a step's executable could not be started is reported
// separately from an ordinary command failure.
func (r *RunReport) ExitCode() int {
	switch r.Outcome {
	case OutcomeAborted:
		return ExitAborted
	case OutcomeFailed:
		if len(r.Results) > 0 && r.Results[len(r.Results)-1].Status == StatusSpawnError {
			return ExitSpawnError
		}
		return ExitStepFailed
	default:
		return ExitSuccess
	}
}
