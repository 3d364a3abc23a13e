// Package orchestrator runs an ordered list of startup steps, one at a
// time, and records every attempt into a run report. It owns the report
// for the duration of a run; runs never execute concurrently with
// themselves.
package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/bgricker/bootup/internal/report"
	"github.com/bgricker/bootup/internal/step"
)

// StepExecutor runs one step and returns a result per attempt.
type StepExecutor interface {
	Run(ctx context.Context, s step.Step) []report.StepResult
}

// Options configure an orchestrator.
type Options struct {
	Runner StepExecutor
	Logger zerolog.Logger
	Now    func() time.Time
}

// Orchestrator executes steps strictly in declaration order.
type Orchestrator struct {
	runner StepExecutor
	logger zerolog.Logger
	now    func() time.Time
}

// New creates an orchestrator around the given step executor.
func New(opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{runner: opts.Runner, logger: opts.Logger, now: opts.Now}
}

// Run executes the steps in order and returns the completed report.
//
// The only errors returned are configuration faults detected before any
// step runs; step failures are policy, captured in the report. A required
// step that exhausts its attempts stops the run. An optional one is
// logged and skipped past. A spawn error stops the run outright: with no
// process to observe, continuing would hide a broken configuration.
// Cancellation stops the run after the in-flight attempt is recorded.
func (o *Orchestrator) Run(ctx context.Context, steps []step.Step) (report.RunReport, error) {
	if err := step.Validate(steps); err != nil {
		return report.RunReport{}, err
	}

	rep := report.New(o.now())
	o.logger.Debug().Str("run_id", rep.RunID).Int("steps", len(steps)).Msg("run starting")

	for _, s := range steps {
		if ctx.Err() != nil {
			rep.Outcome = report.OutcomeAborted
			o.logger.Warn().Str("run_id", rep.RunID).Msg("run aborted before step launch")
			return rep, nil
		}

		attempts := o.runner.Run(ctx, s)
		for _, res := range attempts {
			rep.Append(res)
		}

		final := attempts[len(attempts)-1]
		switch {
		case final.Status.OK():
			continue
		case final.Status == report.StatusAborted:
			rep.Outcome = report.OutcomeAborted
			o.logger.Warn().Str("run_id", rep.RunID).Str("step", s.Name).Msg("run aborted")
			return rep, nil
		case final.Status == report.StatusSpawnError:
			rep.Outcome = report.OutcomeFailed
			rep.FailedStep = s.Name
			o.logger.Error().Str("run_id", rep.RunID).Str("step", s.Name).Msg("step could not be started")
			return rep, nil
		case s.Required:
			rep.Outcome = report.OutcomeFailed
			rep.FailedStep = s.Name
			o.logger.Error().
				Str("run_id", rep.RunID).
				Str("step", s.Name).
				Int("attempts", len(attempts)).
				Msg("required step failed")
			return rep, nil
		default:
			o.logger.Warn().
				Str("run_id", rep.RunID).
				Str("step", s.Name).
				Str("status", string(final.Status)).
				Msg("optional step failed, continuing")
		}
	}

	o.logger.Debug().Str("run_id", rep.RunID).Msg("run complete")
	return rep, nil
}
