package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgricker/bootup/internal/report"
	"github.com/bgricker/bootup/internal/step"
)

func sampleReport() report.RunReport {
	rep := report.New(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC))
	rep.RunID = "run-fixture"
	rep.Append(report.StepResult{StepName: "activate-env", Attempt: 1, Status: report.StatusOK, ExitCode: 0, Duration: 120 * time.Millisecond})
	rep.Append(report.StepResult{StepName: "migrate", Attempt: 1, Status: report.StatusFailed, ExitCode: 1, Duration: time.Second, Stderr: "relation does not exist"})
	rep.Append(report.StepResult{StepName: "migrate", Attempt: 2, Status: report.StatusFailed, ExitCode: 1, Duration: time.Second, Stderr: "relation does not exist"})
	rep.Outcome = report.OutcomeFailed
	rep.FailedStep = "migrate"
	return rep
}

func TestRenderReportLines(t *testing.T) {
	var buf bytes.Buffer
	renderer := NewPretty(&buf)

	require.NoError(t, renderer.RenderReport(sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Run run-fixture")
	assert.Contains(t, out, "activate-env")
	assert.Contains(t, out, "(attempt 2)")
	assert.Contains(t, out, "stderr: relation does not exist")
	assert.Contains(t, out, `outcome: failed at step "migrate"`)
	assert.Contains(t, out, "SUMMARY: 1 passed, 2 failed, 0 skipped")
}

func TestRenderReportIdempotent(t *testing.T) {
	rep := sampleReport()

	var first, second bytes.Buffer
	require.NoError(t, NewPretty(&first).RenderReport(rep))
	require.NoError(t, NewPretty(&second).RenderReport(rep))

	assert.Equal(t, first.String(), second.String(), "rendering is a pure function of the report")
}

func TestRenderReportTimeoutAndAbort(t *testing.T) {
	rep := report.New(time.Now())
	rep.RunID = "run-fixture"
	rep.Append(report.StepResult{StepName: "start-broker", Attempt: 1, Status: report.StatusTimedOut, ExitCode: report.ExitCodeNone, Duration: 2 * time.Second})
	rep.Outcome = report.OutcomeAborted

	var buf bytes.Buffer
	require.NoError(t, NewPretty(&buf).RenderReport(rep))

	assert.Contains(t, buf.String(), "start-broker")
	assert.Contains(t, buf.String(), "outcome: aborted")
}

func TestRenderReportTruncationMarker(t *testing.T) {
	rep := report.New(time.Now())
	rep.Append(report.StepResult{StepName: "noisy", Attempt: 1, Status: report.StatusFailed, Stderr: "boom", StderrTruncated: true})
	rep.Outcome = report.OutcomeFailed
	rep.FailedStep = "noisy"

	var buf bytes.Buffer
	require.NoError(t, NewPretty(&buf).RenderReport(rep))
	assert.Contains(t, buf.String(), "(output truncated)")
}

func TestRenderList(t *testing.T) {
	steps := []step.Step{
		{Name: "start-broker", Command: step.Command{Argv: []string{"redis-server"}}, Required: true, Timeout: 30 * time.Second},
		{Name: "collect-static", Command: step.Command{Shell: "python manage.py collectstatic --noinput"}, Required: false, Retries: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, NewPretty(&buf).RenderList(steps))
	out := buf.String()

	assert.Contains(t, out, "1. start-broker")
	assert.Contains(t, out, "required, timeout 30s")
	assert.Contains(t, out, "2. collect-static")
	assert.Contains(t, out, "optional")
	assert.Contains(t, out, "1 retries")
	assert.Contains(t, out, "$ redis-server")
}
