package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bgricker/bootup/internal/report"
	"github.com/bgricker/bootup/internal/step"
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	nameStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	outcomeStyle = lipgloss.NewStyle().Bold(true)
)

// PrettyRenderer renders run reports and step listings in a
// human-friendly format.
type PrettyRenderer struct {
	out io.Writer
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out}
}

// RenderList renders the configured steps in declaration order.
func (p *PrettyRenderer) RenderList(steps []step.Step) error {
	for i, s := range steps {
		policy := "required"
		if !s.Required {
			policy = "optional"
		}
		extras := []string{policy}
		if s.Timeout > 0 {
			extras = append(extras, fmt.Sprintf("timeout %s", s.Timeout))
		}
		if s.Retries > 0 {
			extras = append(extras, fmt.Sprintf("%d retries", s.Retries))
		}
		if _, err := fmt.Fprintf(p.out, "%2d. %s %s\n", i+1, nameStyle.Render(s.Name), mutedStyle.Render("("+strings.Join(extras, ", ")+")")); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(p.out, "    %s\n", mutedStyle.Render("$ "+s.Command.String())); err != nil {
			return err
		}
	}
	return nil
}

// RenderReport writes one line per step attempt in order, then the
// overall outcome. Pure function of the report: rendering the same
// report twice produces identical text.
func (p *PrettyRenderer) RenderReport(rep report.RunReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s\n", mutedStyle.Render(rep.RunID))
	for _, res := range rep.Results {
		label := res.StepName
		if res.Attempt > 1 {
			label = fmt.Sprintf("%s %s", res.StepName, mutedStyle.Render(fmt.Sprintf("(attempt %d)", res.Attempt)))
		}
		fmt.Fprintf(&b, "  %s %s (%s)\n", statusGlyph(res.Status), label, formatDuration(res.Duration))

		if !res.Status.OK() && res.Stderr != "" {
			fmt.Fprintf(&b, "      stderr: %s\n", indent(res.Stderr, "      "))
		}
		if res.StdoutTruncated || res.StderrTruncated {
			fmt.Fprintf(&b, "      %s\n", mutedStyle.Render("(output truncated)"))
		}
		if res.DryRun {
			fmt.Fprintf(&b, "      %s\n", mutedStyle.Render("command: "+res.Command))
		}
	}

	fmt.Fprintf(&b, "%s\n", outcomeLine(rep))

	sum := rep.Summarize()
	fmt.Fprintf(&b, "SUMMARY: %d passed, %d failed, %d skipped (%s)\n",
		sum.Passed, sum.Failed, sum.Skipped, formatDuration(rep.Duration))

	_, err := io.WriteString(p.out, b.String())
	return err
}

func outcomeLine(rep report.RunReport) string {
	switch rep.Outcome {
	case report.OutcomeSuccess:
		return outcomeStyle.Render(okStyle.Render("outcome: success"))
	case report.OutcomeFailed:
		return outcomeStyle.Render(failStyle.Render(fmt.Sprintf("outcome: failed at step %q", rep.FailedStep)))
	case report.OutcomeAborted:
		return outcomeStyle.Render(warnStyle.Render("outcome: aborted"))
	default:
		return fmt.Sprintf("outcome: %s", rep.Outcome)
	}
}

func statusGlyph(status report.Status) string {
	switch status {
	case report.StatusOK:
		return okStyle.Render("✓")
	case report.StatusFailed:
		return failStyle.Render("✗")
	case report.StatusTimedOut:
		return failStyle.Render("⏱")
	case report.StatusSpawnError:
		return failStyle.Render("!")
	case report.StatusAborted:
		return warnStyle.Render("⊘")
	case report.StatusSkipped:
		return skipStyle.Render("-")
	default:
		return "?"
	}
}

func indent(s, pad string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
