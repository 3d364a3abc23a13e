package step

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Step is one named unit of orchestrated work wrapping a single external
// command. Steps are built at configuration time and immutable afterwards.
type Step struct {
	Name     string            `json:"name"`
	Command  Command           `json:"command"`
	Required bool              `json:"required"`
	Timeout  time.Duration     `json:"timeout,omitempty"`
	Retries  int               `json:"retries,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Dir      string            `json:"dir,omitempty"`
}

// UnmarshalYAML decodes a step definition. Steps are required unless the
// file says otherwise, and timeouts are written as Go duration strings.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	type raw struct {
		Name     string            `yaml:"name"`
		Command  Command           `yaml:"command"`
		Required *bool             `yaml:"required"`
		Timeout  string            `yaml:"timeout"`
		Retries  int               `yaml:"retries"`
		Env      map[string]string `yaml:"env"`
		Dir      string            `yaml:"dir"`
	}
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}

	s.Name = strings.TrimSpace(r.Name)
	s.Command = r.Command
	s.Required = true
	if r.Required != nil {
		s.Required = *r.Required
	}
	s.Retries = r.Retries
	s.Env = r.Env
	s.Dir = r.Dir

	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return fmt.Errorf("step %q: parse timeout %q: %w", s.Name, r.Timeout, err)
		}
		s.Timeout = d
	}
	return nil
}

// Command holds the external command a step runs: either an explicit argv
// list, or a single line handed to the platform shell.
type Command struct {
	Argv  []string
	Shell string
}

// UnmarshalYAML accepts a sequence (argv) or a scalar (shell line).
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&c.Argv)
	case yaml.ScalarNode:
		return node.Decode(&c.Shell)
	default:
		return fmt.Errorf("command must be a string or a list of arguments (line %d)", node.Line)
	}
}

// MarshalJSON renders the command as its display string.
func (c Command) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

// Empty reports whether no command was configured.
func (c Command) Empty() bool {
	return len(c.Argv) == 0 && strings.TrimSpace(c.Shell) == ""
}

// Resolve returns the argv actually handed to the OS. Shell lines run
// through sh -c (cmd /C on Windows), mirroring how a startup script would
// have executed them.
func (c Command) Resolve() []string {
	if len(c.Argv) > 0 {
		return c.Argv
	}
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C", c.Shell}
	}
	return []string{"sh", "-c", c.Shell}
}

// String renders the command for reports and listings.
func (c Command) String() string {
	if len(c.Argv) > 0 {
		return strings.Join(c.Argv, " ")
	}
	return c.Shell
}

// Configuration faults detected before any step runs.
var (
	ErrNoSteps       = errors.New("no steps configured")
	ErrDuplicateStep = errors.New("duplicate step name")
)

// Validate rejects step lists the orchestrator must not attempt: empty
// lists, unnamed or duplicate steps, missing commands, negative budgets.
func Validate(steps []Step) error {
	if len(steps) == 0 {
		return ErrNoSteps
	}
	seen := make(map[string]struct{}, len(steps))
	for i, s := range steps {
		if s.Name == "" {
			return fmt.Errorf("step %d has no name", i+1)
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateStep, s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Command.Empty() {
			return fmt.Errorf("step %q has no command", s.Name)
		}
		if s.Retries < 0 {
			return fmt.Errorf("step %q: retries must be non-negative", s.Name)
		}
		if s.Timeout < 0 {
			return fmt.Errorf("step %q: timeout must be non-negative", s.Name)
		}
	}
	return nil
}
