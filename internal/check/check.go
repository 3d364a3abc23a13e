// Package check resolves step executables ahead of a run, so an operator
// can see a missing migration tool or broker binary before anything is
// launched.
package check

import (
	"errors"
	"os/exec"

	"github.com/bgricker/bootup/internal/step"
)

// Result reports whether one step's executable resolves on PATH.
type Result struct {
	StepName   string `json:"step_name"`
	Executable string `json:"executable"`
	Path       string `json:"path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// OK reports whether the executable resolved.
func (r Result) OK() bool {
	return r.Error == ""
}

// Steps resolves the executable of every step in order. Shell commands
// resolve the shell itself; what the line invokes is only knowable at
// run time.
func Steps(steps []step.Step) []Result {
	results := make([]Result, 0, len(steps))
	for _, s := range steps {
		argv := s.Command.Resolve()
		res := Result{StepName: s.Name, Executable: argv[0]}
		path, err := exec.LookPath(argv[0])
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Path = path
		}
		results = append(results, res)
	}
	return results
}

// Missing reports whether the error indicates an executable that could
// not be found, as opposed to one that exists but cannot be run.
func Missing(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
