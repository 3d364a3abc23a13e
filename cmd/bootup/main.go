package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bgricker/bootup/internal/report"
)

// exitError carries a process exit code out of a command without
// re-printing a report that was already rendered.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.msg != "" {
				fmt.Fprintf(os.Stderr, "bootup: %s\n", exitErr.msg)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintf(os.Stderr, "bootup: %v\n", err)
		os.Exit(report.ExitConfig)
	}
}
