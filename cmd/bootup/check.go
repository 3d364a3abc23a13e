package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/bootup/internal/check"
	"github.com/bgricker/bootup/internal/config"
	"github.com/bgricker/bootup/internal/report"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that every step's executable resolves",
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	steps, err := filteredSteps(cfg)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching steps")
		return nil
	}

	results := check.Steps(steps)

	missing := 0
	switch cfg.Format {
	case config.FormatJSON:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
		for _, res := range results {
			if !res.OK() {
				missing++
			}
		}
	default:
		for _, res := range results {
			if res.OK() {
				fmt.Fprintf(cmd.OutOrStdout(), "ok    %s -> %s\n", res.StepName, res.Path)
				continue
			}
			missing++
			fmt.Fprintf(cmd.OutOrStdout(), "miss  %s: %s\n", res.StepName, res.Error)
		}
	}

	if missing > 0 {
		return &exitError{
			code: report.ExitSpawnError,
			msg:  fmt.Sprintf("%d step executable(s) could not be resolved", missing),
		}
	}
	return nil
}
