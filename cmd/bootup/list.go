package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgricker/bootup/internal/config"
	"github.com/bgricker/bootup/internal/output"
	"github.com/bgricker/bootup/internal/report"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured startup steps",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
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

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		renderer := output.NewPretty(cmd.OutOrStdout())
		return renderer.RenderList(steps)
	case config.FormatJSON:
		renderer := output.NewJSON(cmd.OutOrStdout())
		doc := output.Document{
			Steps:   steps,
			Summary: report.Summary{Steps: len(steps)},
		}
		return renderer.Render(doc)
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}
