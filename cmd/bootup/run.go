package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bgricker/bootup/internal/config"
	"github.com/bgricker/bootup/internal/orchestrator"
	"github.com/bgricker/bootup/internal/output"
	"github.com/bgricker/bootup/internal/report"
	"github.com/bgricker/bootup/internal/runner"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute the configured startup steps in order",
		RunE:  runExecute,
	}
}

func runExecute(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	steps, err := filteredSteps(cfg)
	if err != nil {
		return err
	}
	if len(steps) == 0 && len(cfg.Steps) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching steps")
		return nil
	}

	env, err := cfg.Environment(root)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Verbose)
	execRunner := runner.New(runner.Options{
		Stdout:         cmd.OutOrStdout(),
		Stderr:         cmd.ErrOrStderr(),
		Verbose:        cfg.Verbose,
		DryRun:         cfg.DryRun,
		MaxOutputBytes: cfg.MaxOutputKB * 1024,
		TailLines:      cfg.TailLines,
		Env:            env,
		Logger:         logger,
	})
	orch := orchestrator.New(orchestrator.Options{
		Runner: execRunner,
		Logger: logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := orch.Run(ctx, steps)
	if err != nil {
		return err
	}

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		renderer := output.NewPretty(cmd.OutOrStdout())
		if err := renderer.RenderReport(rep); err != nil {
			return err
		}
	case config.FormatJSON:
		renderer := output.NewJSON(cmd.OutOrStdout())
		doc := output.Document{Run: &rep, Summary: rep.Summarize()}
		if err := renderer.Render(doc); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}

	if code := rep.ExitCode(); code != report.ExitSuccess {
		return &exitError{code: code}
	}
	return nil
}
