package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bgricker/bootup/internal/config"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	if flags.Changed("only") {
		v, err := flags.GetStringArray("only")
		if err != nil {
			return values, fmt.Errorf("parse --only: %w", err)
		}
		values.OnlySteps = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("skip") {
		v, err := flags.GetStringArray("skip")
		if err != nil {
			return values, fmt.Errorf("parse --skip: %w", err)
		}
		values.SkipSteps = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("format") {
		v, err := flags.GetString("format")
		if err != nil {
			return values, fmt.Errorf("parse --format: %w", err)
		}
		values.Format = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("dry-run") {
		v, err := flags.GetBool("dry-run")
		if err != nil {
			return values, fmt.Errorf("parse --dry-run: %w", err)
		}
		values.DryRun = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("tail") {
		v, err := flags.GetInt("tail")
		if err != nil {
			return values, fmt.Errorf("parse --tail: %w", err)
		}
		values.TailLines = config.IntFlag{Value: v, Set: true}
	}

	if flags.Changed("env-file") {
		v, err := flags.GetString("env-file")
		if err != nil {
			return values, fmt.Errorf("parse --env-file: %w", err)
		}
		values.EnvFile = config.StringFlag{Value: v, Set: true}
	}

	return values, nil
}
