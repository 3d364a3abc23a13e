package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bgricker/bootup/internal/config"
	"github.com/bgricker/bootup/internal/step"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bootup",
		Short:         "Bootup runs an ordered list of startup steps",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("config", "", "path to the step config file")
	persistent.StringArray("only", nil, "include only matching steps")
	persistent.StringArray("skip", nil, "exclude matching steps")
	persistent.Bool("dry-run", false, "print steps without executing them")
	persistent.BoolP("verbose", "v", false, "stream command output and log step lifecycle")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.Int("tail", 0, "lines of output kept per failed attempt")
	persistent.String("env-file", "", "dotenv file merged into the step environment")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, "", fmt.Errorf("parse --config: %w", err)
	}

	cfg, _, err := config.Load(root, explicit)
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)

	return cfg, root, nil
}

func filteredSteps(cfg config.Config) ([]step.Step, error) {
	only, err := step.Compile(cfg.OnlySteps)
	if err != nil {
		return nil, err
	}
	skip, err := step.Compile(cfg.SkipSteps)
	if err != nil {
		return nil, err
	}
	return step.Filter(cfg.Steps, only, skip), nil
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
