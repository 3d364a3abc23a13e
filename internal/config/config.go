package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bgricker/bootup/internal/step"
)

// Config captures the step list and options sourced from the config file
// or flags.
type Config struct {
	Steps   []step.Step `yaml:"steps"`
	EnvFile string      `yaml:"env_file"`

	OnlySteps []string `yaml:"only_step"`
	SkipSteps []string `yaml:"skip_step"`

	DryRun  bool   `yaml:"dry_run"`
	Verbose bool   `yaml:"verbose"`
	Format  string `yaml:"format"`

	TailLines   int `yaml:"tail_lines"`
	MaxOutputKB int `yaml:"max_output_kb"`
}

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"
)

// ErrNotFound indicates that no config file could be located. Unlike a
// tool with built-in work to do, the step list is the whole program, so
// a missing file is a configuration fault.
var ErrNotFound = errors.New("no config file found")

// Default returns the baseline configuration used when no flags or
// config file specify values.
func Default() Config {
	return Config{
		Format:      FormatPretty,
		TailLines:   20,
		MaxOutputKB: 64,
	}
}

// candidates are probed in order when no explicit path is given.
var candidates = []string{".bootup.yml", ".bootup.yaml", "bootup.yml", "bootup.yaml"}

// Load reads the step config. With an explicit path the file must exist;
// otherwise the default candidates under root are probed in order.
func Load(root, explicit string) (Config, string, error) {
	cfg := Default()

	path, err := locate(root, explicit)
	if err != nil {
		return cfg, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, path, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, path, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	return cfg, path, nil
}

func locate(root, explicit string) (string, error) {
	if explicit != "" {
		path := explicit
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("config %q not found", explicit)
			}
			return "", fmt.Errorf("stat config %q: %w", explicit, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("config %q is a directory", explicit)
		}
		return path, nil
	}

	for _, name := range candidates {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrNotFound
}

func merge(base, override Config) Config {
	out := base

	if len(override.Steps) > 0 {
		out.Steps = append([]step.Step{}, override.Steps...)
	}
	if override.EnvFile != "" {
		out.EnvFile = override.EnvFile
	}
	if len(override.OnlySteps) > 0 {
		out.OnlySteps = append([]string{}, override.OnlySteps...)
	}
	if len(override.SkipSteps) > 0 {
		out.SkipSteps = append([]string{}, override.SkipSteps...)
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.DryRun {
		out.DryRun = true
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.TailLines > 0 {
		out.TailLines = override.TailLines
	}
	if override.MaxOutputKB > 0 {
		out.MaxOutputKB = override.MaxOutputKB
	}

	return out
}

// Environment returns the process environment for child steps. A
// configured env_file supplies defaults; variables already set on the
// process win, matching godotenv's own load semantics.
func (c Config) Environment(root string) ([]string, error) {
	base := os.Environ()
	if c.EnvFile == "" {
		return base, nil
	}

	path := c.EnvFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %q: %w", c.EnvFile, err)
	}

	present := make(map[string]struct{}, len(base))
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			present[kv[:idx]] = struct{}{}
		}
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := present[k]; ok {
			continue
		}
		base = append(base, fmt.Sprintf("%s=%s", k, vars[k]))
	}
	return base, nil
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are
// present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if len(flags.OnlySteps.Values) > 0 {
		cfg.OnlySteps = append([]string{}, flags.OnlySteps.Values...)
	}
	if len(flags.SkipSteps.Values) > 0 {
		cfg.SkipSteps = append([]string{}, flags.SkipSteps.Values...)
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.DryRun.Set {
		cfg.DryRun = flags.DryRun.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.TailLines.Set {
		cfg.TailLines = flags.TailLines.Value
	}
	if flags.EnvFile.Set {
		cfg.EnvFile = flags.EnvFile.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag
// was set explicitly.
type FlagValues struct {
	OnlySteps SliceFlag
	SkipSteps SliceFlag
	Format    StringFlag
	DryRun    BoolFlag
	Verbose   BoolFlag
	TailLines IntFlag
	EnvFile   StringFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}

// IntFlag represents an int flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}
