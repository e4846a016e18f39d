// Package config loads the optional YAML settings file for the lox command.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// EnvVar names the environment variable that points at a config file.
	EnvVar = "LOX_CONFIG"
	// FileName is looked up in the home directory when nothing else is given.
	FileName = ".loxrc.yml"
)

// Config holds every setting the command understands.
type Config struct {
	REPL        REPLConfig        `yaml:"repl"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
	Debug       DebugConfig       `yaml:"debug"`

	// Path is the file the settings came from; empty for built-in defaults.
	Path string `yaml:"-"`
}

// REPLConfig configures the interactive prompt.
type REPLConfig struct {
	Prompt             string `yaml:"prompt"`
	ContinuationPrompt string `yaml:"continuation_prompt"`
	HistoryFile        string `yaml:"history_file"`
	Color              bool   `yaml:"color"`
}

// InterpreterConfig configures evaluation limits.
type InterpreterConfig struct {
	MaxCallDepth int `yaml:"max_call_depth"`
}

// DebugConfig enables debugging output.
type DebugConfig struct {
	PrintAST bool `yaml:"print_ast"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		REPL: REPLConfig{
			Prompt:             "> ",
			ContinuationPrompt: "... ",
			HistoryFile:        "~/.lox_history",
			Color:              true,
		},
		Interpreter: InterpreterConfig{
			MaxCallDepth: 1024,
		},
	}
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config: %s is invalid:", e.Path)
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Find picks the config file to use: flagPath if set, then envPath, then
// FileName in homeDir if that file exists. It returns "" when none applies.
func Find(flagPath, envPath, homeDir string) string {
	if flagPath != "" {
		return flagPath
	}
	if envPath != "" {
		return envPath
	}
	if homeDir == "" {
		return ""
	}
	candidate := filepath.Join(homeDir, FileName)
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return ""
}

// Resolve finds and loads the config for the current process, falling back
// to Default when no file applies.
func Resolve(flagPath string) (*Config, error) {
	home, _ := os.UserHomeDir()
	path := Find(flagPath, os.Getenv(EnvVar), home)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Load reads a YAML config file. Keys that are absent keep their defaults;
// unknown keys are an error.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	cfg, err := Decode(file)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.Path = path
			return nil, verr
		}
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Decode reads YAML settings from r on top of the defaults and validates them.
// An empty document yields the defaults.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	errs := ValidationError{Path: "<input>"}
	if c.Interpreter.MaxCallDepth <= 0 {
		errs.Issues = append(errs.Issues,
			fmt.Sprintf("interpreter.max_call_depth must be positive, got %d", c.Interpreter.MaxCallDepth))
	}
	if strings.ContainsAny(c.REPL.Prompt, "\r\n") {
		errs.Issues = append(errs.Issues, "repl.prompt must be a single line")
	}
	if strings.ContainsAny(c.REPL.ContinuationPrompt, "\r\n") {
		errs.Issues = append(errs.Issues, "repl.continuation_prompt must be a single line")
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

// HistoryPath returns the REPL history file with a leading "~/" expanded,
// or "" when history is disabled.
func (c *Config) HistoryPath() string {
	p := c.REPL.HistoryFile
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
