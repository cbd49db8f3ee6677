package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ProjectFile is the per-project config file name, read from the working
// directory.
const ProjectFile = ".codepulse.json"

const (
	defaultIdleTimeoutMs = int64(5 * time.Minute / time.Millisecond)
	defaultTickInterval  = "30s"
)

// Config holds all configurable codepulse settings. Pointer fields
// distinguish "unset" from an explicit zero or false.
type Config struct {
	IdleTimeoutMs        *int64   `json:"idle_timeout_ms,omitempty"`
	ShowStatusBar        *bool    `json:"show_status_bar,omitempty"`
	TickInterval         string   `json:"tick_interval,omitempty"`
	DataDir              string   `json:"data_dir,omitempty"`
	Workspaces           []string `json:"workspaces,omitempty"`
	IgnorePatterns       []string `json:"ignore_patterns,omitempty"`
	DesktopNotifications *bool    `json:"desktop_notifications,omitempty"`
	OTLPEndpoint         string   `json:"otlp_endpoint,omitempty"`
	OTLPInsecure         bool     `json:"otlp_insecure,omitempty"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	idle := defaultIdleTimeoutMs
	statusBar := true
	notifications := true
	return Config{
		IdleTimeoutMs:        &idle,
		ShowStatusBar:        &statusBar,
		TickInterval:         defaultTickInterval,
		Workspaces:           []string{},
		IgnorePatterns:       []string{},
		DesktopNotifications: &notifications,
	}
}

// IdleTimeout returns the idle threshold. Zero disables idle detection.
func (c Config) IdleTimeout() time.Duration {
	if c.IdleTimeoutMs == nil {
		return time.Duration(defaultIdleTimeoutMs) * time.Millisecond
	}
	return time.Duration(*c.IdleTimeoutMs) * time.Millisecond
}

// StatusBar reports whether the status line is printed on each tick.
func (c Config) StatusBar() bool {
	return c.ShowStatusBar == nil || *c.ShowStatusBar
}

// Notifications reports whether warnings are shown on the desktop.
func (c Config) Notifications() bool {
	return c.DesktopNotifications == nil || *c.DesktopNotifications
}

// Tick returns the parsed tick interval. Call Validate first; an invalid
// value falls back to the default.
func (c Config) Tick() time.Duration {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultTickInterval)
	}
	return d
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.IdleTimeoutMs != nil && *c.IdleTimeoutMs < 0 {
		return fmt.Errorf("idle_timeout_ms must not be negative, got %d", *c.IdleTimeoutMs)
	}
	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			return fmt.Errorf("invalid tick_interval %q: %w", c.TickInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("tick_interval must be positive, got %s", d)
		}
	}
	return nil
}

// Dir returns $XDG_CONFIG_HOME/codepulse, falling back to ~/.config.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codepulse"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "codepulse"), nil
}

// GlobalPath returns the path of the global config file.
func GlobalPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadGlobal reads the global config file.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// LoadProject reads .codepulse.json in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(ProjectFile, false)
}

// Load merges the global and project configs and validates the result.
func Load() (Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject()
	if err != nil {
		return Config{}, err
	}
	cfg := Merge(global, project)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()
	for _, layer := range []*Config{global, project} {
		if layer != nil {
			result.apply(layer)
		}
	}
	return result
}

// apply copies every set field of o over c.
func (c *Config) apply(o *Config) {
	if o.IdleTimeoutMs != nil {
		c.IdleTimeoutMs = o.IdleTimeoutMs
	}
	if o.ShowStatusBar != nil {
		c.ShowStatusBar = o.ShowStatusBar
	}
	if o.TickInterval != "" {
		c.TickInterval = o.TickInterval
	}
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if len(o.Workspaces) > 0 {
		c.Workspaces = o.Workspaces
	}
	if len(o.IgnorePatterns) > 0 {
		c.IgnorePatterns = o.IgnorePatterns
	}
	if o.DesktopNotifications != nil {
		c.DesktopNotifications = o.DesktopNotifications
	}
	if o.OTLPEndpoint != "" {
		c.OTLPEndpoint = o.OTLPEndpoint
		c.OTLPInsecure = o.OTLPInsecure
	}
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
