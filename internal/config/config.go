package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"genoalign/internal/external"

	"gopkg.in/yaml.v3"
)

// Config holds all genoalign settings. Command-line flags override it.
type Config struct {
	Tools   ToolsConfig   `yaml:"tools"`
	Plot    PlotConfig    `yaml:"plot"`
	Align   AlignConfig   `yaml:"align"`
	Logging LoggingConfig `yaml:"logging"`
}

// ToolsConfig locates the external programs.
type ToolsConfig struct {
	Mauve   string `yaml:"mauve"`
	Plotter string `yaml:"plotter"`
	Timeout string `yaml:"timeout"` // per invocation, empty or "0" for none
}

// PlotConfig sets the figure geometry in inches and the output formats.
type PlotConfig struct {
	Width     float64  `yaml:"width"`
	Height    float64  `yaml:"height"` // 0 lets genoPlotR size it
	TreeWidth float64  `yaml:"tree_width"`
	Formats   []string `yaml:"formats"`
}

// AlignConfig controls reuse of an earlier alignment.
type AlignConfig struct {
	Reuse bool `yaml:"reuse"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Mauve:   "progressiveMauve",
			Plotter: "./run_genoPlotR.R",
		},
		Plot: PlotConfig{
			Width:     15,
			Height:    0,
			TreeWidth: 3,
			Formats:   []string{"svg", "pdf"},
		},
		Align: AlignConfig{
			Reuse: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file on top of the defaults and applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadOrDefault loads path, or returns the defaults with environment
// overrides when path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	return Load(path)
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GENOALIGN_MAUVE"); v != "" {
		c.Tools.Mauve = v
	}
	if v := os.Getenv("GENOALIGN_PLOTTER"); v != "" {
		c.Tools.Plotter = v
	}
	if v := os.Getenv("GENOALIGN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// ToolTimeout parses Tools.Timeout.
func (c *Config) ToolTimeout() (time.Duration, error) {
	if c.Tools.Timeout == "" || c.Tools.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Tools.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid tools.timeout %q: %w", c.Tools.Timeout, err)
	}
	return d, nil
}

func (c *Config) Validate() error {
	if c.Tools.Mauve == "" {
		return fmt.Errorf("tools.mauve is required")
	}
	if c.Tools.Plotter == "" {
		return fmt.Errorf("tools.plotter is required")
	}
	if _, err := c.ToolTimeout(); err != nil {
		return err
	}
	if c.Plot.Width < 0 || c.Plot.Height < 0 || c.Plot.TreeWidth < 0 {
		return fmt.Errorf("plot sizes must not be negative")
	}
	if len(c.Plot.Formats) == 0 {
		return fmt.Errorf("at least one plot format is required")
	}
	for _, f := range c.Plot.Formats {
		if !external.ValidFormat(f) {
			return fmt.Errorf("unsupported plot format %q (want one of %s)", f, strings.Join(external.ImageFormats, ", "))
		}
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}
