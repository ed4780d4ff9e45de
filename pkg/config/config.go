package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ExperimentConfig struct {
	Name string `yaml:"name"`
	// Seed drives parameter generation; the same seed yields the same task instances.
	Seed         uint64            `yaml:"seed"`
	Repeat       int               `yaml:"repeat"`
	VerifyStable bool              `yaml:"verify_stable"`
	Device       DeviceConfig      `yaml:"device"`
	Agent        AgentConfig       `yaml:"agent"`
	Logging      LogConfig         `yaml:"logging"`
	Output       OutputConfig      `yaml:"output"`
	Tasks        []TaskConfig      `yaml:"tasks"`
	Composites   []CompositeConfig `yaml:"composites"`
}

type DeviceConfig struct {
	ADB     string        `yaml:"adb"`
	Serial  string        `yaml:"serial"`
	Timeout time.Duration `yaml:"timeout"`
	// Fake runs against the in-memory emulator, for dry runs of a suite.
	Fake bool `yaml:"fake"`
}

type AgentConfig struct {
	Type     string `yaml:"type"`
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	MaxSteps int    `yaml:"max_steps"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	Path  string `yaml:"path"`
}

type OutputConfig struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

type TaskConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
	Repeat int            `yaml:"repeat"`
}

// CompositeConfig declares a composite task in the suite file.
type CompositeConfig struct {
	Name       string            `yaml:"name"`
	Template   string            `yaml:"template"`
	Separator  string            `yaml:"separator"`
	ClearDirs  []string          `yaml:"clear_dirs"`
	Components []ComponentConfig `yaml:"components"`
}

type ComponentConfig struct {
	Task     string            `yaml:"task"`
	Keys     map[string]string `yaml:"keys"`
	TearDown bool              `yaml:"tear_down"`
}

const (
	AgentHuman = "human"
	AgentNoop  = "noop"
	AgentShell = "shell"

	FormatCSV  = "csv"
	FormatJSON = "json"
)

func Default() *ExperimentConfig {
	return &ExperimentConfig{
		Name:   "droidbench",
		Seed:   1,
		Repeat: 1,
		Device: DeviceConfig{
			ADB:     "adb",
			Timeout: 30 * time.Second,
		},
		Agent: AgentConfig{
			Type:     AgentHuman,
			Provider: "openai",
			Model:    "gpt-4o-mini",
			MaxSteps: 10,
		},
		Logging: LogConfig{Level: "info"},
		Output:  OutputConfig{Format: FormatCSV},
	}
}

// LoadConfig reads a YAML suite file on top of the defaults, then applies
// environment overrides and validates the result.
func LoadConfig(path string) (*ExperimentConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv lets the environment (often populated from .env) pick the device.
func (c *ExperimentConfig) ApplyEnv() {
	if serial := os.Getenv("ANDROID_SERIAL"); serial != "" && c.Device.Serial == "" {
		c.Device.Serial = serial
	}
	if adb := os.Getenv("DROIDBENCH_ADB"); adb != "" {
		c.Device.ADB = adb
	}
}

func (c *ExperimentConfig) Validate() error {
	var errs []error
	if c.Repeat < 1 {
		errs = append(errs, fmt.Errorf("repeat must be at least 1, got %d", c.Repeat))
	}
	switch c.Agent.Type {
	case AgentHuman, AgentNoop, AgentShell:
	default:
		errs = append(errs, fmt.Errorf("unknown agent type %q", c.Agent.Type))
	}
	if c.Agent.Type == AgentShell && c.Agent.MaxSteps < 1 {
		errs = append(errs, fmt.Errorf("agent.max_steps must be at least 1"))
	}
	switch strings.ToLower(c.Output.Format) {
	case FormatCSV, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q", c.Output.Format))
	}
	for i, t := range c.Tasks {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("tasks[%d]: name is required", i))
		}
		if t.Repeat < 0 {
			errs = append(errs, fmt.Errorf("tasks[%d]: repeat must not be negative", i))
		}
	}
	for i, comp := range c.Composites {
		if comp.Name == "" {
			errs = append(errs, fmt.Errorf("composites[%d]: name is required", i))
		}
		for j, part := range comp.Components {
			if part.Task == "" {
				errs = append(errs, fmt.Errorf("composites[%d].components[%d]: task is required", i, j))
			}
		}
	}
	return errors.Join(errs...)
}
