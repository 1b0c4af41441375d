package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"priorityline/internal/decision"
	"priorityline/internal/monitor"
	"priorityline/internal/scoring"
)

// Config models priorityline.yml.
type Config struct {
	Scoring  scoring.Rules   `yaml:"scoring" json:"scoring"`
	Decision decision.Rules  `yaml:"decision" json:"decision"`
	Monitor  monitor.Rules   `yaml:"monitor" json:"monitor"`
	Worker   WorkerConfig    `yaml:"worker" json:"worker"`
	Log      LogConfig       `yaml:"log" json:"log"`
	Webhooks []WebhookConfig `yaml:"webhooks,omitempty" json:"webhooks,omitempty"`
}

type WorkerConfig struct {
	MonitorInterval string `yaml:"monitor_interval" json:"monitor_interval"`
	Concurrency     int    `yaml:"concurrency" json:"concurrency"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url" json:"url"`
	Secret         string   `yaml:"secret,omitempty" json:"-"`
	Events         []string `yaml:"events,omitempty" json:"events,omitempty"`
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	Enabled        *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

const fileName = "priorityline.yml"

// Default returns the built-in rule tables and worker settings.
func Default() *Config {
	return &Config{
		Scoring:  scoring.DefaultRules(),
		Decision: decision.DefaultRules(),
		Monitor:  monitor.DefaultRules(),
		Worker: WorkerConfig{
			MonitorInterval: "15m",
			Concurrency:     4,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// MonitorInterval returns the parsed tick interval. Validate guarantees it parses.
func (c *Config) MonitorInterval() time.Duration {
	d, err := time.ParseDuration(c.Worker.MonitorInterval)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if err := c.Decision.Validate(); err != nil {
		return err
	}
	if err := c.Monitor.Validate(); err != nil {
		return err
	}
	d, err := time.ParseDuration(c.Worker.MonitorInterval)
	if err != nil {
		return fmt.Errorf("worker.monitor_interval: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("worker.monitor_interval must be positive")
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be > 0")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	for i, hook := range c.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("webhooks[%d].url is required", i)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("webhooks[%d].timeout_seconds must be >= 0", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, fileName)
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with pl rules init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses config over the defaults and validates it. Tables present in the
// document replace the default tables.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// ToYAML renders the config as stored in the workspace database.
func ToYAML(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	data, err := ToYAML(Default())
	if err != nil {
		panic(err)
	}
	return "# priorityline rule tables; bands are evaluated top to bottom, first match wins.\n" + string(data)
}
