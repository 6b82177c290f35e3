package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	errs "github.com/c360/retrywrap/errors"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "RETRYRUN"

// Config is the retryrun configuration document
type Config struct {
	Version       string                    `yaml:"version" json:"version"`
	Log           LogConfig                 `yaml:"log" json:"log"`
	Metrics       MetricsConfig             `yaml:"metrics" json:"metrics"`
	Exec          ExecConfig                `yaml:"exec" json:"exec"`
	DefaultPolicy string                    `yaml:"default_policy" json:"default_policy"`
	Policies      map[string]map[string]any `yaml:"policies" json:"policies"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json or text
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// ExecConfig controls how commands are run and how their exit codes classify
type ExecConfig struct {
	Workers   int `yaml:"workers" json:"workers"`
	QueueSize int `yaml:"queue_size" json:"queue_size"`
	// Exit codes that mean the invocation itself was wrong; never retried
	InvalidExitCodes []int `yaml:"invalid_exit_codes" json:"invalid_exit_codes"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Exec: ExecConfig{
			Workers:          4,
			QueueSize:        100,
			InvalidExitCodes: []int{2, 64},
		},
		DefaultPolicy: PolicyDefault,
		Policies:      map[string]map[string]any{},
	}
}

// Validate checks cross-field rules the schema cannot express
func (c *Config) Validate() error {
	var problems []string

	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
		problems = append(problems, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "text" {
		problems = append(problems, fmt.Sprintf("log.format %q is not json or text", c.Log.Format))
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		problems = append(problems, fmt.Sprintf("metrics.port %d out of range", c.Metrics.Port))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		problems = append(problems, "metrics.path must start with /")
	}
	if c.Exec.Workers < 1 {
		problems = append(problems, "exec.workers must be at least 1")
	}
	if c.Exec.QueueSize < 1 {
		problems = append(problems, "exec.queue_size must be at least 1")
	}
	if !c.HasPolicy(c.DefaultPolicy) {
		problems = append(problems, fmt.Sprintf("default_policy %q is not defined", c.DefaultPolicy))
	}
	for name := range c.Policies {
		if _, err := c.PolicyConfig(name); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return errs.WrapInvalid(
			fmt.Errorf("%w: %s", errs.ErrInvalidConfig, strings.Join(problems, "; ")),
			"Config", "Validate", "check configuration")
	}
	return nil
}

var logLevels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}

// String renders the configuration as YAML
func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(out)
}

// Loader merges configuration layers, validates them against the schema and
// applies environment overrides.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
	getenv     func(string) string
}

// NewLoader creates a loader with validation enabled
func NewLoader() *Loader {
	return &Loader{
		validation: true,
		envPrefix:  EnvPrefix,
		getenv:     os.Getenv,
	}
}

// AddLayer adds a file; later layers override earlier ones key by key
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation toggles schema and semantic validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads a single file on top of the defaults
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges the defaults, every layer and the environment
func (l *Loader) Load() (*Config, error) {
	merged := map[string]any{}
	for _, path := range l.layers {
		raw, err := loadRawDocument(path)
		if err != nil {
			return nil, err
		}
		merged = deepMergeMaps(merged, raw)
	}

	if l.validation && len(merged) > 0 {
		if err := ValidateDocument(merged); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if len(merged) > 0 {
		data, err := yaml.Marshal(merged)
		if err != nil {
			return nil, errs.WrapInvalid(err, "Loader", "Load", "re-encode merged layers")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.WrapInvalid(err, "Loader", "Load", "decode configuration")
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Load is shorthand for NewLoader().LoadFile(path)
func Load(path string) (*Config, error) {
	return NewLoader().LoadFile(path)
}

func loadRawDocument(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errs.WrapInvalid(
			fmt.Errorf("%w: %s: %v", errs.ErrInvalidConfig, path, err),
			"Loader", "Load", "parse "+path)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}
		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// applyEnvOverrides applies RETRYRUN_* variables
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	lookup := func(name string) (string, error) {
		key := l.envPrefix + "_" + name
		val := l.getenv(key)
		return val, validateEnvVar(key, val)
	}

	var problems []string
	set := func(name string, apply func(string) error) {
		val, err := lookup(name)
		if err != nil {
			problems = append(problems, err.Error())
			return
		}
		if val == "" {
			return
		}
		if err := apply(val); err != nil {
			problems = append(problems, fmt.Sprintf("%s_%s: %v", l.envPrefix, name, err))
		}
	}

	set("LOG_LEVEL", func(v string) error { cfg.Log.Level = v; return nil })
	set("LOG_FORMAT", func(v string) error { cfg.Log.Format = v; return nil })
	set("DEFAULT_POLICY", func(v string) error { cfg.DefaultPolicy = v; return nil })
	set("METRICS_ENABLED", func(v string) error {
		b, err := strconv.ParseBool(v)
		cfg.Metrics.Enabled = b
		return err
	})
	set("METRICS_PORT", func(v string) error {
		n, err := strconv.Atoi(v)
		cfg.Metrics.Port = n
		return err
	})
	set("WORKERS", func(v string) error {
		n, err := strconv.Atoi(v)
		cfg.Exec.Workers = n
		return err
	})

	if len(problems) > 0 {
		return errs.WrapInvalid(
			fmt.Errorf("%w: %s", errs.ErrInvalidConfig, strings.Join(problems, "; ")),
			"Loader", "applyEnvOverrides", "apply environment")
	}
	return nil
}
