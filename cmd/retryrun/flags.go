package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	Policy          string
	LogLevel        string
	LogFormat       string
	Debug           bool
	BatchFile       string
	Workers         int
	Retries         int
	Timeout         time.Duration
	AttemptTimeout  time.Duration
	MetricsPort     int
	ShutdownTimeout time.Duration
	Quiet           bool
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
	PrintSchema     bool
	ListPolicies    bool

	// Command and its arguments, everything after the flags
	Command []string

	usage func(w io.Writer)
}

func parseFlags(args []string, stderr io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("RETRYRUN_CONFIG", ""),
		"Path to a YAML or JSON configuration file (env: RETRYRUN_CONFIG)")
	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("RETRYRUN_CONFIG", ""),
		"Path to a YAML or JSON configuration file (env: RETRYRUN_CONFIG)")

	fs.StringVar(&cfg.Policy, "policy", "",
		"Retry policy name; defaults to the config's default_policy")
	fs.StringVar(&cfg.Policy, "p", "",
		"Retry policy name; defaults to the config's default_policy")

	fs.StringVar(&cfg.LogLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides the config file)")
	fs.StringVar(&cfg.LogFormat, "log-format", "",
		"Log format: json, text (overrides the config file)")
	fs.BoolVar(&cfg.Debug, "debug", getEnvBool("RETRYRUN_DEBUG", false),
		"Enable debug logging (env: RETRYRUN_DEBUG)")

	fs.StringVar(&cfg.BatchFile, "batch", "",
		"Run every command in this file (one per line) through the worker pool")
	fs.IntVar(&cfg.Workers, "workers", 0,
		"Concurrent commands in batch mode; 0 uses the config file")

	fs.IntVar(&cfg.Retries, "retries", -1,
		"Override the policy's retry count; -1 keeps the policy value")
	fs.DurationVar(&cfg.Timeout, "timeout", 0,
		"Override the delay before the first retry; 0 keeps the policy value")
	fs.DurationVar(&cfg.AttemptTimeout, "attempt-timeout",
		getEnvDuration("RETRYRUN_ATTEMPT_TIMEOUT", 0),
		"Kill an attempt that runs longer than this; 0 disables (env: RETRYRUN_ATTEMPT_TIMEOUT)")

	fs.IntVar(&cfg.MetricsPort, "metrics-port", getEnvInt("RETRYRUN_METRICS_PORT", 0),
		"Serve Prometheus metrics on this port; 0 uses the config file")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("RETRYRUN_SHUTDOWN_TIMEOUT", 30*time.Second),
		"Time allowed for queued batch commands to settle on shutdown")

	fs.BoolVar(&cfg.Quiet, "quiet", false, "Do not print retry messages to stderr")
	fs.BoolVar(&cfg.Quiet, "q", false, "Do not print retry messages to stderr")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")
	fs.BoolVar(&cfg.PrintSchema, "print-schema", false, "Print the configuration JSON schema and exit")
	fs.BoolVar(&cfg.ListPolicies, "list-policies", false, "List available retry policies and exit")

	fs.Usage = func() { printDetailedHelp(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Command = fs.Args()
	cfg.usage = func(w io.Writer) {
		fs.SetOutput(w)
		printDetailedHelp(w, fs)
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp || cfg.PrintSchema {
		return nil
	}

	if cfg.LogLevel != "" && !contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "" && !contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	if cfg.Retries < -1 {
		return fmt.Errorf("invalid retries: %d", cfg.Retries)
	}
	if cfg.Timeout < 0 || cfg.AttemptTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("invalid workers: %d", cfg.Workers)
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	if cfg.Validate || cfg.ListPolicies {
		return nil
	}
	switch {
	case cfg.BatchFile != "" && len(cfg.Command) > 0:
		return fmt.Errorf("give either a command or -batch, not both")
	case cfg.BatchFile == "" && len(cfg.Command) == 0:
		return fmt.Errorf("no command given")
	}
	return nil
}

func printDetailedHelp(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintf(w, `%s - run commands with exponential backoff retries

Usage:
  %s [options] [--] command [args...]
  %s [options] -batch commands.txt

Options:
`, appName, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Exit codes 126 and 127 (command not executable / not found) are never retried.
Exit codes listed in exec.invalid_exit_codes are treated as invalid input and
are not retried unless the policy's retry_on includes "invalid". Any other
non-zero exit status is transient.

Examples:
  # Retry a flaky download with the default policy
  %s -- curl -fsS https://example.com/health

  # Use a named policy from a config file
  %s -c retryrun.yaml -p api -- ./deploy.sh

  # Run a batch of commands, four at a time
  %s -c retryrun.yaml -batch jobs.txt -workers 4

Version: %s
Build: %s
`, appName, appName, appName, Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
