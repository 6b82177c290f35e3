// Package main implements retryrun, a command runner that retries failed
// commands with exponential backoff using named policies from a config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/retrywrap/config"
	errs "github.com/c360/retrywrap/errors"
	"github.com/c360/retrywrap/health"
	"github.com/c360/retrywrap/metric"
	"github.com/c360/retrywrap/pkg/retry"
)

// Build information (set via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "retryrun"
)

const exitUsage = 2

// exitError carries the process exit status through run's error return
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			fmt.Fprintf(os.Stderr, "PANIC: %v\n%s\n", r, buf[:n])
			os.Exit(exitUsage)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	os.Exit(exitStatus(err, os.Stderr))
}

// exitStatus reports err on stderr unless the failure was already reported
func exitStatus(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", appName, ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "%s: %v\n", appName, err)
	return ExitCode(err)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return &exitError{code: exitUsage}
	}
	if err := validateFlags(cli); err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	switch {
	case cli.ShowVersion:
		fmt.Fprintf(stdout, "%s version %s (build %s)\n", appName, Version, BuildTime)
		return nil
	case cli.ShowHelp:
		cli.usage(stdout)
		return nil
	case cli.PrintSchema:
		_, err := stdout.Write(config.Schema())
		return err
	}

	cfg, err := loadConfig(cli)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	if cli.Validate {
		fmt.Fprintf(stdout, "configuration valid (%d policies, default %q)\n",
			len(cfg.PolicyNames()), cfg.DefaultPolicy)
		return nil
	}
	if cli.ListPolicies {
		return listPolicies(stdout, cfg)
	}

	logger := setupLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	monitor := health.NewMonitor()
	registry, stopMetrics := startMetrics(cfg, monitor, logger)
	defer stopMetrics()

	r, err := buildRetrier(cli, cfg, logger, registry, stderr)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	runner := NewRunner(cfg.Exec.InvalidExitCodes, cli.AttemptTimeout, stdout, stderr)

	if cli.BatchFile != "" {
		return runBatchFile(ctx, cli, cfg, runner, r, registry, monitor, logger)
	}
	return runSingle(ctx, runner, r, Command{Args: cli.Command}, monitor, logger)
}

// loadConfig layers the optional config file, RETRYRUN_* variables and flags
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cli.ConfigPath != "" {
		loader.AddLayer(cli.ConfigPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
	if cli.Workers > 0 {
		cfg.Exec.Workers = cli.Workers
	}
	if cli.MetricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = cli.MetricsPort
	}
	if cli.Policy != "" && !cfg.HasPolicy(cli.Policy) {
		return nil, errs.WrapInvalid(
			fmt.Errorf("%w: %q (have %v)", errs.ErrPolicyNotFound, cli.Policy, cfg.PolicyNames()),
			"retryrun", "loadConfig", "select policy")
	}
	return cfg, nil
}

func listPolicies(w io.Writer, cfg *config.Config) error {
	for _, name := range cfg.PolicyNames() {
		p, err := cfg.PolicyConfig(name)
		if err != nil {
			return &exitError{code: exitUsage, err: err}
		}
		marker := " "
		if name == cfg.DefaultPolicy {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-12s retries=%d timeout=%s factor=%g max_delay=%s jitter=%g\n",
			marker, name, p.MaxRetries, p.Timeout, p.Factor, p.MaxDelay, p.Jitter)
	}
	return nil
}

// startMetrics serves the registry and monitor's health when metrics are
// enabled. The returned registry is nil otherwise.
func startMetrics(cfg *config.Config, monitor *health.Monitor, logger *slog.Logger) (*metric.MetricsRegistry, func()) {
	if !cfg.Metrics.Enabled {
		return nil, func() {}
	}

	registry := metric.NewMetricsRegistry()
	server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
	server.SetHealth(func() health.Status { return monitor.AggregateHealth(appName) })
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Metrics server failed", "error", err)
		}
	}()
	logger.Debug("Metrics server starting", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)

	return registry, func() {
		if err := server.Stop(); err != nil {
			logger.Warn("Failed to stop metrics server", "error", err)
		}
	}
}

// buildRetrier resolves the selected policy and attaches logging, metrics and
// the flag overrides. Policies without retry_on only retry transient failures.
func buildRetrier(cli *CLIConfig, cfg *config.Config, logger *slog.Logger,
	registry *metric.MetricsRegistry, stderr io.Writer) (*retry.Retrier, error) {

	opts := []retry.Option{retry.WithLogger(logger)}
	if !cli.Quiet {
		opts = append(opts, retry.WithLog(func(msg string) {
			fmt.Fprintln(stderr, msg)
		}))
	}
	if registry != nil {
		opts = append(opts, retry.WithMetrics(registry.CoreMetrics()))
	}
	if !cfg.DeclaresRetryOn(cli.Policy) {
		opts = append(opts, retry.WithShouldRetry(retry.OnClasses(errs.ErrorTransient)))
	}
	if cli.Retries >= 0 {
		opts = append(opts, retry.WithRetries(cli.Retries))
	}
	if cli.Timeout > 0 {
		opts = append(opts, retry.WithTimeout(cli.Timeout))
	}

	return cfg.Retrier(cli.Policy, opts...)
}

func runSingle(ctx context.Context, runner *Runner, r *retry.Retrier, cmd Command,
	monitor *health.Monitor, logger *slog.Logger) error {

	name := filepath.Base(cmd.Args[0])
	call, err := retry.Wrap(r, func(ctx context.Context, cmd Command) (struct{}, error) {
		return struct{}{}, runner.Run(ctx, cmd)
	}, retry.WithName(name))
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	start := time.Now()
	_, err = call(ctx, cmd).Get()
	monitor.Record(name, err, time.Since(start))
	if err != nil {
		logger.Debug("Command failed", "command", cmd.String(), "class", errs.Classify(err).String(), "error", err)
	}
	return err
}

func runBatchFile(ctx context.Context, cli *CLIConfig, cfg *config.Config, runner *Runner,
	r *retry.Retrier, registry *metric.MetricsRegistry, monitor *health.Monitor, logger *slog.Logger) error {

	cmds, err := loadBatch(cli.BatchFile)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	summary, err := runBatch(ctx, runner, cmds, batchOptions{
		workers:         cfg.Exec.Workers,
		queueSize:       cfg.Exec.QueueSize,
		retrier:         r,
		registry:        registry,
		monitor:         monitor,
		logger:          logger,
		shutdownTimeout: cli.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	for _, f := range summary.Failed {
		logger.Error("Command failed", "line", f.Job.Line, "command", f.Job.String(), "error", f.Err)
	}
	if code := summary.ExitCode(); code != 0 {
		return &exitError{
			code: code,
			err:  fmt.Errorf("%d of %d commands failed", len(summary.Failed), summary.Total),
		}
	}
	return nil
}
