package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"

	errs "github.com/c360/retrywrap/errors"
	"github.com/c360/retrywrap/health"
	"github.com/c360/retrywrap/metric"
	"github.com/c360/retrywrap/pkg/retry"
	"github.com/c360/retrywrap/pkg/worker"
)

// ParseBatch reads one command per line. Blank lines and lines starting with
// '#' are skipped. Each line is split with shell quoting rules, so quotes
// group words and a trailing '#' word starts a comment.
func ParseBatch(r io.Reader) ([]Command, error) {
	var cmds []Command
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		args, err := shlex.Split(text)
		if err != nil {
			return nil, errs.WrapInvalid(fmt.Errorf("line %d: %w", line, err), "batch", "ParseBatch", "parse command")
		}
		if len(args) == 0 {
			continue
		}
		cmds = append(cmds, Command{Args: args, Line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(err, "batch", "ParseBatch", "read batch")
	}
	return cmds, nil
}

// BatchSummary reports how a batch settled
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    []worker.Result[Command]
}

// ExitCode is 0 when every command succeeded, else the status of the first
// failure in file order.
func (s BatchSummary) ExitCode() int {
	if len(s.Failed) == 0 {
		return 0
	}
	first := s.Failed[0]
	for _, f := range s.Failed[1:] {
		if f.Job.Line < first.Job.Line {
			first = f
		}
	}
	return ExitCode(first.Err)
}

type batchOptions struct {
	workers         int
	queueSize       int
	retrier         *retry.Retrier
	registry        *metric.MetricsRegistry
	monitor         *health.Monitor
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// runBatch feeds cmds through a worker pool whose jobs retry under
// opts.retrier, and waits for all of them to settle.
func runBatch(ctx context.Context, runner *Runner, cmds []Command, opts batchOptions) (BatchSummary, error) {
	summary := BatchSummary{Total: len(cmds)}
	if len(cmds) == 0 {
		return summary, nil
	}

	var (
		mu      sync.Mutex
		settled sync.WaitGroup
	)
	settled.Add(len(cmds))

	poolOpts := []worker.Option[Command]{
		worker.WithRetrier[Command](opts.retrier, "batch"),
		worker.WithLogger[Command](opts.logger),
		worker.WithResultHandler(func(res worker.Result[Command]) {
			if opts.monitor != nil {
				opts.monitor.Record(fmt.Sprintf("line %d", res.Job.Line), res.Err, res.Duration)
			}
			mu.Lock()
			if res.Err == nil {
				summary.Succeeded++
			} else {
				summary.Failed = append(summary.Failed, res)
			}
			mu.Unlock()
			settled.Done()
		}),
	}
	if opts.registry != nil {
		poolOpts = append(poolOpts, worker.WithMetricsRegistry[Command](opts.registry, "batch"))
	}

	pool := worker.NewPool(opts.workers, opts.queueSize, runner.Run, poolOpts...)
	if err := pool.Start(ctx); err != nil {
		return summary, errs.Wrap(err, "batch", "runBatch", "start pool")
	}

	submitted := 0
	var submitErr error
	for _, cmd := range cmds {
		if err := pool.SubmitWait(ctx, cmd); err != nil {
			submitErr = errs.Wrap(err, "batch", "runBatch", fmt.Sprintf("submit line %d", cmd.Line))
			break
		}
		submitted++
	}
	// Commands never submitted will never settle
	settled.Add(submitted - len(cmds))

	done := make(chan struct{})
	go func() {
		settled.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	if err := pool.Stop(opts.shutdownTimeout); err != nil {
		opts.logger.Warn("Worker pool did not stop cleanly", "error", err)
	}

	mu.Lock()
	defer mu.Unlock()
	stats := pool.Stats()
	opts.logger.Info("Batch finished",
		"total", summary.Total,
		"submitted", stats.Submitted,
		"succeeded", summary.Succeeded,
		"failed", len(summary.Failed))

	if submitErr != nil {
		return summary, submitErr
	}
	if ctx.Err() != nil && summary.Succeeded+len(summary.Failed) < summary.Total {
		return summary, ctx.Err()
	}
	return summary, nil
}

func loadBatch(path string) ([]Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapInvalid(err, "batch", "loadBatch", "open batch file")
	}
	defer f.Close()
	return ParseBatch(f)
}
