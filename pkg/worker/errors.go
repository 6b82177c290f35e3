package worker

import (
	"errors"
	"fmt"

	errs "github.com/c360/retrywrap/errors"
)

// Sentinel errors for pool lifecycle and submission
var (
	ErrPoolNotStarted     = errors.New("worker pool not started")
	ErrPoolStopped        = errors.New("worker pool stopped")
	ErrPoolAlreadyStarted = errors.New("worker pool already started")
	ErrNilProcessor       = errors.New("processor function cannot be nil")

	// ErrQueueFull classifies as transient, so a retried submitter backs off
	ErrQueueFull = fmt.Errorf("worker pool queue full: %w", errs.ErrRateLimited)

	ErrStopTimeout = fmt.Errorf("waiting for workers to stop: %w", errs.ErrTimeout)
)
