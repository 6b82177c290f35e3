package health

import (
	"sort"
	"sync"
	"time"

	errs "github.com/c360/retrywrap/errors"
)

// Monitor tracks the last settled outcome of each named component. It is safe
// for concurrent use.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates an empty monitor
func NewMonitor() *Monitor {
	return &Monitor{
		statuses: make(map[string]Status),
	}
}

// Update replaces the status for name
func (m *Monitor) Update(name string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	m.statuses[name] = status
}

// Record folds one settled invocation into name's status. A success is
// healthy; an invalid-input failure is degraded since retrying cannot fix it;
// anything else is unhealthy.
func (m *Monitor) Record(name string, err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := &Metrics{}
	if prev, ok := m.statuses[name]; ok && prev.Metrics != nil {
		*metrics = *prev.Metrics
	}
	metrics.Runs++
	metrics.LastDuration = duration.String()
	metrics.LastActivity = time.Now()

	var status Status
	switch {
	case err == nil:
		status = NewHealthy(name, "last run succeeded")
	case errs.IsInvalid(err):
		metrics.Failures++
		status = NewDegraded(name, sanitizeErrorMessage(err.Error()))
	default:
		metrics.Failures++
		status = NewUnhealthy(name, sanitizeErrorMessage(err.Error()))
	}
	status.Metrics = metrics
	m.statuses[name] = status
}

// Get retrieves the status for name
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status, exists := m.statuses[name]
	return status, exists
}

// AggregateHealth folds every tracked component into one status, sub-statuses
// ordered by name.
func (m *Monitor) AggregateHealth(systemName string) Status {
	m.mu.RLock()
	subStatuses := make([]Status, 0, len(m.statuses))
	for _, status := range m.statuses {
		subStatuses = append(subStatuses, status)
	}
	m.mu.RUnlock()

	sort.Slice(subStatuses, func(i, j int) bool {
		return subStatuses[i].Component < subStatuses[j].Component
	})
	return Aggregate(systemName, subStatuses)
}

// Count returns the number of tracked components
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.statuses)
}
