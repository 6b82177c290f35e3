// Package health tracks whether retried work is settling successfully.
//
// A Monitor keeps the last outcome of each named component (a wrapped
// function, or one line of a retryrun batch) and folds them into a single
// status:
//
//	monitor := health.NewMonitor()
//	monitor.Record("line 3", err, time.Since(start))
//	status := monitor.AggregateHealth("retryrun")
//
// Successes are healthy. Failures classified as invalid input are degraded,
// since retrying cannot fix them. Any other failure is unhealthy. The
// aggregate is unhealthy if any component is, degraded if any component is,
// and healthy otherwise.
//
// Failure messages are scrubbed of URLs, paths, addresses and credentials
// before they are stored, so a Status can be served as-is on a metrics
// endpoint.
package health
