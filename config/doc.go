// Package config loads retryrun configuration: logging, metrics, command
// execution settings and named retry policies.
//
// # File Format
//
// Configuration is YAML (JSON is accepted too) and is checked against an
// embedded JSON schema before it is decoded:
//
//	version: "1.0.0"
//	log:
//	  level: info
//	  format: json
//	metrics:
//	  enabled: true
//	  port: 9090
//	default_policy: api
//	policies:
//	  api:
//	    retries: 5
//	    timeout: 200ms      # or integer milliseconds: 200
//	    factor: 1.5
//	    max_delay: 5s
//	    retry_on: [transient]
//	  startup:
//	    base: quick
//	    retries: 20
//
// Keys missing from a policy inherit from its base preset: "default", "quick"
// or "persistent" (see retry.DefaultConfig, retry.Quick and retry.Persistent).
// These three names can be selected without being defined.
//
// # Loading
//
//	cfg, err := config.Load("retryrun.yaml")
//	r, err := cfg.Retrier("api", retry.WithLogger(logger))
//
// Layers added with Loader.AddLayer are deep-merged in order. After the files,
// RETRYRUN_LOG_LEVEL, RETRYRUN_LOG_FORMAT, RETRYRUN_DEFAULT_POLICY,
// RETRYRUN_METRICS_ENABLED, RETRYRUN_METRICS_PORT and RETRYRUN_WORKERS
// override the matching fields.
//
// # Errors
//
// Every loading or policy error is classified invalid and matches
// errors.ErrInvalidConfig, errors.ErrConfigNotFound or errors.ErrPolicyNotFound.
package config
