package config

import (
	"fmt"
	"sort"
	"strings"

	errs "github.com/c360/retrywrap/errors"
	"github.com/c360/retrywrap/pkg/retry"
)

// Built-in policy names. A policy file may redefine them or use them as a base.
const (
	PolicyDefault    = "default"
	PolicyQuick      = "quick"
	PolicyPersistent = "persistent"
)

var presets = map[string]func() retry.Config{
	PolicyDefault:    retry.DefaultConfig,
	PolicyQuick:      retry.Quick,
	PolicyPersistent: retry.Persistent,
}

var policyKeys = map[string]struct{}{
	"base": {}, "retries": {}, "initial_delay": {}, "timeout": {}, "factor": {},
	"max_delay": {}, "jitter": {}, "retry_on": {},
}

// HasPolicy reports whether name is a built-in or configured policy
func (c *Config) HasPolicy(name string) bool {
	if _, ok := c.Policies[name]; ok {
		return true
	}
	_, ok := presets[name]
	return ok
}

// PolicyNames lists every policy that can be selected, sorted
func (c *Config) PolicyNames() []string {
	seen := map[string]struct{}{}
	for name := range presets {
		seen[name] = struct{}{}
	}
	for name := range c.Policies {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PolicyConfig resolves a named policy into a retry.Config. An empty name
// selects DefaultPolicy. Keys missing from the policy keep the values of its
// base preset (the preset of the same name, or "default").
func (c *Config) PolicyConfig(name string) (retry.Config, error) {
	if name == "" {
		name = c.DefaultPolicy
	}
	if name == "" {
		name = PolicyDefault
	}

	raw, configured := c.Policies[name]
	preset, builtin := presets[name]
	if !configured && !builtin {
		return retry.Config{}, errs.WrapInvalid(
			fmt.Errorf("%w: %q", errs.ErrPolicyNotFound, name),
			"Config", "PolicyConfig", "resolve policy")
	}
	if !configured {
		return preset(), nil
	}

	cfg, err := decodePolicy(name, raw)
	if err != nil {
		return retry.Config{}, errs.WrapInvalid(err, "Config", "PolicyConfig", "decode policy "+name)
	}
	return cfg, nil
}

// Retrier builds a Retrier for the named policy with extra options applied last
func (c *Config) Retrier(name string, extra ...retry.Option) (*retry.Retrier, error) {
	cfg, err := c.PolicyConfig(name)
	if err != nil {
		return nil, err
	}
	r, err := retry.NewFrom(cfg)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return r, nil
	}
	return r.With(extra...)
}

func decodePolicy(name string, raw map[string]any) (retry.Config, error) {
	var problems []string
	for key := range raw {
		if _, ok := policyKeys[key]; !ok {
			problems = append(problems, fmt.Sprintf("unknown key %q", key))
		}
	}

	base := GetString(raw, "base", "")
	if base == "" {
		base = name
	}
	preset, ok := presets[base]
	if !ok {
		if HasKey(raw, "base") {
			problems = append(problems, fmt.Sprintf("unknown base %q", base))
		}
		preset = retry.DefaultConfig
	}
	cfg := preset()

	cfg.MaxRetries = GetInt(raw, "retries", cfg.MaxRetries)
	cfg.Factor = GetFloat64(raw, "factor", cfg.Factor)
	cfg.Jitter = GetFloat64(raw, "jitter", cfg.Jitter)

	var err error
	if cfg.InitialDelay, err = GetDuration(raw, "initial_delay", cfg.InitialDelay); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.Timeout, err = GetDuration(raw, "timeout", cfg.Timeout); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.MaxDelay, err = GetDuration(raw, "max_delay", cfg.MaxDelay); err != nil {
		problems = append(problems, err.Error())
	}

	if HasKey(raw, "retry_on") {
		names := GetStringSlice(raw, "retry_on", nil)
		if names == nil {
			problems = append(problems, "retry_on must be a list of error classes")
		}
		classes := make([]errs.ErrorClass, 0, len(names))
		for _, n := range names {
			class, err := errs.ParseClass(n)
			if err != nil {
				problems = append(problems, err.Error())
				continue
			}
			classes = append(classes, class)
		}
		cfg.ShouldRetry = retry.OnClasses(classes...)
	}

	if err := cfg.Validate(); err != nil {
		problems = append(problems, strings.TrimPrefix(err.Error(), errs.ErrInvalidConfig.Error()+": "))
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return retry.Config{}, fmt.Errorf("%w: policy %q: %s", errs.ErrInvalidConfig, name, strings.Join(problems, "; "))
	}
	return cfg, nil
}

// DeclaresRetryOn reports whether the named policy sets retry_on itself. Callers
// use it to decide whether to apply their own default predicate.
func (c *Config) DeclaresRetryOn(name string) bool {
	if name == "" {
		name = c.DefaultPolicy
	}
	return HasKey(c.Policies[name], "retry_on")
}
