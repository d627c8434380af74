// Package coreconfig holds the small set of tunables that shape how the
// analysis core builds CFGs and runs its dataflow solver: a YAML file
// with environment-variable overrides, scoped to the core's own
// concerns rather than an application's.
package coreconfig

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Options tunes solver and post-processor behavior. Zero value is invalid;
// use Default() or Load().
type Options struct {
	// BitsetThreshold is the fact-count at or above which the dataflow solver
	// switches its per-node fact sets from a plain Go map to a
	// Roaring-bitmap-backed representation.
	BitsetThreshold int `yaml:"bitset_threshold" env:"CFGCORE_BITSET_THRESHOLD"`

	// WarnOnUnresolvedGoto controls how the post-processor handles a goto
	// whose label is never defined. When set, the goto is recorded as a
	// warning.Warning and the request still succeeds, with the goto left
	// without a successor. When unset, the request fails with an
	// InputError.
	WarnOnUnresolvedGoto bool `yaml:"warn_on_unresolved_goto" env:"CFGCORE_WARN_UNRESOLVED_GOTO"`

	// WarnOnArityMismatch controls whether a call-site argument/parameter
	// count mismatch during parameter-alias resolution is recorded as a
	// warning. Never fatal either way.
	WarnOnArityMismatch bool `yaml:"warn_on_arity_mismatch" env:"CFGCORE_WARN_ARITY_MISMATCH"`

	// MaxWorklistIterations caps the dataflow solver's worklist loop as a
	// diagnostic trip wire. The lattice is finite and transfer is
	// monotone, so well-formed input never approaches this; hitting it
	// raises an InternalAssertion instead of spinning forever on a
	// malformed CFG.
	MaxWorklistIterations int `yaml:"max_worklist_iterations" env:"CFGCORE_MAX_WORKLIST_ITERATIONS"`

	// MaxParallelUnits caps the goroutine count analysis.BuildCFGsForRoutines
	// uses when building CFGs for several translation units concurrently.
	// Zero or negative means "let the batch builder pick a default."
	MaxParallelUnits int `yaml:"max_parallel_units" env:"CFGCORE_MAX_PARALLEL_UNITS"`
}

// Default returns the recommended Options.
func Default() Options {
	return Options{
		BitsetThreshold:       64,
		WarnOnUnresolvedGoto:  true,
		WarnOnArityMismatch:   true,
		MaxWorklistIterations: 1_000_000,
		MaxParallelUnits:      0,
	}
}

// Load reads Options from a YAML file, falling back to Default() for any
// field the file omits, then applies environment overrides.
func Load(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&opts)
			return opts, nil
		}
		return opts, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyEnvOverrides(&opts)

	if err := opts.Validate(); err != nil {
		return opts, err
	}

	return opts, nil
}

func applyEnvOverrides(opts *Options) {
	if v := os.Getenv("CFGCORE_BITSET_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.BitsetThreshold = n
		}
	}
	if v := os.Getenv("CFGCORE_WARN_UNRESOLVED_GOTO"); v != "" {
		opts.WarnOnUnresolvedGoto = v == "true" || v == "1"
	}
	if v := os.Getenv("CFGCORE_WARN_ARITY_MISMATCH"); v != "" {
		opts.WarnOnArityMismatch = v == "true" || v == "1"
	}
	if v := os.Getenv("CFGCORE_MAX_WORKLIST_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.MaxWorklistIterations = n
		}
	}
	if v := os.Getenv("CFGCORE_MAX_PARALLEL_UNITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.MaxParallelUnits = n
		}
	}
}

// Validate checks that Options carries usable values.
func (o Options) Validate() error {
	if o.BitsetThreshold <= 0 {
		return fmt.Errorf("bitset_threshold must be positive")
	}
	if o.MaxWorklistIterations <= 0 {
		return fmt.Errorf("max_worklist_iterations must be positive")
	}
	return nil
}
