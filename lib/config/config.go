// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/dirload/lib/fwg"
	"github.com/bureau-foundation/dirload/lib/namespace"
	"github.com/bureau-foundation/dirload/lib/workload"
)

// EnvironmentVariable names the workload file read by Load.
const EnvironmentVariable = "DIRLOAD_CONFIG"

// Selection values.
const (
	SelectionRandom     = "random"
	SelectionSequential = "sequential"
)

// Config is a workload definition.
type Config struct {
	// Anchor is the directory the synthetic tree is rooted at.
	Anchor string `yaml:"anchor"`

	// Shape declares the tree below the anchor.
	Shape namespace.Shape `yaml:"shape"`

	// Format creates every top-level directory together with its
	// subtree, then stops.
	Format bool `yaml:"format"`

	// Operations are the worker pools.
	Operations []Operation `yaml:"operations"`

	// Elapsed ends the run after this long, e.g. "30s". Zero means no
	// time limit.
	Elapsed time.Duration `yaml:"elapsed"`

	// MaxOperations ends the run after this many completed creates and
	// deletes. Zero means no limit.
	MaxOperations uint64 `yaml:"max_operations"`

	// Seed makes random selection reproducible. Zero seeds from the
	// runtime.
	Seed uint64 `yaml:"seed"`

	// ProgressInterval is the period of progress log lines. Zero
	// disables them.
	ProgressInterval time.Duration `yaml:"progress_interval"`

	// Rounds repeats the workload over the same tree. Each round starts
	// from the directories the previous one left on disk.
	Rounds int `yaml:"rounds"`
}

// Operation is one worker pool.
type Operation struct {
	// Operation is "mkdir" or "rmdir".
	Operation string `yaml:"operation"`

	// Threads is the number of workers.
	Threads int `yaml:"threads"`

	// Selection is "random" or "sequential".
	Selection string `yaml:"selection"`
}

// Default returns the base configuration a workload file is merged onto.
// Its anchor is below the system temporary directory and still holds an
// unexpanded ${TMPDIR}; Parse(nil) returns it expanded.
func Default() *Config {
	return &Config{
		Anchor: filepath.Join("${TMPDIR:-/tmp}", "dirload"),
		Shape:  namespace.Shape{Depth: 2, Width: 10},
		Operations: []Operation{
			{Operation: "mkdir", Threads: 8, Selection: SelectionRandom},
		},
		ProgressInterval: 10 * time.Second,
		Rounds:           1,
	}
}

// Load loads the workload file named by DIRLOAD_CONFIG. There is no
// fallback: if the variable is unset, Load fails.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of a workload file, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads a workload file. Fields the file leaves out keep their
// Default values; a file that sets operations replaces the default list.
// Unknown keys are errors.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a workload definition onto Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in the anchor path.
func (c *Config) expandVariables() {
	c.Anchor = expandVars(c.Anchor, map[string]string{
		"HOME": os.Getenv("HOME"),
	})
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Provided vars first, then the environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the workload for errors. All problems are reported at
// once.
func (c *Config) Validate() error {
	var errs []error

	if c.Anchor == "" {
		errs = append(errs, errors.New("anchor is required"))
	} else if !filepath.IsAbs(c.Anchor) {
		errs = append(errs, fmt.Errorf("anchor must be an absolute path, got %q", c.Anchor))
	}

	if err := c.Shape.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("shape: %w", err))
	}

	if len(c.Operations) == 0 {
		errs = append(errs, errors.New("operations: at least one operation is required"))
	}
	creates, deletes := false, false
	for i, operation := range c.Operations {
		kind, err := workload.ParseKind(operation.Operation)
		if err != nil {
			errs = append(errs, fmt.Errorf("operations[%d]: %w", i, err))
		} else if kind.Deletes() {
			deletes = true
		} else {
			creates = true
		}
		if operation.Threads < 1 || operation.Threads > fwg.MaxThreads {
			errs = append(errs, fmt.Errorf("operations[%d].threads must be between 1 and %d, got %d",
				i, fwg.MaxThreads, operation.Threads))
		}
		if operation.Selection != SelectionRandom && operation.Selection != SelectionSequential {
			errs = append(errs, fmt.Errorf("operations[%d].selection must be %q or %q, got %q",
				i, SelectionRandom, SelectionSequential, operation.Selection))
		}
	}

	// Creates and deletes keep each other busy forever.
	if creates && deletes && c.Elapsed == 0 && c.MaxOperations == 0 {
		errs = append(errs, errors.New("a workload with both mkdir and rmdir needs elapsed or max_operations"))
	}

	if c.Elapsed < 0 {
		errs = append(errs, fmt.Errorf("elapsed must not be negative, got %s", c.Elapsed))
	}
	if c.ProgressInterval < 0 {
		errs = append(errs, fmt.Errorf("progress_interval must not be negative, got %s", c.ProgressInterval))
	}
	if c.Rounds < 1 {
		errs = append(errs, fmt.Errorf("rounds must be at least 1, got %d", c.Rounds))
	}

	return errors.Join(errs...)
}

// RunOptions converts a valid Config into run options. The caller adds
// the filesystem, clock, and logger.
func (c *Config) RunOptions() (fwg.Options, error) {
	if err := c.Validate(); err != nil {
		return fwg.Options{}, err
	}

	options := fwg.Options{
		Anchor:           filepath.Clean(c.Anchor),
		Shape:            c.Shape,
		Format:           c.Format,
		Elapsed:          c.Elapsed,
		MaxOperations:    c.MaxOperations,
		Seed:             c.Seed,
		ProgressInterval: c.ProgressInterval,
	}
	for _, operation := range c.Operations {
		kind, _ := workload.ParseKind(operation.Operation)
		options.Operations = append(options.Operations, fwg.OperationSpec{
			Kind:    kind,
			Threads: operation.Threads,
			Random:  operation.Selection == SelectionRandom,
		})
	}
	return options, nil
}
