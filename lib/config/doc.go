// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads dirload workload definitions from YAML.
//
// A workload is loaded from a single file named by either the
// DIRLOAD_CONFIG environment variable (via [Load]) or the --config flag
// (via [LoadFile]). There is no discovery and no search path. Values the
// file leaves out come from [Default]; command-line flags may override
// individual fields afterwards.
//
//	anchor: ${HOME}/dirload
//	shape:
//	  depth: 3
//	  width: 10
//	format: false
//	operations:
//	  - operation: mkdir
//	    threads: 16
//	    selection: random
//	  - operation: rmdir
//	    threads: 4
//	    selection: random
//	elapsed: 60s
//	progress_interval: 5s
//	rounds: 3
//
// The anchor path supports ${VAR} and ${VAR:-default} expansion. No
// other environment variables override config values.
//
// [Config.Validate] reports every problem at once with errors.Join.
package config
