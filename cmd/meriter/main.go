// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package main is the meriter command: an operator tool for inspecting rule
// tables, evaluating decisions against fixtures or a live database, and
// managing the fact schema and decision cache.
package main

import (
	"fmt"
	"os"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
