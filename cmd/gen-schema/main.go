// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Command gen-schema generates the fixture JSON Schema file.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samber/oops"

	"github.com/meriter/meriter/internal/fixture"
)

func main() {
	outPath := flag.String("out", filepath.Join("schemas", "fixture.schema.json"), "output path")
	check := flag.Bool("check", false, "fail if the file on disk is out of date instead of writing it")
	flag.Parse()

	if err := run(*outPath, *check, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(outPath string, check bool, w io.Writer) error {
	schema, err := fixture.GenerateSchema()
	if err != nil {
		return err
	}
	schema = append(schema, '\n')

	if check {
		current, err := os.ReadFile(outPath) //nolint:gosec // path comes from the operator
		if err != nil {
			return oops.With("path", outPath).Wrapf(err, "read schema")
		}
		if !bytes.Equal(current, schema) {
			return oops.With("path", outPath).Errorf("%s is out of date; run gen-schema", outPath)
		}
		fmt.Fprintf(w, "%s is up to date\n", outPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return oops.With("path", outPath).Wrapf(err, "create directory")
	}
	if err := os.WriteFile(outPath, schema, 0o600); err != nil {
		return oops.With("path", outPath).Wrapf(err, "write schema")
	}
	fmt.Fprintf(w, "Generated %s\n", outPath)
	return nil
}
