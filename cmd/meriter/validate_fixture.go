// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/meriter/meriter/internal/fixture"
	"github.com/meriter/meriter/pkg/errutil"
)

func newValidateFixtureCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-fixture <file>...",
		Short: "Validate fixture files without evaluating anything",
		Long: `Validates fixture files against the fixture schema and checks that every
reference between users, communities and resources resolves.
Exits with code 0 when every file is valid, non-zero otherwise.

Useful in CI pipelines to catch broken scenarios early:
  meriter validate-fixture testdata/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidateFixture(cmd, args)
		},
	}
}

func (a *app) runValidateFixture(cmd *cobra.Command, paths []string) error {
	var failed int
	for _, path := range paths {
		f, err := fixture.LoadFile(path)
		if err != nil {
			failed++
			errutil.LogErrorContext(cmd.Context(), a.logger, "fixture invalid", oops.With("path", path).Wrap(err))
			fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%s, %d resources)\n", path, f.Name, len(f.ResourceIDs))
	}
	if failed > 0 {
		return oops.Code(fixture.ErrCodeInvalid).
			With("failed", failed).
			Errorf("validation failed: %d of %d fixtures invalid", failed, len(paths))
	}
	a.logger.InfoContext(cmd.Context(), "all fixtures valid", "count", len(paths))
	return nil
}
