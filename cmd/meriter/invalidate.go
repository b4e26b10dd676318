// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package main

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/meriter/meriter/internal/config"
	"github.com/meriter/meriter/internal/decision/cache"
)

func newInvalidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <community>...",
		Short: "Drop cached decisions for communities",
		Long: `Bumps the decision cache version of each community so that cached
decisions made before a rule, role or settings change are no longer served.
Requires a Redis address (--redis-addr or redis.addr in the config file).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Redis.Addr == "" {
				return oops.Code(config.ErrCodeInvalid).Errorf("a redis address is required to invalidate decisions")
			}
			client := a.deps.NewRedis(a.cfg.Redis.Addr)
			defer func() { _ = client.Close() }()

			c := cache.New(nil, client, cache.WithLogger(a.logger))
			ctx := cmd.Context()
			for _, id := range args {
				if err := c.Invalidate(ctx, id); err != nil {
					return err
				}
				version, err := c.Version(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: version %d\n", id, version)
			}
			return nil
		},
	}
}
