// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meriter/meriter/internal/store"
)

// Migrator is the part of store.Migrator the migrate command drives.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Pending() ([]uint, error)
	Close() error
}

// Deps contains injectable dependencies for the CLI.
// Nil fields use their default implementations.
type Deps struct {
	// ConnectDB opens the fact database.
	// Default: store.Connect
	ConnectDB func(ctx context.Context, url string, timeout time.Duration, logger *slog.Logger) (*pgxpool.Pool, error)

	// NewRedis creates the decision cache client.
	// Default: redis.NewClient
	NewRedis func(addr string) redis.UniversalClient

	// NewMigrator creates a schema migrator.
	// Default: store.NewMigrator
	NewMigrator func(url string) (Migrator, error)
}

func (d *Deps) withDefaults() *Deps {
	out := &Deps{}
	if d != nil {
		*out = *d
	}
	if out.ConnectDB == nil {
		out.ConnectDB = store.Connect
	}
	if out.NewRedis == nil {
		out.NewRedis = func(addr string) redis.UniversalClient {
			return redis.NewClient(&redis.Options{Addr: addr})
		}
	}
	if out.NewMigrator == nil {
		out.NewMigrator = func(url string) (Migrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	return out
}
