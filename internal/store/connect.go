// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package store

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Backoff bounds for Connect.
const (
	connectBaseDelay = 100 * time.Millisecond
	connectMaxDelay  = 5 * time.Second
)

// Connect opens a pool for url and waits until it answers a ping. Connection
// failures are retried with capped exponential backoff until timeout elapses;
// any other failure, such as bad credentials, returns at once.
func Connect(ctx context.Context, url string, timeout time.Duration, logger *slog.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, oops.Code(ErrCodeConnectFailed).With("operation", "parse database url").Wrap(err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code(ErrCodeConnectFailed).With("operation", "create pool").Wrap(err)
	}
	if err := waitReady(ctx, pool.Ping, newBackoff(timeout), logger); err != nil {
		pool.Close()
		return nil, err
	}
	logger.InfoContext(ctx, "connected to database", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return pool, nil
}

func newBackoff(timeout time.Duration) retry.Backoff {
	b := retry.NewExponential(connectBaseDelay)
	b = retry.WithCappedDuration(connectMaxDelay, b)
	return retry.WithMaxDuration(timeout, b)
}

// waitReady pings until success, a non-retryable error, or backoff exhaustion.
func waitReady(ctx context.Context, ping func(context.Context) error, backoff retry.Backoff, logger *slog.Logger) error {
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := ping(ctx)
		if err == nil {
			return nil
		}
		if Retryable(err) {
			logger.WarnContext(ctx, "database not ready, retrying", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return oops.Code(ErrCodeConnectFailed).With("attempts", attempt).Wrapf(err, "database unreachable")
	}
	return nil
}

// Retryable reports whether err is a transient connection failure. Server
// errors qualify only in the connection exception class or when the server
// is starting up or out of connection slots.
func Retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.CannotConnectNow ||
			pgErr.Code == pgerrcode.TooManyConnections
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
