// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package cache memoizes permission decisions in Redis.
//
// Entries are keyed by (community version, user, action, target). Bumping a
// community's version with Invalidate orphans every entry for that community;
// orphaned entries expire with their TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"golang.org/x/sync/singleflight"

	"github.com/meriter/meriter/internal/decision/types"
)

// DefaultTTL bounds how long a cached decision survives without invalidation.
const DefaultTTL = time.Minute

const keyPrefix = "meriter:decision"

// Decider is the uncached permission check.
type Decider interface {
	CanPerformAction(ctx context.Context, req types.Request) (types.Decision, error)
}

// Option configures a CachedEngine.
type Option func(*CachedEngine)

// WithTTL sets the entry TTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *CachedEngine) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CachedEngine) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// CachedEngine wraps a Decider with a Redis cache. Concurrent identical
// requests share one evaluation. Redis failures degrade to uncached
// evaluation; they never change a decision.
type CachedEngine struct {
	next   Decider
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// New creates a CachedEngine. A nil client disables caching but keeps
// request deduplication. next may be nil when the handle is only used to
// invalidate.
func New(next Decider, client redis.UniversalClient, opts ...Option) *CachedEngine {
	c := &CachedEngine{
		next:   next,
		client: client,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// entry is the stored form of a decision.
type entry struct {
	Allowed bool   `json:"allowed"`
	Code    string `json:"code"`
	Reason  string `json:"reason"`
}

func (e entry) decision() types.Decision {
	if e.Allowed {
		return types.Allowed(e.Code, e.Reason)
	}
	return types.Denied(e.Code, e.Reason)
}

// CanPerformAction returns the cached decision for req, evaluating and
// storing it on a miss. Errors from the wrapped Decider are returned and
// never cached.
func (c *CachedEngine) CanPerformAction(ctx context.Context, req types.Request) (types.Decision, error) {
	if err := req.Validate(); err != nil {
		return c.next.CanPerformAction(ctx, req)
	}
	uncached := func(ctx context.Context) (types.Decision, error) {
		return c.next.CanPerformAction(ctx, req)
	}
	if c.client == nil {
		return c.shared(ctx, flightKey(req), uncached)
	}

	key, err := c.key(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "decision cache unavailable", "error", err)
		cacheRequests.WithLabelValues(resultError).Inc()
		return c.shared(ctx, flightKey(req), uncached)
	}

	if d, ok := c.load(ctx, key); ok {
		cacheRequests.WithLabelValues(resultHit).Inc()
		return d, nil
	}
	cacheRequests.WithLabelValues(resultMiss).Inc()

	return c.shared(ctx, key, func(ctx context.Context) (types.Decision, error) {
		d, err := c.next.CanPerformAction(ctx, req)
		if err != nil {
			return d, err
		}
		c.store(ctx, key, d)
		return d, nil
	})
}

// Invalidate bumps the version of communityID, orphaning its cached decisions.
func (c *CachedEngine) Invalidate(ctx context.Context, communityID string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, versionKey(communityID)).Err(); err != nil {
		return oops.In("cache").
			With("community_id", communityID).
			Wrapf(err, "bump decision cache version")
	}
	invalidations.Inc()
	return nil
}

// Version returns the current version of communityID. A missing version is 0.
func (c *CachedEngine) Version(ctx context.Context, communityID string) (int64, error) {
	if c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(communityID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, oops.In("cache").
			With("community_id", communityID).
			Wrapf(err, "read decision cache version")
	}
	return ver, nil
}

func (c *CachedEngine) key(ctx context.Context, req types.Request) (string, error) {
	ver, err := c.Version(ctx, req.CommunityID)
	if err != nil {
		return "", err
	}
	return strings.Join([]string{
		keyPrefix,
		normalize(req.CommunityID),
		"v" + strconv.FormatInt(ver, 10),
		flightKey(req),
	}, ":"), nil
}

func (c *CachedEngine) load(ctx context.Context, key string) (types.Decision, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "decision cache read failed", "key", key, "error", err)
		}
		return types.Decision{}, false
	}
	var e entry
	if err := json.Unmarshal(payload, &e); err != nil {
		c.logger.WarnContext(ctx, "decision cache entry corrupt", "key", key, "error", err)
		return types.Decision{}, false
	}
	return e.decision(), true
}

func (c *CachedEngine) store(ctx context.Context, key string, d types.Decision) {
	raw, err := json.Marshal(entry{Allowed: d.IsAllowed(), Code: d.Code, Reason: d.Reason})
	if err != nil {
		c.logger.WarnContext(ctx, "decision cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "decision cache write failed", "key", key, "error", err)
	}
}

// shared collapses concurrent calls for key into one evaluation. The caller's
// ctx bounds only its own wait.
func (c *CachedEngine) shared(ctx context.Context, key string, fn func(context.Context) (types.Decision, error)) (types.Decision, error) {
	results := c.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return types.Denied(types.CodeLookupFailed, "request cancelled"), oops.In("cache").Wrapf(ctx.Err(), "waiting for shared decision")
	case res := <-results:
		if res.Shared {
			sharedFlights.Inc()
		}
		d, _ := res.Val.(types.Decision)
		return d, res.Err
	}
}

// flightKey identifies a request independently of community versions.
func flightKey(req types.Request) string {
	target := req.ResolvedTarget()
	return strings.Join([]string{
		normalize(req.CommunityID),
		normalize(req.UserID),
		string(req.Action),
		string(target.Kind),
		normalize(target.ID),
	}, ":")
}

func versionKey(communityID string) string {
	return keyPrefix + ":version:" + normalize(communityID)
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
