// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// tree.go provides a Valkey-backed cache for the rendered category tree.
// The tree is rebuilt from the flat table on every read; caching the JSON
// lets the navigation sidebar skip the DB query and tree construction on
// most requests. Any category mutation or import invalidates it.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// treeKey is the Valkey key for the cached category tree JSON.
	treeKey = "categorytree"

	// DefaultTreeTTL is how long the rendered tree stays cached.
	DefaultTreeTTL = 5 * time.Minute
)

// TreeCache manages category-tree JSON caching in Valkey.
type TreeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTreeCache creates a new tree cache backed by the given Valkey client.
func NewTreeCache(client *redis.Client, ttl time.Duration) *TreeCache {
	if ttl == 0 {
		ttl = DefaultTreeTTL
	}
	return &TreeCache{client: client, ttl: ttl}
}

// Get retrieves the cached tree JSON. Returns false on miss.
func (tc *TreeCache) Get(ctx context.Context) ([]byte, bool) {
	val, err := tc.client.Get(ctx, treeKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("tree cache get error", "error", err)
		return nil, false
	}
	slog.Debug("tree cache hit")
	return val, true
}

// Set stores the rendered tree JSON with the configured TTL.
func (tc *TreeCache) Set(ctx context.Context, tree []byte) {
	if err := tc.client.Set(ctx, treeKey, tree, tc.ttl).Err(); err != nil {
		slog.Warn("tree cache set error", "error", err)
	}
}

// Invalidate removes the cached tree. Called after every category
// mutation and after each import run.
func (tc *TreeCache) Invalidate(ctx context.Context) {
	if err := tc.client.Del(ctx, treeKey).Err(); err != nil {
		slog.Warn("tree cache invalidate error", "error", err)
	}
	slog.Debug("tree cache invalidated")
}
