// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides an LRU cache for parse results keyed by
// content hash.
//
// Repository scans revisit the same blob at adjacent revisions
// constantly; since parse output is a pure function of file content,
// caching by content hash makes the second visit free.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/AleutianAI/sediff/services/sediff/ast"
)

// DefaultSize is the default number of parse results retained.
const DefaultSize = 512

// ParseCache is a thread-safe LRU cache of parse results.
//
// Keys are SHA256 content hashes, so two files with identical bytes
// share one entry regardless of path. Cached results must be treated
// as immutable by callers.
type ParseCache struct {
	entries *lru.Cache[string, *ast.ParseResult]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewParseCache creates a cache holding up to size results. Sizes
// below 1 fall back to DefaultSize.
func NewParseCache(size int) (*ParseCache, error) {
	if size < 1 {
		size = DefaultSize
	}
	entries, err := lru.New[string, *ast.ParseResult](size)
	if err != nil {
		return nil, err
	}
	return &ParseCache{entries: entries}, nil
}

// Key returns the cache key for raw file content.
func Key(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for a content key.
func (c *ParseCache) Get(key string) (*ast.ParseResult, bool) {
	result, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return result, ok
}

// Put stores a parse result under a content key.
func (c *ParseCache) Put(key string, result *ast.ParseResult) {
	if key == "" || result == nil {
		return
	}
	c.entries.Add(key, result)
}

// Len returns the number of cached results.
func (c *ParseCache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached result.
func (c *ParseCache) Purge() {
	c.entries.Purge()
}

// Stats returns cumulative hit and miss counts.
func (c *ParseCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
