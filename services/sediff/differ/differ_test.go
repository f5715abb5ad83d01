// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package differ

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/sediff/services/sediff/cache"
	"github.com/AleutianAI/sediff/services/sediff/entropy"
	"github.com/AleutianAI/sediff/services/sediff/hashtree"
)

const oldSource = `package server

func Start() {
	listen()
}

func Stop() {
	drain()
}
`

const newSource = `package server

func Start() {
	listen()
	warmCaches()
}

func Stop() {
	drain()
}
`

func newDiffer(t *testing.T, opts Options) *Differ {
	t.Helper()
	d, err := New(opts)
	require.NoError(t, err)
	return d
}

func TestDiffFile_IdenticalInputs(t *testing.T) {
	d := newDiffer(t, Options{})

	result, err := d.DiffFile(context.Background(), FilePair{
		Path:       "server.go",
		OldContent: []byte(oldSource),
		NewContent: []byte(oldSource),
	})
	require.NoError(t, err)

	assert.Empty(t, result.Changes)
	assert.Zero(t, result.Stats.Added)
	assert.Zero(t, result.Stats.Removed)
	assert.Zero(t, result.Stats.Modified)
	assert.Zero(t, result.Stats.TotalEntropy)
	assert.Equal(t, entropy.LevelMinimal, result.Stats.Level)
	assert.Positive(t, result.Stats.Unchanged)
}

func TestDiffFile_ModifiedFunction(t *testing.T) {
	d := newDiffer(t, Options{})

	result, err := d.DiffFile(context.Background(), FilePair{
		Path:       "server.go",
		OldContent: []byte(oldSource),
		NewContent: []byte(newSource),
	})
	require.NoError(t, err)

	require.Len(t, result.Changes, 1)
	change := result.Changes[0]
	assert.Equal(t, hashtree.ChangeModified, change.Operation)
	assert.Equal(t, "server.go:Start", change.Path)
	assert.True(t, change.Exported)
	assert.Positive(t, change.Entropy.Raw)
	assert.NotEmpty(t, change.Description)

	assert.Equal(t, 1, result.Stats.Modified)
	assert.Positive(t, result.Stats.Unchanged, "Stop and the package clause are untouched")
}

func TestDiffFile_NewFile(t *testing.T) {
	d := newDiffer(t, Options{})

	result, err := d.DiffFile(context.Background(), FilePair{
		Path:       "server.go",
		NewContent: []byte(oldSource),
	})
	require.NoError(t, err)

	assert.Positive(t, result.Stats.Added)
	assert.Zero(t, result.Stats.Removed)
	for _, change := range result.Changes {
		assert.Equal(t, hashtree.ChangeAdded, change.Operation)
	}
}

func TestDiffFile_DeletedFile(t *testing.T) {
	d := newDiffer(t, Options{})

	result, err := d.DiffFile(context.Background(), FilePair{
		Path:       "server.go",
		OldContent: []byte(oldSource),
	})
	require.NoError(t, err)

	assert.Positive(t, result.Stats.Removed)
	assert.Zero(t, result.Stats.Added)
	for _, change := range result.Changes {
		assert.Equal(t, hashtree.ChangeRemoved, change.Operation)
		assert.Negative(t, change.Entropy.Components.Propagation)
	}
}

func TestDiffFile_UnsupportedLanguage(t *testing.T) {
	d := newDiffer(t, Options{})

	_, err := d.DiffFile(context.Background(), FilePair{
		Path:       "notes.txt",
		OldContent: []byte("hello"),
		NewContent: []byte("world"),
	})
	require.Error(t, err)
}

func TestDiffFile_Deterministic(t *testing.T) {
	d := newDiffer(t, Options{})
	pair := FilePair{
		Path:       "server.go",
		OldContent: []byte(oldSource),
		NewContent: []byte(newSource),
	}

	first, err := d.DiffFile(context.Background(), pair)
	require.NoError(t, err)
	second, err := d.DiffFile(context.Background(), pair)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestDiffFile_UsesParseCache(t *testing.T) {
	parseCache, err := cache.NewParseCache(16)
	require.NoError(t, err)

	d := newDiffer(t, Options{Cache: parseCache})
	pair := FilePair{
		Path:       "server.go",
		OldContent: []byte(oldSource),
		NewContent: []byte(newSource),
	}

	_, err = d.DiffFile(context.Background(), pair)
	require.NoError(t, err)
	_, err = d.DiffFile(context.Background(), pair)
	require.NoError(t, err)

	hits, _ := parseCache.Stats()
	assert.Positive(t, hits, "second pass must reuse cached parse results")
}

func TestDiff_Batch(t *testing.T) {
	d := newDiffer(t, Options{Workers: 2})

	result, err := d.Diff(context.Background(), []FilePair{
		{Path: "a.go", OldContent: []byte(oldSource), NewContent: []byte(newSource)},
		{Path: "b.go", OldContent: []byte(oldSource), NewContent: []byte(oldSource)},
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 2)
	// Files are sorted by path regardless of completion order.
	assert.Equal(t, "a.go", result.Files[0].Path)
	assert.Equal(t, "b.go", result.Files[1].Path)

	assert.Equal(t, 2, result.Summary.TotalFiles)
	assert.Equal(t, 1, result.Summary.TotalChanges)
	assert.Equal(t, 1, result.Summary.ByOperation[hashtree.ChangeModified])
}

func TestDiff_PartialFailure(t *testing.T) {
	d := newDiffer(t, Options{})

	result, err := d.Diff(context.Background(), []FilePair{
		{Path: "good.go", OldContent: []byte(oldSource), NewContent: []byte(newSource)},
		{Path: "bad.txt", OldContent: []byte("x"), NewContent: []byte("y")},
	})
	require.NoError(t, err, "one bad file must not abort the batch")

	require.Len(t, result.Files, 1)
	assert.Equal(t, "good.go", result.Files[0].Path)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "bad.txt", result.Failures[0].Path)
	assert.NotEmpty(t, result.Failures[0].Error)

	// Failed files are excluded from aggregates.
	assert.Equal(t, 1, result.Summary.TotalFiles)
}

func TestDiff_Cancellation(t *testing.T) {
	d := newDiffer(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Diff(ctx, []FilePair{
		{Path: "a.go", OldContent: []byte(oldSource), NewContent: []byte(newSource)},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiff_Metadata(t *testing.T) {
	d := newDiffer(t, Options{})

	result, err := d.Diff(context.Background(), []FilePair{
		{Path: "a.go", OldContent: []byte(oldSource), NewContent: []byte(newSource)},
	})
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, result.Metadata.FormatVersion)
	assert.Equal(t, AlgorithmID, result.Metadata.Algorithm)
	assert.NotEmpty(t, result.Metadata.ID)
	assert.False(t, result.Metadata.GeneratedAt.IsZero())
	assert.GreaterOrEqual(t, result.Metadata.ComputeTimeMs, int64(0))
}

func TestDiff_ReviewSummary(t *testing.T) {
	d := newDiffer(t, Options{})

	result, err := d.Diff(context.Background(), []FilePair{
		{Path: "a.go", OldContent: []byte(oldSource), NewContent: []byte(newSource)},
	})
	require.NoError(t, err)

	assert.Equal(t, result.Summary.TotalChanges, result.Review.TotalChanges)
	for _, level := range entropy.AllLevels() {
		_, ok := result.Review.LevelHistogram[level]
		assert.True(t, ok)
	}
}

func TestDiffFile_SameNamedMethodsIdenticalInputs(t *testing.T) {
	source := `package kinds

type Reader struct{}

type Writer struct{}

func (r Reader) Close() error { return nil }

func (w *Writer) Close() error { return nil }
`

	d := newDiffer(t, Options{})

	result, err := d.DiffFile(context.Background(), FilePair{
		Path:       "kinds.go",
		OldContent: []byte(source),
		NewContent: []byte(source),
	})
	require.NoError(t, err)

	// Same-named methods on different receivers stay distinct; a file
	// diffed against itself never reports a change.
	assert.Empty(t, result.Changes)
	assert.Zero(t, result.Stats.Modified)
	assert.Zero(t, result.Stats.Suppressed)
	assert.Zero(t, result.Stats.TotalEntropy)
}

func TestDiff_SummaryIncludesSuppressedEntropy(t *testing.T) {
	// A threshold above every raw value suppresses the whole change
	// list, but the batch aggregates still cover the scored set.
	d := newDiffer(t, Options{EntropyThreshold: 1000})

	result, err := d.Diff(context.Background(), []FilePair{
		{Path: "server.go", OldContent: []byte(oldSource), NewContent: []byte(newSource)},
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	file := result.Files[0]
	assert.Empty(t, file.Changes)
	assert.Positive(t, file.Stats.Suppressed)
	assert.Positive(t, file.Stats.TotalEntropy)

	assert.InDelta(t, file.Stats.TotalEntropy, result.Summary.TotalEntropy, 1e-9)
	assert.InDelta(t, file.Stats.MeanEntropy, result.Summary.AverageEntropy, 1e-9)
	assert.Equal(t, 1, result.Summary.TotalChanges)
}

func TestDiffFile_PropagationSummary(t *testing.T) {
	oldPy := `class Cache:
    def get(self, key):
        return None

    def evict(self):
        pass
`
	newPy := `class Cache:
    def get(self, key):
        return self.store.get(key)

    def evict(self):
        pass
`

	d := newDiffer(t, Options{})

	result, err := d.DiffFile(context.Background(), FilePair{
		Path:       "cache.py",
		OldContent: []byte(oldPy),
		NewContent: []byte(newPy),
	})
	require.NoError(t, err)

	// Only get changed; its enclosing class is reached by propagation
	// rather than reported as a change source of its own.
	assert.Equal(t, 1, result.Propagation.AffectedCount)
	assert.Equal(t, 1, result.Propagation.MaxDepth)
	assert.False(t, result.Propagation.Cascading)
	assert.Positive(t, result.Propagation.Score)
	assert.LessOrEqual(t, result.Propagation.Score, 1.0)
}

func TestDiffFile_PropagationEmptyForIdenticalInputs(t *testing.T) {
	d := newDiffer(t, Options{})

	result, err := d.DiffFile(context.Background(), FilePair{
		Path:       "server.go",
		OldContent: []byte(oldSource),
		NewContent: []byte(oldSource),
	})
	require.NoError(t, err)

	assert.Zero(t, result.Propagation.AffectedCount)
	assert.Zero(t, result.Propagation.Score)
}
