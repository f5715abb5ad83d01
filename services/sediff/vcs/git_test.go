// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fileV1 = `package main

func main() {
	run()
}
`

const fileV2 = `package main

func main() {
	setup()
	run()
}
`

// testRepo builds a repository with two commits touching main.go and
// returns the provider plus both commit hashes.
func testRepo(t *testing.T) (*GitProvider, string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	worktree, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(content string) string {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(content), 0644))
		_, err := worktree.Add("main.go")
		require.NoError(t, err)
		hash, err := worktree.Commit("update main.go", &git.CommitOptions{
			Author: &object.Signature{
				Name:  "tester",
				Email: "tester@example.com",
				When:  time.Now(),
			},
		})
		require.NoError(t, err)
		return hash.String()
	}

	first := commit(fileV1)
	second := commit(fileV2)

	provider, err := Open(dir)
	require.NoError(t, err)
	return provider, first, second
}

func TestFileAtRevision(t *testing.T) {
	provider, first, second := testRepo(t)
	ctx := context.Background()

	content, err := provider.FileAtRevision(ctx, "main.go", first)
	require.NoError(t, err)
	assert.Equal(t, fileV1, string(content))

	content, err = provider.FileAtRevision(ctx, "main.go", second)
	require.NoError(t, err)
	assert.Equal(t, fileV2, string(content))
}

func TestFileAtRevision_NotFound(t *testing.T) {
	provider, first, _ := testRepo(t)

	_, err := provider.FileAtRevision(context.Background(), "missing.go", first)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = provider.FileAtRevision(context.Background(), "main.go", "no-such-branch")
	assert.ErrorIs(t, err, ErrRevisionNotFound)
}

func TestChangedPaths(t *testing.T) {
	provider, first, second := testRepo(t)

	changed, err := provider.ChangedPaths(context.Background(), first, second)
	require.NoError(t, err)

	require.Len(t, changed, 1)
	assert.Equal(t, "main.go", changed[0].Path)
	assert.Equal(t, StatusModified, changed[0].Status)
	assert.Equal(t, 1, changed[0].Additions)
	assert.Zero(t, changed[0].Deletions)
}

func TestChangedPaths_Identical(t *testing.T) {
	provider, first, _ := testRepo(t)

	changed, err := provider.ChangedPaths(context.Background(), first, first)
	require.NoError(t, err)
	assert.NotNil(t, changed)
	assert.Empty(t, changed)
}

func TestHunks(t *testing.T) {
	provider, first, second := testRepo(t)

	hunks, err := provider.Hunks(context.Background(), "main.go", first, second)
	require.NoError(t, err)

	require.Len(t, hunks, 1)
	assert.Positive(t, hunks[0].NewLines)
	assert.Contains(t, string(hunks[0].Body), "setup()")
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}
