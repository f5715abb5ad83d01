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
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sourcegraph/go-diff/diff"
)

// GitProvider reads repository data in-process via go-git.
//
// Thread Safety:
//
//	Safe for concurrent reads; go-git repositories support concurrent
//	object access.
type GitProvider struct {
	repo *git.Repository
}

// Open opens the repository at path (the directory containing .git).
func Open(path string) (*GitProvider, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("vcs: open repository %s: %w", path, err)
	}
	return &GitProvider{repo: repo}, nil
}

// OpenWithDetection walks upward from path until a repository root is
// found.
func OpenWithDetection(path string) (*GitProvider, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vcs: open repository %s: %w", path, err)
	}
	return &GitProvider{repo: repo}, nil
}

// commitAt resolves a revision expression (branch, tag, hash, HEAD~n)
// to a commit.
func (p *GitProvider) commitAt(revision string) (*object.Commit, error) {
	hash, err := p.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, revision)
	}
	commit, err := p.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRevisionNotFound, revision)
	}
	return commit, nil
}

// FileAtRevision returns the content of path at the given revision.
//
// Returns ErrFileNotFound when the path does not exist there.
func (p *GitProvider) FileAtRevision(ctx context.Context, path, revision string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	commit, err := p.commitAt(revision)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}

	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s@%s", ErrFileNotFound, path, revision)
		}
		return nil, err
	}

	contents, err := file.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(contents), nil
}

// ChangedPaths lists the paths that differ between two revisions.
//
// # Outputs
//
//   - []ChangedPath: Sorted by path, with per-file add/delete line
//     counts. Empty (non-nil) when the revisions match.
func (p *GitProvider) ChangedPaths(ctx context.Context, from, to string) ([]ChangedPath, error) {
	patch, err := p.patchBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	// Line counts keyed by path, from the patch stats.
	counts := make(map[string]struct{ add, del int })
	for _, stat := range patch.Stats() {
		counts[stat.Name] = struct{ add, del int }{stat.Addition, stat.Deletion}
	}

	changed := make([]ChangedPath, 0)
	for _, filePatch := range patch.FilePatches() {
		fromFile, toFile := filePatch.Files()

		entry := ChangedPath{}
		switch {
		case fromFile == nil && toFile != nil:
			entry.Path = toFile.Path()
			entry.Status = StatusAdded
		case fromFile != nil && toFile == nil:
			entry.Path = fromFile.Path()
			entry.Status = StatusDeleted
		case fromFile != nil && toFile != nil:
			entry.Path = toFile.Path()
			entry.Status = StatusModified
			if fromFile.Path() != toFile.Path() {
				entry.OldPath = fromFile.Path()
			}
		default:
			continue
		}

		if count, ok := counts[entry.Path]; ok {
			entry.Additions = count.add
			entry.Deletions = count.del
		}
		changed = append(changed, entry)
	}

	sort.Slice(changed, func(i, j int) bool { return changed[i].Path < changed[j].Path })
	return changed, nil
}

// Hunks returns the raw textual hunks for one path between two
// revisions.
//
// The unified diff is rendered by go-git and parsed with go-diff, so
// hunk boundaries match what a reviewer sees in a terminal diff.
func (p *GitProvider) Hunks(ctx context.Context, path, from, to string) ([]Hunk, error) {
	patch, err := p.patchBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(patch.String()))
	if err != nil {
		return nil, fmt.Errorf("vcs: parse diff: %w", err)
	}

	hunks := make([]Hunk, 0)
	for _, fileDiff := range fileDiffs {
		if fileDiff.NewName != "b/"+path && fileDiff.OrigName != "a/"+path {
			continue
		}
		for _, h := range fileDiff.Hunks {
			hunks = append(hunks, Hunk{
				OldStart: int(h.OrigStartLine),
				OldLines: int(h.OrigLines),
				NewStart: int(h.NewStartLine),
				NewLines: int(h.NewLines),
				Body:     h.Body,
			})
		}
	}
	return hunks, nil
}

// patchBetween renders the patch from one revision to another.
func (p *GitProvider) patchBetween(ctx context.Context, from, to string) (*object.Patch, error) {
	fromCommit, err := p.commitAt(from)
	if err != nil {
		return nil, err
	}
	toCommit, err := p.commitAt(to)
	if err != nil {
		return nil, err
	}
	patch, err := fromCommit.PatchContext(ctx, toCommit)
	if err != nil {
		return nil, fmt.Errorf("vcs: diff %s..%s: %w", from, to, err)
	}
	return patch, nil
}

var _ Provider = (*GitProvider)(nil)
