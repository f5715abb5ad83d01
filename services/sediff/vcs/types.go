// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package vcs supplies file content and change lists from version
// control.
//
// The diff core consumes this data as plain values; nothing here is
// ever invoked as a subprocess, repositories are read in-process via
// go-git.
package vcs

import (
	"context"
	"errors"
)

// Sentinel errors for repository access.
var (
	// ErrRevisionNotFound is returned when a revision cannot be
	// resolved.
	ErrRevisionNotFound = errors.New("vcs: revision not found")

	// ErrFileNotFound is returned when a path does not exist at the
	// requested revision.
	ErrFileNotFound = errors.New("vcs: file not found at revision")
)

// ChangeStatus classifies one changed path between two revisions.
type ChangeStatus string

const (
	StatusAdded    ChangeStatus = "added"
	StatusDeleted  ChangeStatus = "deleted"
	StatusModified ChangeStatus = "modified"
)

// ChangedPath is one entry in a revision-to-revision change list.
type ChangedPath struct {
	// Path is the file path at the newer revision (or the older one
	// for deletions).
	Path string `json:"path"`

	// OldPath is the path at the older revision when it differs
	// (renames); empty otherwise.
	OldPath string `json:"old_path,omitempty"`

	// Status classifies the change.
	Status ChangeStatus `json:"status"`

	// Additions is the number of added lines.
	Additions int `json:"additions"`

	// Deletions is the number of deleted lines.
	Deletions int `json:"deletions"`
}

// Hunk is one contiguous region of textual change.
type Hunk struct {
	// OldStart and OldLines locate the region in the old version.
	OldStart int `json:"old_start"`
	OldLines int `json:"old_lines"`

	// NewStart and NewLines locate the region in the new version.
	NewStart int `json:"new_start"`
	NewLines int `json:"new_lines"`

	// Body is the raw hunk text including +/-/space prefixes.
	Body []byte `json:"body"`
}

// Provider supplies repository data to the analysis pipeline.
type Provider interface {
	// FileAtRevision returns the content of path at the given
	// revision.
	FileAtRevision(ctx context.Context, path, revision string) ([]byte, error)

	// ChangedPaths lists the paths that differ between two revisions
	// with per-file add and delete counts.
	ChangedPaths(ctx context.Context, from, to string) ([]ChangedPath, error)

	// Hunks returns the raw textual hunks for one path between two
	// revisions.
	Hunks(ctx context.Context, path, from, to string) ([]Hunk, error)
}
