// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package hashtree derives a content-addressed Merkle overlay from a
// semantic forest and compares two overlays for change detection.
//
// # Description
//
// Every HashNode carries three digests: a structural hash (kind, ordered
// child-kind sequence, subtree depth), a content hash (inherited from the
// semantic node), and a combined hash folding in each child's combined
// hash in order. The combined hash changes if and only if content or
// structure anywhere in the subtree changes, which lets comparison skip
// entire unchanged subtrees in O(1).
//
// # Thread Safety
//
// Hash trees are built once and read-only thereafter; all comparison
// functions are safe for concurrent use over built trees.
package hashtree

import (
	"time"

	"github.com/AleutianAI/sediff/services/sediff/ast"
)

// HashNode is the Merkle overlay over one SemanticNode.
//
// Built bottom-up (post-order) once per semantic tree; read-only
// thereafter.
type HashNode struct {
	// Node is the underlying semantic node.
	Node *ast.SemanticNode `json:"node"`

	// StructuralHash digests the node's kind, its ordered child-kind
	// sequence, and the subtree depth. Independent of content.
	StructuralHash string `json:"structural_hash"`

	// ContentHash is inherited from the semantic node.
	ContentHash string `json:"content_hash"`

	// CombinedHash digests the structural hash, the content hash, and
	// each child's combined hash in original order.
	CombinedHash string `json:"combined_hash"`

	// Depth is the height of the subtree rooted here (1 for a leaf).
	Depth int `json:"depth"`

	// Children are the owned child hash nodes in source order.
	Children []*HashNode `json:"children,omitempty"`
}

// Identity returns the composite identity of the underlying semantic
// node. Comparison is keyed on this, never on source position.
func (h *HashNode) Identity() string {
	return h.Node.Identity()
}

// IsLeaf reports whether the node has no children.
func (h *HashNode) IsLeaf() bool {
	return len(h.Children) == 0
}

// BuildStats summarizes one Build call.
type BuildStats struct {
	// NodeCount is the total number of hash nodes built.
	NodeCount int `json:"node_count"`

	// MaxDepth is the deepest subtree height observed.
	MaxDepth int `json:"max_depth"`

	// LeafCount is the number of childless nodes.
	LeafCount int `json:"leaf_count"`

	// BuildTime is how long the build took.
	BuildTime time.Duration `json:"build_time_ns"`
}

// ChangeKind classifies one node transition between two versions.
type ChangeKind string

const (
	// ChangeAdded means the node exists only in the new version.
	ChangeAdded ChangeKind = "added"

	// ChangeRemoved means the node exists only in the old version.
	ChangeRemoved ChangeKind = "removed"

	// ChangeModified means the node exists in both versions with a
	// differing combined hash.
	ChangeModified ChangeKind = "modified"

	// ChangeUnchanged means the node exists in both versions with an
	// equal combined hash.
	ChangeUnchanged ChangeKind = "unchanged"
)

// ModifiedPair holds the two versions of a node that changed.
type ModifiedPair struct {
	Old *HashNode `json:"old"`
	New *HashNode `json:"new"`
}

// Comparison partitions the nodes of two hash forests by change kind.
//
// Matching is keyed by composite identity at every level, so reordering
// or shifting unrelated siblings never registers as a change. Subtrees
// whose combined hash is equal are counted as unchanged without being
// descended into.
type Comparison struct {
	// Added holds nodes present only in the new forest.
	Added []*HashNode `json:"added"`

	// Removed holds nodes present only in the old forest.
	Removed []*HashNode `json:"removed"`

	// Modified holds identity-matched pairs with differing combined hash.
	Modified []ModifiedPair `json:"modified"`

	// Unchanged holds identity-matched nodes with equal combined hash.
	// Only the top of each unchanged subtree is recorded.
	Unchanged []*HashNode `json:"unchanged"`
}

// SubtreeChange is one entry in the minimal changed-subtree report.
type SubtreeChange struct {
	// Path locates the change: "filePath:qualified.name".
	Path string `json:"path"`

	// Old is the node in the old forest; nil for additions.
	Old *HashNode `json:"old,omitempty"`

	// New is the node in the new forest; nil for removals.
	New *HashNode `json:"new,omitempty"`

	// Kind classifies the change.
	Kind ChangeKind `json:"kind"`
}
