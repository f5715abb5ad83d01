// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package hashtree

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/sediff/services/sediff/ast"
)

// DefaultMaxDepth bounds tree recursion during a build. Mirrors the
// semantic-node validation limit.
const DefaultMaxDepth = ast.MaxNodeDepth

// BuildOption configures a Build call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	maxDepth int
}

// WithMaxDepth overrides the maximum allowed tree depth. Values below 1
// are ignored.
func WithMaxDepth(depth int) BuildOption {
	return func(o *buildOptions) {
		if depth >= 1 {
			o.maxDepth = depth
		}
	}
}

// Build derives a hash forest from a semantic forest.
//
// # Description
//
// Hashes are computed bottom-up in a single post-order pass: each node's
// combined hash folds in its structural hash, its content hash, and
// every child's combined hash in source order. The input forest is not
// modified; hash nodes reference the semantic nodes they cover.
//
// # Inputs
//
//   - forest: Top-level semantic nodes in source order. May be empty.
//   - opts: Optional build configuration.
//
// # Outputs
//
//   - []*HashNode: One hash root per input root, in the same order.
//   - BuildStats: Node, leaf, and depth counts plus wall time.
//   - error: ErrDepthExceeded when any subtree is deeper than the
//     configured maximum, ErrNilNode for nil roots. Fatal: no partial
//     forest is returned.
func Build(forest []*ast.SemanticNode, opts ...BuildOption) ([]*HashNode, BuildStats, error) {
	options := buildOptions{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&options)
	}

	start := time.Now()
	stats := BuildStats{}
	roots := make([]*HashNode, 0, len(forest))

	for _, root := range forest {
		if root == nil {
			return nil, BuildStats{}, ErrNilNode
		}
		hashRoot, err := buildNode(root, 1, options.maxDepth, &stats)
		if err != nil {
			return nil, BuildStats{}, err
		}
		roots = append(roots, hashRoot)
	}

	stats.BuildTime = time.Since(start)
	return roots, stats, nil
}

// buildNode computes the hash overlay for one subtree. level is the
// 1-based distance from the forest root.
func buildNode(node *ast.SemanticNode, level, maxDepth int, stats *BuildStats) (*HashNode, error) {
	if level > maxDepth {
		return nil, fmt.Errorf("%w: node %q at level %d (max %d)",
			ErrDepthExceeded, node.Identity(), level, maxDepth)
	}

	children := make([]*HashNode, 0, len(node.Children))
	subtreeDepth := 1
	for _, child := range node.Children {
		if child == nil {
			return nil, ErrNilNode
		}
		hashChild, err := buildNode(child, level+1, maxDepth, stats)
		if err != nil {
			return nil, err
		}
		if hashChild.Depth+1 > subtreeDepth {
			subtreeDepth = hashChild.Depth + 1
		}
		children = append(children, hashChild)
	}

	hashNode := &HashNode{
		Node:        node,
		ContentHash: node.ContentHash,
		Depth:       subtreeDepth,
		Children:    children,
	}
	hashNode.StructuralHash = structuralHash(node, subtreeDepth)
	hashNode.CombinedHash = combinedHash(hashNode)

	stats.NodeCount++
	if len(children) == 0 {
		stats.LeafCount++
	}
	if subtreeDepth > stats.MaxDepth {
		stats.MaxDepth = subtreeDepth
	}
	return hashNode, nil
}

// structuralHash digests the node kind, the ordered child-kind
// sequence, and the subtree depth. Content never contributes.
func structuralHash(node *ast.SemanticNode, depth int) string {
	var b strings.Builder
	b.WriteString(node.Kind.String())
	b.WriteByte('|')
	for i, child := range node.Children {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(child.Kind.String())
	}
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(depth))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// combinedHash digests the node's structural hash, content hash, and
// each child's combined hash in order. Requires children to be hashed
// already.
func combinedHash(node *HashNode) string {
	h := sha256.New()
	h.Write([]byte(node.StructuralHash))
	h.Write([]byte{0})
	h.Write([]byte(node.ContentHash))
	for _, child := range node.Children {
		h.Write([]byte{0})
		h.Write([]byte(child.CombinedHash))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeRootHash folds a forest into a single digest covering every
// root's combined hash in order.
//
// Two forests share a root hash exactly when they are structurally and
// contentually identical. An empty forest has a stable, non-empty
// digest.
func ComputeRootHash(roots []*HashNode) string {
	h := sha256.New()
	h.Write([]byte("sediff.forest"))
	for _, root := range roots {
		h.Write([]byte{0})
		h.Write([]byte(root.CombinedHash))
	}
	return hex.EncodeToString(h.Sum(nil))
}
