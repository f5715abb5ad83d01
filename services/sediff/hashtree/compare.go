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

// Compare partitions two hash forests into added, removed, modified,
// and unchanged nodes.
//
// # Description
//
// Nodes are matched by composite identity level by level; siblings
// sharing one identity pair up occurrence by occurrence in source
// order. A matched pair with an equal combined hash is recorded once as
// unchanged and
// its subtree is never descended into. A matched pair with differing
// hashes is recorded as modified and its children are matched in turn,
// so every changed node in both forests appears in exactly one
// partition. Unmatched subtrees contribute their root to added or
// removed without descent.
//
// # Inputs
//
//   - oldRoots: Hash forest of the old version.
//   - newRoots: Hash forest of the new version.
//
// # Outputs
//
//   - Comparison: The four partitions. Slices are non-nil and ordered
//     by appearance in the respective forest.
func Compare(oldRoots, newRoots []*HashNode) Comparison {
	cmp := Comparison{
		Added:     make([]*HashNode, 0),
		Removed:   make([]*HashNode, 0),
		Modified:  make([]ModifiedPair, 0),
		Unchanged: make([]*HashNode, 0),
	}
	compareLevel(oldRoots, newRoots, &cmp)
	return cmp
}

// compareLevel matches one sibling set by identity and recurses into
// modified pairs. Siblings sharing an identity are paired occurrence by
// occurrence in source order.
func compareLevel(oldNodes, newNodes []*HashNode, cmp *Comparison) {
	oldByID := groupByIdentity(oldNodes)

	paired := make(map[string]int, len(oldByID))
	for _, newNode := range newNodes {
		id := newNode.Identity()
		candidates := oldByID[id]
		next := paired[id]
		if next >= len(candidates) {
			cmp.Added = append(cmp.Added, newNode)
			continue
		}
		paired[id] = next + 1
		oldNode := candidates[next]

		if oldNode.CombinedHash == newNode.CombinedHash {
			cmp.Unchanged = append(cmp.Unchanged, newNode)
			continue
		}
		cmp.Modified = append(cmp.Modified, ModifiedPair{Old: oldNode, New: newNode})
		compareLevel(oldNode.Children, newNode.Children, cmp)
	}

	seen := make(map[string]int, len(oldByID))
	for _, oldNode := range oldNodes {
		id := oldNode.Identity()
		seen[id]++
		if seen[id] > paired[id] {
			cmp.Removed = append(cmp.Removed, oldNode)
		}
	}
}

// groupByIdentity buckets one sibling set by identity, preserving
// source order inside each bucket.
func groupByIdentity(nodes []*HashNode) map[string][]*HashNode {
	groups := make(map[string][]*HashNode, len(nodes))
	for _, node := range nodes {
		id := node.Identity()
		groups[id] = append(groups[id], node)
	}
	return groups
}

// FindChangedSubtrees reports the minimal set of changed subtrees
// between two hash forests.
//
// # Description
//
// Unmatched subtrees are reported once at their root as added or
// removed, without descent. For matched pairs with differing hashes the
// walk recurses first: when any descendant produces a report, the
// ancestor stays silent, so a single modified leaf among many siblings
// yields exactly one entry. A pair whose children are all hash-equal is
// itself the deepest change and is reported as modified.
//
// # Inputs
//
//   - oldRoots: Hash forest of the old version.
//   - newRoots: Hash forest of the new version.
//
// # Outputs
//
//   - []SubtreeChange: Deepest changed subtrees, ordered by appearance.
//     Empty (non-nil) when the forests are identical.
func FindChangedSubtrees(oldRoots, newRoots []*HashNode) []SubtreeChange {
	changes := make([]SubtreeChange, 0)
	findChangedLevel(oldRoots, newRoots, &changes)
	return changes
}

func findChangedLevel(oldNodes, newNodes []*HashNode, changes *[]SubtreeChange) {
	oldByID := groupByIdentity(oldNodes)

	paired := make(map[string]int, len(oldByID))
	for _, newNode := range newNodes {
		id := newNode.Identity()
		candidates := oldByID[id]
		next := paired[id]
		if next >= len(candidates) {
			*changes = append(*changes, SubtreeChange{
				Path: changePath(newNode),
				New:  newNode,
				Kind: ChangeAdded,
			})
			continue
		}
		paired[id] = next + 1
		oldNode := candidates[next]

		if oldNode.CombinedHash == newNode.CombinedHash {
			continue
		}

		before := len(*changes)
		findChangedLevel(oldNode.Children, newNode.Children, changes)
		if len(*changes) == before {
			// No descendant changed, so this node is the deepest change.
			*changes = append(*changes, SubtreeChange{
				Path: changePath(newNode),
				Old:  oldNode,
				New:  newNode,
				Kind: ChangeModified,
			})
		}
	}

	seen := make(map[string]int, len(oldByID))
	for _, oldNode := range oldNodes {
		id := oldNode.Identity()
		seen[id]++
		if seen[id] > paired[id] {
			*changes = append(*changes, SubtreeChange{
				Path: changePath(oldNode),
				Old:  oldNode,
				Kind: ChangeRemoved,
			})
		}
	}
}

// changePath renders the location of a change as "filePath:qualified.name".
func changePath(node *HashNode) string {
	return node.Node.FilePath + ":" + node.Node.QualifiedName()
}
