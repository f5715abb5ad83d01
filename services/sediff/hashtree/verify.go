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

// VerifyIntegrity recomputes every combined hash bottom-up and checks
// it against the stored value.
//
// Returns nil when the forest is intact, or an *IntegrityError naming
// the first corrupted node found. Children are checked before their
// parent so the error points at the deepest corruption.
func VerifyIntegrity(roots []*HashNode) error {
	for _, root := range roots {
		if root == nil {
			return ErrNilNode
		}
		if err := verifyNode(root); err != nil {
			return err
		}
	}
	return nil
}

// Verify reports whether a hash forest is intact.
//
// Convenience wrapper over VerifyIntegrity for callers that only need
// the boolean.
func Verify(roots []*HashNode) bool {
	return VerifyIntegrity(roots) == nil
}

func verifyNode(node *HashNode) error {
	for _, child := range node.Children {
		if child == nil {
			return ErrNilNode
		}
		if err := verifyNode(child); err != nil {
			return err
		}
	}

	expected := combinedHash(node)
	if expected != node.CombinedHash {
		return &IntegrityError{
			Identity: node.Identity(),
			Expected: expected,
			Actual:   node.CombinedHash,
		}
	}
	return nil
}
