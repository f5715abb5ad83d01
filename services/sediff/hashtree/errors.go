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
	"errors"
	"fmt"
)

// Sentinel errors for hash tree operations.
var (
	// ErrDepthExceeded is returned when a semantic tree is deeper than
	// the configured maximum. Fatal: no partial tree is produced.
	ErrDepthExceeded = errors.New("hashtree: maximum tree depth exceeded")

	// ErrNilNode is returned when a forest contains a nil root.
	ErrNilNode = errors.New("hashtree: nil node in forest")
)

// IntegrityError reports a node whose stored combined hash does not
// match the recomputed value. Indicates post-build mutation.
type IntegrityError struct {
	// Identity is the composite identity of the corrupted node.
	Identity string

	// Expected is the recomputed combined hash.
	Expected string

	// Actual is the stored combined hash.
	Actual string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("hashtree: integrity violation at %s: stored hash %.12s does not match recomputed %.12s",
		e.Identity, e.Actual, e.Expected)
}

// IsIntegrityError returns true if err is an IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
