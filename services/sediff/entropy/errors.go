// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package entropy

import (
	"errors"
	"fmt"
)

// Sentinel errors for entropy computation.
var (
	// ErrEmptyDistribution is returned when a distribution has no mass.
	ErrEmptyDistribution = errors.New("entropy: empty distribution")

	// ErrDistributionLength is returned when two distributions being
	// compared have different lengths.
	ErrDistributionLength = errors.New("entropy: distribution length mismatch")

	// ErrDivergenceUndefined is returned when KL(P||Q) hits Q[i]=0 with
	// P[i]>0, where the divergence is infinite.
	ErrDivergenceUndefined = errors.New("entropy: divergence undefined (zero reference mass)")
)

// ConfigurationError reports an invalid calculator configuration.
// Raised eagerly at construction, before any analysis runs.
type ConfigurationError struct {
	// Field names the offending configuration field.
	Field string

	// Message describes the violation.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("entropy: invalid configuration: %s: %s", e.Field, e.Message)
}

// IsConfigurationError returns true if err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
