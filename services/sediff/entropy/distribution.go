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

import "math"

// ShannonEntropy computes H = -sum p_i * log2(p_i) over a probability
// distribution, with the convention 0*log2(0) = 0.
//
// The input is normalized by its own mass, so raw counts are accepted.
// Bounded by 0 <= H <= log2(n); the uniform distribution attains the
// maximum and a single-outcome distribution yields 0.
//
// Returns ErrEmptyDistribution when the input has no positive mass.
func ShannonEntropy(dist []float64) (float64, error) {
	mass := 0.0
	for _, p := range dist {
		if p > 0 {
			mass += p
		}
	}
	if mass == 0 {
		return 0, ErrEmptyDistribution
	}

	h := 0.0
	for _, p := range dist {
		if p <= 0 {
			continue
		}
		prob := p / mass
		h -= prob * math.Log2(prob)
	}
	return h, nil
}

// KLDivergence computes the Kullback-Leibler divergence KL(P||Q) in
// bits.
//
// Inputs are normalized by their own mass. Returns
// ErrDivergenceUndefined when Q assigns zero mass to an outcome P
// assigns positive mass to, where the divergence is infinite, and
// ErrDistributionLength when the inputs differ in length.
func KLDivergence(p, q []float64) (float64, error) {
	if len(p) != len(q) {
		return 0, ErrDistributionLength
	}

	pNorm, err := normalize(p)
	if err != nil {
		return 0, err
	}
	qNorm, err := normalize(q)
	if err != nil {
		return 0, err
	}

	kl := 0.0
	for i := range pNorm {
		if pNorm[i] == 0 {
			continue
		}
		if qNorm[i] == 0 {
			return 0, ErrDivergenceUndefined
		}
		kl += pNorm[i] * math.Log2(pNorm[i]/qNorm[i])
	}
	return kl, nil
}

// JensenShannonDivergence computes the symmetric Jensen-Shannon
// divergence between two distributions in bits.
//
// JS(P,Q) = (KL(P||M) + KL(Q||M)) / 2 with M = (P+Q)/2. Always
// defined for valid inputs since M dominates both P and Q, symmetric
// in its arguments, and approximately 0 for identical distributions.
func JensenShannonDivergence(p, q []float64) (float64, error) {
	if len(p) != len(q) {
		return 0, ErrDistributionLength
	}

	pNorm, err := normalize(p)
	if err != nil {
		return 0, err
	}
	qNorm, err := normalize(q)
	if err != nil {
		return 0, err
	}

	mixture := make([]float64, len(pNorm))
	for i := range pNorm {
		mixture[i] = (pNorm[i] + qNorm[i]) / 2
	}

	js := 0.0
	for i := range pNorm {
		if pNorm[i] > 0 {
			js += 0.5 * pNorm[i] * math.Log2(pNorm[i]/mixture[i])
		}
		if qNorm[i] > 0 {
			js += 0.5 * qNorm[i] * math.Log2(qNorm[i]/mixture[i])
		}
	}
	return js, nil
}

// normalize rescales a non-negative vector to unit mass. Negative
// entries are treated as zero.
func normalize(dist []float64) ([]float64, error) {
	mass := 0.0
	for _, v := range dist {
		if v > 0 {
			mass += v
		}
	}
	if mass == 0 {
		return nil, ErrEmptyDistribution
	}

	out := make([]float64, len(dist))
	for i, v := range dist {
		if v > 0 {
			out[i] = v / mass
		}
	}
	return out, nil
}
