// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package experiment

import "github.com/spaolacci/murmur3"

// bucket maps a (user, test) pair onto 0-99. Murmur3 is stable across
// processes and restarts, so the same pair always lands in the same bucket.
func bucket(userID, testID string) uint64 {
	return murmur3.Sum64([]byte(userID+":"+testID)) % 100
}

// variantFor walks the allocation in insertion order, accumulating shares
// until the bucket falls inside one. Rounding gaps fall back to the first
// variant.
func variantFor(allocation []Allocation, b uint64) string {
	if len(allocation) == 0 {
		return ""
	}
	var cumulative float64
	for _, a := range allocation {
		cumulative += a.Percent
		if float64(b) < cumulative {
			return a.Variant
		}
	}
	return allocation[0].Variant
}
