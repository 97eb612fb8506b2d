// Package stats has small numeric helpers shared by the ranking and
// outlier-cleaning code.
package stats

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// ElbowValue returns the value at the knee of the sorted curve of values,
// considering only the part of the curve below the given percentile.
// The knee is the point with the largest distance to the chord between the
// first and last point of the truncated curve. For a constant input the
// chord is flat and the constant value itself is returned.
func ElbowValue(values []float64, percentile float64) (float64, error) {
	if len(values) == 0 {
		return 0.0, fmt.Errorf("cannot compute an elbow value on empty input")
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	cutoff := stat.Quantile(percentile/100.0, stat.Empirical, sorted, nil)
	n := len(sorted)
	for n > 1 && sorted[n-1] > cutoff {
		n--
	}
	sorted = sorted[:n]

	first, last := sorted[0], sorted[n-1]
	if n == 1 || last == first {
		return last, nil
	}

	// Distance from each curve point to the chord (0, first) -> (n-1, last).
	dx, dy := float64(n-1), last-first
	norm := math.Hypot(dx, dy)
	bestDist, elbow := -1.0, last
	for i, v := range sorted {
		dist := math.Abs(dy*float64(i)-dx*(v-first)) / norm
		if dist > bestDist {
			bestDist = dist
			elbow = v
		}
	}
	return elbow, nil
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0.0, 0.0
	}
	return stat.Mean(values, nil), stat.PopStdDev(values, nil)
}
