package emath

import "gonum.org/v1/gonum/stat"

// MeanStdev returns the mean and population standard deviation of vals.
// Empty input gives (0, 0).
func MeanStdev(vals []float64) (mean, stdev float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	mean = stat.Mean(vals, nil)
	stdev = stat.PopStdDev(vals, nil)
	return mean, stdev
}
