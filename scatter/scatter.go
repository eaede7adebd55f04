// Package scatter provides group-reduce primitives: aggregation of values
// partitioned by an integer grouping label, one result slot per label. The
// loss family uses these to reduce per-atom values by species.
package scatter

import (
	"sort"

	"github.com/yzchen08/nequip/pkg/errors"
)

// SumByGroup sums values into n slots indexed by labels. Labels must lie in
// [0, n); values and labels must have equal length.
func SumByGroup(values []float64, labels []int, n int) ([]float64, error) {
	if len(values) != len(labels) {
		return nil, errors.NewDimensionError("scatter.SumByGroup", len(values), len(labels), 0)
	}
	out := make([]float64, n)
	for i, l := range labels {
		if l < 0 || l >= n {
			return nil, errors.NewValueError("scatter.SumByGroup", "label out of range")
		}
		out[l] += values[i]
	}
	return out, nil
}

// CountByGroup counts label occurrences into n slots.
func CountByGroup(labels []int, n int) ([]int, error) {
	out := make([]int, n)
	for _, l := range labels {
		if l < 0 || l >= n {
			return nil, errors.NewValueError("scatter.CountByGroup", "label out of range")
		}
		out[l]++
	}
	return out, nil
}

// MeanByGroup averages values per label slot. Slots with no entries yield 0.
func MeanByGroup(values []float64, labels []int, n int) ([]float64, error) {
	sums, err := SumByGroup(values, labels, n)
	if err != nil {
		return nil, err
	}
	counts, err := CountByGroup(labels, n)
	if err != nil {
		return nil, err
	}
	for i := range sums {
		if counts[i] > 0 {
			sums[i] /= float64(counts[i])
		}
	}
	return sums, nil
}

// DenseLabels remaps arbitrary integer labels onto a dense contiguous range
// [0, n), returning the remapped labels and n. Raw labels need not be
// contiguous or zero-based; the mapping is built once per call in sorted
// label order.
func DenseLabels(labels []int) ([]int, int) {
	uniq := make(map[int]struct{}, len(labels))
	for _, l := range labels {
		uniq[l] = struct{}{}
	}
	sorted := make([]int, 0, len(uniq))
	for l := range uniq {
		sorted = append(sorted, l)
	}
	sort.Ints(sorted)
	index := make(map[int]int, len(sorted))
	for i, l := range sorted {
		index[l] = i
	}
	dense := make([]int, len(labels))
	for i, l := range labels {
		dense[i] = index[l]
	}
	return dense, len(sorted)
}
