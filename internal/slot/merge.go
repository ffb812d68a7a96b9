package slot

import "slices"

// Range is a half-open range [Start, End) over an ordered key.
type Range[K any] struct {
	Start K
	End   K
}

// Merge collapses unit-width keys into the minimal set of maximal
// contiguous ranges. step returns the key right after k, which is also the
// exclusive end of the unit range starting at k. Duplicate keys count once
// and the input order does not matter. keys is not modified.
func Merge[K any](keys []K, compare func(a, b K) int, step func(k K) K) []Range[K] {
	if len(keys) == 0 {
		return nil
	}

	sorted := slices.Clone(keys)
	slices.SortFunc(sorted, compare)
	sorted = slices.CompactFunc(sorted, func(a, b K) bool {
		return compare(a, b) == 0
	})

	ranges := make([]Range[K], 0, 1)
	current := Range[K]{Start: sorted[0], End: step(sorted[0])}
	for _, k := range sorted[1:] {
		if compare(k, current.End) == 0 {
			current.End = step(k)
			continue
		}
		ranges = append(ranges, current)
		current = Range[K]{Start: k, End: step(k)}
	}

	return append(ranges, current)
}
