package sortutil

import (
	"cmp"
	"slices"
)

// SortedKeys returns the keys of m in ascending order. Map iteration order is
// random; callers that serialize or apply entries go through here so the same
// input always produces the same sequence.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// StablePathSort returns a sorted copy of paths. The input is not modified.
func StablePathSort(paths []string) []string {
	out := slices.Clone(paths)
	slices.Sort(out)
	return out
}
