// Package sweep implements the "candidates minus everything still referenced"
// pass shared by every garbage-collecting operation in netcore.
package sweep

import "sort"

// Unreferenced returns the candidates that scan never marked as kept.
//
// scan is called exactly once and must call keep for every key that is still
// referenced from somewhere. Keys passed to keep that are not candidates are
// ignored. The result is sorted with less so callers erase in a stable order.
func Unreferenced[K comparable](candidates []K, scan func(keep func(K)), less func(a, b K) bool) []K {
	live := make(map[K]bool, len(candidates))
	for _, k := range candidates {
		live[k] = false
	}

	scan(func(k K) {
		if _, ok := live[k]; ok {
			live[k] = true
		}
	})

	var dead []K
	for k, kept := range live {
		if !kept {
			dead = append(dead, k)
		}
	}

	if less != nil {
		sort.Slice(dead, func(i, j int) bool { return less(dead[i], dead[j]) })
	}
	return dead
}

// Keys returns the keys of m in unspecified order.
func Keys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
