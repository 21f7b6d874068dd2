// Package partition maps lock keys onto a fixed set of lock stripes.
package partition

import (
	"hash/fnv"
	"sort"
)

// Count is the fixed number of lock stripes.
// Two keys that share a stripe serialize against each other; that only costs
// concurrency, never correctness.
const Count = 256

// For returns the stripe for a given key.
// Stable and deterministic: same key always maps to the same stripe.
func For(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % Count)
}

// Stripes returns the distinct stripes for keys in ascending order.
// Acquiring stripes in this order is what keeps multi-key transactions deadlock-free.
func Stripes(keys []string) []int {
	seen := make(map[int]struct{}, len(keys))
	out := make([]int, 0, len(keys))
	for _, k := range keys {
		p := For(k)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
