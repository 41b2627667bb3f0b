package schema

import (
	"sort"
)

// DetectCycle returns the names of the node types that take part in a nesting
// cycle, in declaration order. It returns nil when the types are acyclic.
// Children that do not name one of the given types are ignored.
func DetectCycle(types []*NodeType) []string {
	idx := make(map[string]int, len(types))
	for i, t := range types {
		if _, ok := idx[t.Name]; !ok {
			idx[t.Name] = i
		}
	}

	deps := func(i int) []int {
		var out []int

		for _, c := range types[i].Children {
			if j, ok := idx[c.Name]; ok {
				out = append(out, j)
			}
		}

		return out
	}

	_, stuck := topoSort(len(types), deps)
	if len(stuck) == 0 {
		return nil
	}

	stuck = pruneAncestors(stuck, deps)

	names := make([]string, 0, len(stuck))
	for _, i := range stuck {
		names = append(names, types[i].Name)
	}

	return names
}

// topoSort returns node indices in dependency order and the indices that
// could not be placed because they sit on or above a cycle.
//
// depsFn(i) yields indices that must come before i. The result is
// deterministic: when several nodes are ready, the smallest index wins.
func topoSort(n int, depsFn func(i int) []int) ([]int, []int) {
	if n <= 0 {
		return nil, nil
	}

	indeg := make([]int, n)
	out := make([][]int, n)

	for i := range n {
		for _, d := range depsFn(i) {
			indeg[i]++
			out[d] = append(out[d], i)
		}
	}

	for i := range out {
		sort.Ints(out[i])
	}

	var ready []int

	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		order = append(order, i)
		for _, j := range out[i] {
			indeg[j]--
			if indeg[j] == 0 {
				k := sort.SearchInts(ready, j)
				ready = append(ready, 0)
				copy(ready[k+1:], ready[k:])
				ready[k] = j
			}
		}
	}

	if len(order) == n {
		return order, nil
	}

	var stuck []int

	for i := range n {
		if indeg[i] > 0 {
			stuck = append(stuck, i)
		}
	}

	return order, stuck
}

// pruneAncestors drops stuck nodes that no other stuck node depends on;
// those only lead into a cycle without being part of it.
func pruneAncestors(stuck []int, depsFn func(i int) []int) []int {
	for {
		used := make(map[int]bool, len(stuck))
		member := make(map[int]bool, len(stuck))

		for _, i := range stuck {
			member[i] = true
		}

		for _, i := range stuck {
			for _, d := range depsFn(i) {
				if member[d] {
					used[d] = true
				}
			}
		}

		kept := stuck[:0:0]

		for _, i := range stuck {
			if used[i] {
				kept = append(kept, i)
			}
		}

		if len(kept) == len(stuck) {
			return kept
		}

		stuck = kept
	}
}
