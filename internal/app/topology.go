package app

import (
	"maps"
	"slices"
	"strings"
)

// Topology maps each engine to the engines its subject enqueues commands on.
type Topology map[string][]string

// Cycle is a set of engines that hold senders for each other's channels.
// None of them sees its channel close while another is still running, so
// they only stop by cancellation.
type Cycle []string

func (c Cycle) String() string {
	if len(c) == 0 {
		return ""
	}
	return strings.Join(append(slices.Clone(c), c[0]), " -> ")
}

// Cycles returns the strongly connected components of t that form a cycle,
// each sorted by name, in name order of their first member.
func (t Topology) Cycles() []Cycle {
	var (
		index   int
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		cycles  []Cycle
	)

	var connect func(string)
	connect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range t[v] {
			if _, seen := indices[w]; !seen {
				connect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] != indices[v] {
			return
		}
		var scc Cycle
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) > 1 || slices.Contains(t[v], v) {
			slices.Sort(scc)
			cycles = append(cycles, scc)
		}
	}

	for _, node := range slices.Sorted(maps.Keys(t)) {
		if _, seen := indices[node]; !seen {
			connect(node)
		}
	}

	slices.SortFunc(cycles, func(a, b Cycle) int { return strings.Compare(a[0], b[0]) })
	return cycles
}
