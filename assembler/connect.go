package assembler

import (
	"github.com/grailbio/assembly/dbgraph"
)

// searchElement is one step of a breadth-first search. prev is the arena
// index of the step it extends, or -1 for a step out of the start node.
type searchElement struct {
	suc  dbgraph.Successor
	prev int
}

// searchArena keeps every step of a search; steps are never freed until the
// search ends.
type searchArena []searchElement

func (a *searchArena) add(suc dbgraph.Successor, prev int) int {
	*a = append(*a, searchElement{suc: suc, prev: prev})
	return len(*a) - 1
}

// path returns the successors leading to element i, first step first.
func (a searchArena) path(i int) []dbgraph.Successor {
	n := 0
	for j := i; j >= 0; j = a[j].prev {
		n++
	}
	p := make([]dbgraph.Successor, n)
	for j := i; j >= 0; j = a[j].prev {
		n--
		p[n] = a[j].suc
	}
	return p
}

// ambiguousElement marks a frontier node reached by more than one path.
const ambiguousElement = -1

// ConnectTwoNodes searches for a path of at most maxSteps edges from first to
// last over filtered successors. On Success it returns the edges of the
// path; the last edge leads to last.
//
// A node reached by more than one path, or failing GoodNode, becomes
// ambiguous and is not expanded further. The search is Ambiguous if last is
// reached by two paths or the frontier grows beyond Opts.MaxBranch, and
// NoConnection if the frontier dies out or maxSteps is exhausted first.
func (d *Digger) ConnectTwoNodes(first, last dbgraph.Node, maxSteps int) ([]dbgraph.Successor, Outcome) {
	var (
		arena      searchArena
		connection = -1
		current    = map[dbgraph.Node]int{}
	)
	// visit records one step; it returns false if last became ambiguous.
	visit := func(next map[dbgraph.Node]int, suc dbgraph.Successor, prev int) bool {
		i := arena.add(suc, prev)
		if suc.Node == last {
			if connection >= 0 {
				return false
			}
			connection = i
			return true
		}
		if _, ok := next[suc.Node]; ok || !d.GoodNode(suc.Node) {
			next[suc.Node] = ambiguousElement
		} else {
			next[suc.Node] = i
		}
		return true
	}

	if maxSteps < 1 {
		return nil, NoConnection
	}
	for _, suc := range d.successors(first) {
		visit(current, suc, -1)
	}
	for step := 1; step < maxSteps && len(current) > 0; step++ {
		next := make(map[dbgraph.Node]int, len(current))
		for node, i := range current {
			if i == ambiguousElement {
				continue
			}
			for _, suc := range d.successors(node) {
				if !visit(next, suc, i) {
					return nil, Ambiguous
				}
			}
		}
		current = next
		if len(current) > d.opts.MaxBranch {
			return nil, Ambiguous
		}
	}
	if connection < 0 {
		return nil, NoConnection
	}
	return arena.path(connection), Success
}
