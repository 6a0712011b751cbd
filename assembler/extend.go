package assembler

import (
	"github.com/grailbio/assembly/dbgraph"
)

// ExtendToRightMT extends node to the right one step at a time and claims
// every node it steps onto. A step is the single filtered successor, or the
// path JumpOver finds through a fork.
//
// Each step must pass a symmetry check: walking left from the new end (that
// is, right from its reverse complement) must retrace the step back to node.
// The walk stops at a dead end (NoConnection), at an unresolved fork, a low
// abundance node or a failed symmetry check (Ambiguous), or when a node can't
// be claimed because another contig owns it. In the last case the node is
// returned as the blocking node and the outcome is Success.
//
// The returned edges lead from node to the last claimed node.
func (d *Digger) ExtendToRightMT(node dbgraph.Node) (edges []dbgraph.Successor, blocking dbgraph.Node, outcome Outcome) {
	return d.walker().extendToRightMT(node)
}

func (w *walker) extendToRightMT(node dbgraph.Node) (edges []dbgraph.Successor, blocking dbgraph.Node, outcome Outcome) {
	for {
		step, o := w.step(node)
		if o != Success {
			return edges, 0, o
		}
		if !w.symmetric(node, step) {
			return edges, 0, Ambiguous
		}
		for _, s := range step {
			if !w.g.SetVisited(s.Node, dbgraph.Owned, dbgraph.Free) {
				return edges, s.Node, Success
			}
			edges = append(edges, s)
		}
		node = step[len(step)-1].Node
	}
}

// step finds the next unambiguous path out of node.
func (w *walker) step(node dbgraph.Node) ([]dbgraph.Successor, Outcome) {
	succ := w.successors(node)
	switch len(succ) {
	case 0:
		return nil, NoConnection
	case 1:
		if !w.GoodNode(succ[0].Node) {
			return nil, Ambiguous
		}
		return succ, Success
	}
	return w.jumpOver(succ, w.opts.Jump, 0)
}

// symmetric checks that the path from node through step is also the path
// found walking from the reverse complement of its end. The reverse walk may
// overshoot by taking a longer last step; only the first len(step) edges
// are compared. Bubbles met by the reverse walk are not counted in the
// stats; the forward step already counted them.
func (w *walker) symmetric(node dbgraph.Node, step []dbgraph.Successor) bool {
	defer func(bubbles int) { w.stats.Bubbles = bubbles }(w.stats.Bubbles)
	var (
		back []dbgraph.Successor
		rev  = w.g.ReverseComplement(step[len(step)-1].Node)
	)
	for len(back) < len(step) {
		s, o := w.step(rev)
		if o != Success {
			return false
		}
		back = append(back, s...)
		rev = s[len(s)-1].Node
	}
	// back[i] must be the reverse complement of the node i+1 positions
	// before the end of the forward path.
	for i := range step {
		want := node
		if j := len(step) - 2 - i; j >= 0 {
			want = step[j].Node
		}
		if back[i].Node != w.g.ReverseComplement(want) {
			return false
		}
	}
	return true
}
