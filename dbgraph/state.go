package dbgraph

import (
	"sync/atomic"
)

// State is the visitation mark of a k-mer. Both orientations of a k-mer
// share one mark.
type State uint32

const (
	// Free nodes may be claimed by any worker.
	Free State = iota
	// Owned nodes belong to the contig of the worker that claimed them.
	Owned
	// Rejected nodes were claimed for a contig that turned out too short.
	// ClearHoldings makes them Free again.
	Rejected
)

func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case Owned:
		return "owned"
	case Rejected:
		return "rejected"
	}
	return "invalid"
}

// SetVisited atomically moves the node from expected to value. Only the
// claim (Free to Owned) and the release (Owned to Rejected) may be requested;
// any other pair, or node 0, returns false. It also returns false, leaving
// the mark unchanged, if the node was not in state expected.
func (g *Graph) SetVisited(n Node, value, expected State) bool {
	if n == 0 || !legalTransition(expected, value) {
		return false
	}
	return atomic.CompareAndSwapUint32(&g.states[n.Index()], uint32(expected), uint32(value))
}

func legalTransition(from, to State) bool {
	return (from == Free && to == Owned) || (from == Owned && to == Rejected)
}

// ClearVisited moves a Rejected node back to Free. It returns false if the
// node was not Rejected.
func (g *Graph) ClearVisited(n Node) bool {
	if n == 0 {
		return false
	}
	return atomic.CompareAndSwapUint32(&g.states[n.Index()], uint32(Rejected), uint32(Free))
}

// IsVisited reports whether the node is not Free.
func (g *Graph) IsVisited(n Node) bool { return g.State(n) != Free }

// State returns the mark of the node. Node 0 is always Free.
func (g *Graph) State(n Node) State {
	if n == 0 {
		return Free
	}
	return State(atomic.LoadUint32(&g.states[n.Index()]))
}

// ClearHoldings moves every Rejected node back to Free.
func (g *Graph) ClearHoldings() {
	for i := range g.states {
		atomic.CompareAndSwapUint32(&g.states[i], uint32(Rejected), uint32(Free))
	}
}
