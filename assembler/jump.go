package assembler

import (
	"github.com/grailbio/assembly/dbgraph"
)

// branch is one path explored by JumpOver.
type branch struct {
	path      []dbgraph.Successor
	abundance int // sum of the abundances of the path nodes
}

func (b *branch) last() dbgraph.Node { return b.path[len(b.path)-1].Node }

// JumpOver resolves a fork by extending every successor in lock step until
// a single branch remains. Branches that reach a node already reached by
// another branch are merged into the one with the higher total abundance
// (a popped bubble); branches that run out of successors are dropped.
//
// It returns Success and the surviving path once exactly one branch is left
// and it is at least minExtent long, provided every node on it passes
// GoodNode. It returns NoConnection if all branches die, and Ambiguous if
// more than one branch is left after maxExtent steps, the number of branches
// exceeds Opts.MaxBranch, or the surviving path has a low abundance node.
func (d *Digger) JumpOver(successors []dbgraph.Successor, maxExtent, minExtent int) ([]dbgraph.Successor, Outcome) {
	return d.walker().jumpOver(successors, maxExtent, minExtent)
}

func (w *walker) jumpOver(successors []dbgraph.Successor, maxExtent, minExtent int) ([]dbgraph.Successor, Outcome) {
	if maxExtent <= 0 || len(successors) == 0 {
		return nil, NoConnection
	}
	seen := make(map[dbgraph.Node]struct{})
	branches := make([]*branch, 0, len(successors))
	for _, s := range successors {
		if _, ok := seen[s.Node]; ok {
			continue
		}
		seen[s.Node] = struct{}{}
		branches = append(branches, &branch{
			path:      []dbgraph.Successor{s},
			abundance: w.g.Abundance(s.Node),
		})
	}
	for {
		switch {
		case len(branches) == 0:
			return nil, NoConnection
		case len(branches) > w.opts.MaxBranch:
			return nil, Ambiguous
		case len(branches) == 1 && len(branches[0].path) >= minExtent:
			path := branches[0].path
			for _, s := range path {
				if !w.GoodNode(s.Node) {
					return nil, Ambiguous
				}
			}
			return path, Success
		case len(branches[0].path) >= maxExtent:
			return nil, Ambiguous
		}
		branches = w.oneStepBranchExtend(branches, seen)
	}
}

// oneStepBranchExtend advances every branch by one filtered successor. A
// branch with several successors forks. seen holds every node on any
// branch; it is updated with the new nodes.
func (w *walker) oneStepBranchExtend(branches []*branch, seen map[dbgraph.Node]struct{}) []*branch {
	var (
		next   = make([]*branch, 0, len(branches))
		byNode = make(map[dbgraph.Node]int, len(branches))
	)
	for _, b := range branches {
		succ := w.successors(b.last())
		for i, s := range succ {
			nb := b
			if i < len(succ)-1 {
				nb = &branch{
					path:      make([]dbgraph.Successor, len(b.path), len(b.path)+1),
					abundance: b.abundance,
				}
				copy(nb.path, b.path)
			}
			nb.path = append(nb.path, s)
			nb.abundance += w.g.Abundance(s.Node)

			if j, ok := byNode[s.Node]; ok {
				// Two branches reconverge at this step.
				w.stats.Bubbles++
				if nb.abundance > next[j].abundance {
					next[j] = nb
				}
				continue
			}
			if _, ok := seen[s.Node]; ok {
				// Rejoins a path reached at an earlier step, or loops.
				w.stats.Bubbles++
				continue
			}
			byNode[s.Node] = len(next)
			next = append(next, nb)
		}
	}
	for node := range byNode {
		seen[node] = struct{}{}
	}
	return next
}
