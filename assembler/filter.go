// Package assembler walks a de Bruijn graph to build contigs. Many workers
// extend contigs from different seeds at the same time; they coordinate only
// through the per-node visitation marks of the graph.
package assembler

import (
	"sort"
	"strings"

	"github.com/grailbio/assembly/dbgraph"
)

// Outcome is the terminal state of a graph search.
type Outcome int

const (
	// Success means the search found a single path.
	Success Outcome = iota
	// NoConnection means every path ended without reaching the target.
	NoConnection
	// Ambiguous means more than one path survived, or the search exceeded
	// Opts.MaxBranch.
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NoConnection:
		return "no_connection"
	case Ambiguous:
		return "ambiguous"
	}
	return "invalid"
}

// Digger assembles contigs from a graph. It is safe for concurrent use; the
// only shared mutable state is the visitation marks of the graph.
type Digger struct {
	g       *dbgraph.Graph
	opts    Opts
	kmerLen int
}

// New creates a Digger over g.
func New(g *dbgraph.Graph, opts Opts) *Digger {
	if opts.MaxBranch <= 0 {
		opts.MaxBranch = DefaultOpts.MaxBranch
	}
	return &Digger{g: g, opts: opts, kmerLen: g.KmerLen()}
}

// Graph is the graph the digger walks.
func (d *Digger) Graph() *dbgraph.Graph { return d.g }

// walker carries the per-worker statistics of a Digger.
type walker struct {
	*Digger
	stats Stats
}

func (d *Digger) walker() *walker { return &walker{Digger: d} }

// GoodNode reports whether the node is abundant enough to extend through.
func (d *Digger) GoodNode(n dbgraph.Node) bool {
	return n != 0 && d.g.Abundance(n) >= d.opts.LowCount
}

func (d *Digger) successors(n dbgraph.Node) []dbgraph.Successor {
	return d.FilterNeighbors(d.g.GetNodeSuccessors(n))
}

// FilterNeighbors prunes successors that look like sequencing noise. The
// slice is reordered and filtered in place; the result is sorted by
// decreasing abundance.
//
// Successors whose abundance is <= Opts.Fraction of the total are dropped,
// keeping at least the most abundant one. On stranded graphs a further
// strand-bias filter with threshold f = 0.1*Opts.Fraction applies to the
// remaining candidates:
//
//   - If a candidate k-mer ends in GGT and has a plus fraction above f,
//     candidates whose minus-strand abundance is below f times that
//     candidate's minus-strand abundance are dropped.
//   - Otherwise, if a candidate's most likely continuation is ACC and its
//     minus fraction is above f, the same is done with plus-strand
//     abundances.
//   - Otherwise, if at least two good candidates have a min strand fraction
//     above 0.25, candidates whose min strand fraction is below f times the
//     largest min strand fraction of a good candidate are dropped.
func (d *Digger) FilterNeighbors(successors []dbgraph.Successor) []dbgraph.Successor {
	if len(successors) > 1 {
		total := 0
		for _, s := range successors {
			total += d.g.Abundance(s.Node)
		}
		sort.SliceStable(successors, func(i, j int) bool {
			ai, aj := d.g.Abundance(successors[i].Node), d.g.Abundance(successors[j].Node)
			if ai != aj {
				return ai > aj
			}
			return successors[i].Nt < successors[j].Nt
		})
		threshold := d.opts.Fraction * float64(total)
		for len(successors) > 1 && float64(d.g.Abundance(successors[len(successors)-1].Node)) <= threshold {
			successors = successors[:len(successors)-1]
		}
	}
	if !d.g.GraphIsStranded() || len(successors) < 2 {
		return successors
	}

	f := 0.1 * d.opts.Fraction
	plusAbundance := func(s dbgraph.Successor) float64 {
		return float64(d.g.Abundance(s.Node)) * d.g.PlusFraction(s.Node)
	}
	minusAbundance := func(s dbgraph.Successor) float64 {
		return float64(d.g.Abundance(s.Node)) * (1 - d.g.PlusFraction(s.Node))
	}
	keep := func(strandAbundance func(dbgraph.Successor) float64, target dbgraph.Successor) []dbgraph.Successor {
		cutoff := f * strandAbundance(target)
		out := successors[:0]
		for _, s := range successors {
			if strandAbundance(s) >= cutoff {
				out = append(out, s)
			}
		}
		return out
	}

	for _, s := range successors {
		if strings.HasSuffix(d.g.GetNodeSeq(s.Node), "GGT") && d.g.PlusFraction(s.Node) > f {
			return keep(minusAbundance, s)
		}
	}
	for _, s := range successors {
		if d.mostLikelySeq(s, 3) == "ACC" && 1-d.g.PlusFraction(s.Node) > f {
			return keep(plusAbundance, s)
		}
	}

	var (
		mixed int
		best  float64
	)
	for _, s := range successors {
		if !d.GoodNode(s.Node) {
			continue
		}
		m := d.g.MinFraction(s.Node)
		if m > 0.25 {
			mixed++
		}
		best = max(best, m)
	}
	if mixed < 2 {
		return successors
	}
	out := successors[:0]
	for _, s := range successors {
		if d.g.MinFraction(s.Node) >= f*best {
			out = append(out, s)
		}
	}
	return out
}

// mostLikelySeq returns up to n bases starting with s.Nt, following the most
// abundant successor at every step.
func (d *Digger) mostLikelySeq(s dbgraph.Successor, n int) string {
	var b strings.Builder
	b.WriteByte(s.Nt)
	node := s.Node
	for b.Len() < n {
		next := d.g.GetNodeSuccessors(node)
		if len(next) == 0 {
			break
		}
		best := next[0]
		for _, c := range next[1:] {
			if d.g.Abundance(c.Node) > d.g.Abundance(best.Node) {
				best = c
			}
		}
		b.WriteByte(best.Nt)
		node = best.Node
	}
	return b.String()
}
