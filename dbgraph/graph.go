// Package dbgraph exposes a sorted k-mer count table as an implicit de Bruijn
// graph. Nodes are k-mers in either orientation; edges are single-base
// right extensions recorded in the branching nibbles of the table values.
//
// The graph itself is read-only once built. The only mutable state is the
// per-node visitation mark used to hand out nodes to concurrent assembly
// workers; see State.
package dbgraph

import (
	"github.com/grailbio/assembly/kmer"
	"github.com/grailbio/assembly/kmercount"
	"github.com/grailbio/base/log"
)

// Node identifies a k-mer of the graph in one orientation. Node 0 means "no
// node". For the table entry at index i, Node 2*(i+1) is the k-mer as stored
// (its canonical form) and Node 2*(i+1)+1 is its reverse complement.
type Node uint64

// NodeOf returns the node for table index i, reverse complemented if isRC.
func NodeOf(i int, isRC bool) Node {
	n := Node(2 * (i + 1))
	if isRC {
		n++
	}
	return n
}

// Index is the table index of the node.
//
// REQUIRES: n != 0.
func (n Node) Index() int { return int(n/2) - 1 }

// IsMinus reports whether n is the reverse complement of the stored k-mer.
func (n Node) IsMinus() bool { return n&1 == 1 }

// Successor is one outgoing edge: the node reached by appending Nt (one of
// 'A', 'C', 'G', 'T') to the k-mer.
type Successor struct {
	Node Node
	Nt   byte
}

// index is the precision-dependent part of the graph.
type index interface {
	node(seq string) Node
	nodeSeq(n Node) string
	successors(n Node, nibble uint8, dst []Successor) []Successor
	nodes(seq string) []Node
}

// Graph is a de Bruijn graph over a collapsed k-mer table whose values went
// through kmercount.ComputeBranches.
type Graph struct {
	kmerLen  int
	table    *kmercount.Table
	idx      index
	bins     kmercount.Bins
	stranded bool
	states   []uint32
}

// New creates a graph over table. bins is the k-mer abundance histogram of
// the read set; stranded tells whether the reads came from a stranded
// library, which enables the strand-bias filters of the assembler.
func New(table *kmercount.Table, bins kmercount.Bins, stranded bool) *Graph {
	g := &Graph{
		kmerLen:  table.KmerLen(),
		table:    table,
		bins:     bins,
		stranded: stranded,
		states:   make([]uint32, table.Len()),
	}
	switch table.Precision() {
	case kmer.P1:
		g.idx = newTypedIndex(kmercount.As[kmer.W1](table))
	case kmer.P2:
		g.idx = newTypedIndex(kmercount.As[kmer.W2](table))
	case kmer.P4:
		g.idx = newTypedIndex(kmercount.As[kmer.W4](table))
	case kmer.P8:
		g.idx = newTypedIndex(kmercount.As[kmer.W8](table))
	default:
		g.idx = newTypedIndex(kmercount.As[kmer.W16](table))
	}
	return g
}

// KmerLen is the length of the node k-mers.
func (g *Graph) KmerLen() int { return g.kmerLen }

// NodeCount is the number of table entries; there are twice as many nodes.
func (g *Graph) NodeCount() int { return g.table.Len() }

// GraphIsStranded reports whether the reads came from a stranded library.
func (g *Graph) GraphIsStranded() bool { return g.stranded }

// Histogram is the k-mer abundance histogram the graph was built with.
func (g *Graph) Histogram() kmercount.Bins { return g.bins }

// Table is the underlying k-mer table.
func (g *Graph) Table() *kmercount.Table { return g.table }

// GetNode returns the node of seq, or 0 if seq is absent, has the wrong
// length or contains a non-ACGT base.
func (g *Graph) GetNode(seq string) Node {
	if len(seq) != g.kmerLen {
		return 0
	}
	return g.idx.node(seq)
}

// GetNodeSeq returns the k-mer of the node, in the node's orientation.
func (g *Graph) GetNodeSeq(n Node) string {
	if n == 0 {
		log.Panicf("dbgraph: sequence of node 0")
	}
	return g.idx.nodeSeq(n)
}

// Nodes returns one node per k-mer window of seq, 0 for windows that are
// absent from the graph or contain a non-ACGT base.
func (g *Graph) Nodes(seq string) []Node {
	if len(seq) < g.kmerLen {
		return nil
	}
	return g.idx.nodes(seq)
}

func (g *Graph) value(n Node) uint64 { return g.table.Value(n.Index()) }

// Abundance is the number of times the node's k-mer (in either orientation)
// was seen. It is 0 for node 0.
func (g *Graph) Abundance(n Node) int {
	if n == 0 {
		return 0
	}
	return int(kmercount.Count(g.value(n)))
}

// PlusFraction is the fraction of the observations of the node's k-mer that
// were made in the node's orientation. It is 0 for node 0.
func (g *Graph) PlusFraction(n Node) float64 {
	if n == 0 {
		return 0
	}
	p := kmercount.PlusFraction(g.value(n))
	if n.IsMinus() {
		p = 1 - p
	}
	return p
}

// MinFraction is min(p, 1-p) where p is PlusFraction(n).
func (g *Graph) MinFraction(n Node) float64 {
	p := g.PlusFraction(n)
	if p > 0.5 {
		return 1 - p
	}
	return p
}

// GetNodeSuccessors lists the nodes reachable by appending one base to the
// node's k-mer, in base order.
func (g *Graph) GetNodeSuccessors(n Node) []Successor {
	if n == 0 {
		return nil
	}
	v := g.value(n)
	nibble := kmercount.PlusBranches(v)
	if n.IsMinus() {
		nibble = kmercount.MinusBranches(v)
	}
	if nibble == 0 {
		return nil
	}
	return g.idx.successors(n, nibble, make([]Successor, 0, 4))
}

// ReverseComplement returns the node of the reverse complement k-mer. Node 0
// maps to itself.
func (g *Graph) ReverseComplement(n Node) Node {
	if n == 0 {
		return 0
	}
	return n ^ 1
}

type typedIndex[W kmer.Words] struct {
	kmerLen int
	c       *kmercount.Counts[W]
}

func newTypedIndex[W kmer.Words](c *kmercount.Counts[W]) *typedIndex[W] {
	return &typedIndex[W]{kmerLen: c.KmerLen(), c: c}
}

func (x *typedIndex[W]) find(k kmer.Kmer[W]) Node {
	canon, isRC := k.Canonical(x.kmerLen)
	i := x.c.Find(canon)
	if i >= x.c.Len() {
		return 0
	}
	return NodeOf(i, isRC)
}

func (x *typedIndex[W]) kmerOf(n Node) kmer.Kmer[W] {
	k := x.c.Kmer(n.Index())
	if n.IsMinus() {
		k = k.RevComp(x.kmerLen)
	}
	return k
}

func (x *typedIndex[W]) node(seq string) Node {
	k, ok := kmer.FromString[W](seq)
	if !ok {
		return 0
	}
	return x.find(k)
}

func (x *typedIndex[W]) nodeSeq(n Node) string { return x.kmerOf(n).String(x.kmerLen) }

func (x *typedIndex[W]) successors(n Node, nibble uint8, dst []Successor) []Successor {
	k := x.kmerOf(n)
	for nt := uint8(0); nt < 4; nt++ {
		if nibble&(1<<nt) == 0 {
			continue
		}
		if next := x.find(k.Shift(x.kmerLen, nt)); next != 0 {
			dst = append(dst, Successor{Node: next, Nt: kmer.BaseChar(nt)})
		}
	}
	return dst
}

func (x *typedIndex[W]) nodes(seq string) []Node {
	out := make([]Node, len(seq)-x.kmerLen+1)
	kz := kmer.NewKmerizer[W](x.kmerLen)
	kz.Reset(seq)
	for kz.Scan() {
		w := kz.Get()
		canon, isRC := w.Canonical()
		if i := x.c.Find(canon); i < x.c.Len() {
			out[w.Pos] = NodeOf(i, isRC)
		}
	}
	return out
}
