package assembler

import (
	"fmt"
	"strings"

	"github.com/grailbio/assembly/dbgraph"
	"github.com/grailbio/assembly/kmer"
	"github.com/grailbio/base/log"
)

// Contig is an assembled sequence together with the graph node of each of
// its k-mer windows.
type Contig struct {
	// Seq is the base sequence.
	Seq string
	// Nodes[i] is the node of Seq[i:i+KmerLen], 0 if it is not in the graph.
	Nodes []dbgraph.Node
	// LeftDenied and RightDenied are the neighbor nodes the extension could
	// not claim because another contig owned them. 0 if the extension
	// stopped for another reason.
	LeftDenied, RightDenied dbgraph.Node
	// LeftExtend and RightExtend are the number of bases on each side that
	// were added by extension rather than being part of the seed.
	LeftExtend, RightExtend int
	// Circular is set if the last k-mer is followed by the first one. The
	// sequence then does not repeat its first k-1 bases at the end.
	Circular bool
	// KmerLen is the k-mer length of the graph the contig was built on.
	KmerLen int
}

// newContig creates a contig made of one node.
func newContig(g *dbgraph.Graph, n dbgraph.Node) *Contig {
	return &Contig{
		Seq:     g.GetNodeSeq(n),
		Nodes:   []dbgraph.Node{n},
		KmerLen: g.KmerLen(),
	}
}

// Len is the length of the sequence.
func (c *Contig) Len() int { return len(c.Seq) }

func (c *Contig) String() string {
	return fmt.Sprintf("contig{len:%d, circular:%v, denied:(%d,%d), extend:(%d,%d)}",
		len(c.Seq), c.Circular, c.LeftDenied, c.RightDenied, c.LeftExtend, c.RightExtend)
}

// AddToRight appends the bases of a right extension.
func (c *Contig) AddToRight(edges []dbgraph.Successor) {
	if len(edges) == 0 {
		return
	}
	b := make([]byte, 0, len(c.Seq)+len(edges))
	b = append(b, c.Seq...)
	for _, e := range edges {
		b = append(b, e.Nt)
		c.Nodes = append(c.Nodes, e.Node)
	}
	c.Seq = string(b)
	c.RightExtend += len(edges)
}

// AddToLeft prepends the bases of an extension made to the right of the
// reverse complement of the first node.
func (c *Contig) AddToLeft(edges []dbgraph.Successor) {
	if len(edges) == 0 {
		return
	}
	b := make([]byte, len(edges), len(edges)+len(c.Seq))
	nodes := make([]dbgraph.Node, len(edges), len(edges)+len(c.Nodes))
	for i, e := range edges {
		j := len(edges) - 1 - i
		b[j] = kmer.Complement(e.Nt)
		nodes[j] = e.Node ^ 1
	}
	c.Seq = string(append(b, c.Seq...))
	c.Nodes = append(nodes, c.Nodes...)
	c.LeftExtend += len(edges)
}

// ClipRight removes n bases from the right end.
func (c *Contig) ClipRight(n int) {
	if n <= 0 {
		return
	}
	if n > len(c.Nodes) {
		n = len(c.Nodes)
	}
	c.Seq = c.Seq[:len(c.Seq)-n]
	c.Nodes = c.Nodes[:len(c.Nodes)-n]
	c.RightExtend = max(0, c.RightExtend-n)
	c.RightDenied = 0
}

// ClipLeft removes n bases from the left end.
func (c *Contig) ClipLeft(n int) {
	if n <= 0 {
		return
	}
	if n > len(c.Nodes) {
		n = len(c.Nodes)
	}
	c.Seq = c.Seq[n:]
	c.Nodes = c.Nodes[n:]
	c.LeftExtend = max(0, c.LeftExtend-n)
	c.LeftDenied = 0
}

func rcNode(n dbgraph.Node) dbgraph.Node {
	if n == 0 {
		return 0
	}
	return n ^ 1
}

// ReverseComplement flips the contig in place.
func (c *Contig) ReverseComplement() {
	c.Seq = kmer.ReverseComplement(c.Seq)
	nodes := make([]dbgraph.Node, len(c.Nodes))
	for i, n := range c.Nodes {
		nodes[len(nodes)-1-i] = rcNode(n)
	}
	c.Nodes = nodes
	c.LeftDenied, c.RightDenied = rcNode(c.RightDenied), rcNode(c.LeftDenied)
	c.LeftExtend, c.RightExtend = c.RightExtend, c.LeftExtend
}

// FirstNode is the node of the first k-mer.
func (c *Contig) FirstNode() dbgraph.Node { return c.Nodes[0] }

// LastNode is the node of the last k-mer.
func (c *Contig) LastNode() dbgraph.Node { return c.Nodes[len(c.Nodes)-1] }

// Join appends other, whose first k-mer must follow the last k-mer of c in
// the graph, so the two sequences overlap by KmerLen-1 bases. other is left
// unchanged.
func (c *Contig) Join(other *Contig) {
	k := c.KmerLen
	if c.Seq[len(c.Seq)-(k-1):] != other.Seq[:k-1] {
		log.Panicf("assembler: joining %v and %v without a %d base overlap", c, other, k-1)
	}
	c.Seq += other.Seq[k-1:]
	c.Nodes = append(c.Nodes, other.Nodes...)
	c.RightDenied = other.RightDenied
	c.RightExtend = other.RightExtend
}

// RotateCircular turns a circular contig so that it starts at its smallest
// k-mer, choosing the orientation that has it. The result does not depend on
// where the cycle was entered.
func (c *Contig) RotateCircular() {
	if !c.Circular {
		return
	}
	// Stored sequence is the cycle; Nodes[i] starts at Seq[i] modulo len.
	n, k := len(c.Seq), c.KmerLen
	best, bestRC := "", false
	bestPos := 0
	for _, rc := range []bool{false, true} {
		seq := c.Seq
		if rc {
			seq = kmer.ReverseComplement(seq)
		}
		ext := cyclicExtend(seq, k)
		for i := 0; i+k <= len(ext) && i < n; i++ {
			if w := ext[i : i+k]; best == "" || w < best {
				best, bestRC, bestPos = w, rc, i
			}
		}
	}
	if bestRC {
		c.reverseComplementCircular()
	}
	c.Seq = c.Seq[bestPos:] + c.Seq[:bestPos]
	if len(c.Nodes) == n {
		c.Nodes = append(append([]dbgraph.Node(nil), c.Nodes[bestPos:]...), c.Nodes[:bestPos]...)
	}
}

// reverseComplementCircular flips a circular contig; window i of the result
// starts at base i of the flipped cycle.
func (c *Contig) reverseComplementCircular() {
	n, k := len(c.Seq), c.KmerLen
	c.Seq = kmer.ReverseComplement(c.Seq)
	if len(c.Nodes) != n {
		return
	}
	// The window starting at i in the flipped cycle is the reverse
	// complement of the window ending at n-1-i in the original, which starts
	// at n-i-k modulo n.
	nodes := make([]dbgraph.Node, n)
	for i := range nodes {
		nodes[i] = rcNode(c.Nodes[((n-i-k)%n+n)%n])
	}
	c.Nodes = nodes
}

// CircularSeq returns the cycle of a circular contig written as a linear
// sequence that repeats its first k-1 bases at the end, so that every k-mer
// of the cycle appears as a window.
func (c *Contig) CircularSeq() string {
	if !c.Circular {
		return c.Seq
	}
	return cyclicExtend(c.Seq, c.KmerLen)
}

// cyclicExtend repeats the cycle seq until it is len(seq)+k-1 bases long.
// Cycles shorter than k-1 wrap more than once.
func cyclicExtend(seq string, k int) string {
	n := len(seq)
	if n == 0 || k <= 1 {
		return seq
	}
	b := make([]byte, n+k-1)
	for i := range b {
		b[i] = seq[i%n]
	}
	return string(b)
}

// MeanAbundance is the average abundance of the contig's nodes.
func (c *Contig) MeanAbundance(g *dbgraph.Graph) float64 {
	if len(c.Nodes) == 0 {
		return 0
	}
	total := 0
	for _, n := range c.Nodes {
		total += g.Abundance(n)
	}
	return float64(total) / float64(len(c.Nodes))
}

// canonicalSeq is the smaller of the sequence and its reverse complement.
func (c *Contig) canonicalSeq() string {
	rc := kmer.ReverseComplement(c.Seq)
	if strings.Compare(rc, c.Seq) < 0 {
		return rc
	}
	return c.Seq
}
