package assembler

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/grailbio/assembly/dbgraph"
	"github.com/grailbio/assembly/kmer"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

// checkNodes verifies that every node of c is the node of its window.
func checkNodes(t *testing.T, g *dbgraph.Graph, c *Contig) {
	seq := c.CircularSeq()
	require.Len(t, c.Nodes, len(seq)-c.KmerLen+1)
	for i, n := range c.Nodes {
		require.Equal(t, g.GetNode(seq[i:i+c.KmerLen]), n, "i=%d", i)
	}
}

// contigOf builds a contig over the windows of seq.
func contigOf(g *dbgraph.Graph, seq string) *Contig {
	return &Contig{Seq: seq, Nodes: g.Nodes(seq), KmerLen: g.KmerLen()}
}

func TestContigExtend(t *testing.T) {
	r := rand.New(rand.NewSource(10))
	genome := randomSeq(r, 300)
	g := buildGraph(t, tileReads(genome, 100, 5), testKmerLen, 2, false)
	d := New(g, DefaultOpts)

	seed := g.GetNode(genome[100 : 100+testKmerLen])
	right, _, o := d.ExtendToRightMT(seed)
	require.Equal(t, NoConnection, o)
	left, _, o := d.ExtendToRightMT(g.ReverseComplement(seed))
	require.Equal(t, NoConnection, o)

	c := newContig(g, seed)
	c.AddToRight(right)
	expect.EQ(t, c.Seq, genome[100:])
	c.AddToLeft(left)
	expect.EQ(t, c.Seq, genome)
	expect.EQ(t, c.LeftExtend, 100)
	expect.EQ(t, c.RightExtend, len(genome)-testKmerLen-100)
	checkNodes(t, g, c)
	expect.EQ(t, c.FirstNode(), g.GetNode(genome[:testKmerLen]))
	expect.EQ(t, c.LastNode(), g.GetNode(genome[len(genome)-testKmerLen:]))

	c.LeftDenied = g.GetNode(genome[5 : 5+testKmerLen])
	c.ReverseComplement()
	expect.EQ(t, c.Seq, kmer.ReverseComplement(genome))
	expect.EQ(t, c.RightDenied, g.ReverseComplement(g.GetNode(genome[5:5+testKmerLen])))
	expect.EQ(t, c.LeftDenied, dbgraph.Node(0))
	expect.EQ(t, c.LeftExtend, len(genome)-testKmerLen-100)
	expect.EQ(t, c.RightExtend, 100)
	checkNodes(t, g, c)

	c.ClipRight(10)
	expect.EQ(t, c.RightDenied, dbgraph.Node(0))
	expect.EQ(t, c.RightExtend, 90)
	c.ClipLeft(20)
	expect.EQ(t, c.Seq, kmer.ReverseComplement(genome[10:len(genome)-20]))
	checkNodes(t, g, c)
}

func TestContigJoin(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	genome := randomSeq(r, 300)
	g := buildGraph(t, tileReads(genome, 100, 5), testKmerLen, 2, false)

	a := contigOf(g, genome[:150])
	b := contigOf(g, genome[150-testKmerLen+1:])
	b.RightDenied = 7
	a.Join(b)
	expect.EQ(t, a.Seq, genome)
	expect.EQ(t, a.RightDenied, dbgraph.Node(7))
	checkNodes(t, g, a)

	require.Panics(t, func() {
		contigOf(g, genome[:150]).Join(contigOf(g, genome[200:]))
	})
}

func TestConnectFragments(t *testing.T) {
	r := rand.New(rand.NewSource(12))
	genome := randomSeq(r, 600)
	g := buildGraph(t, tileReads(genome, 100, 5), testKmerLen, 2, false)
	d := New(g, DefaultOpts)

	// Three fragments of the genome, the middle one flipped, each denied
	// by the first node of the next.
	a := contigOf(g, genome[:200])
	b := contigOf(g, genome[200-testKmerLen+1:400])
	c := contigOf(g, genome[400-testKmerLen+1:])
	a.RightDenied = b.FirstNode()
	b.LeftDenied = a.LastNode()
	b.RightDenied = c.FirstNode()
	c.LeftDenied = b.LastNode()
	b.ReverseComplement()

	contigs, joins := d.ConnectFragments([]*Contig{c, b, a})
	expect.EQ(t, joins, 2)
	require.Len(t, contigs, 1)
	expect.EQ(t, contigs[0].Len(), len(genome))
	expect.EQ(t, contigs[0].canonicalSeq(), canonical(genome))
	checkNodes(t, g, contigs[0])
	expect.EQ(t, contigs[0].LeftDenied, dbgraph.Node(0))
	expect.EQ(t, contigs[0].RightDenied, dbgraph.Node(0))

	// A denied node that is not a contig end joins nothing.
	a = contigOf(g, genome[:200])
	a.RightDenied = g.GetNode(genome[300 : 300+testKmerLen])
	contigs, joins = d.ConnectFragments([]*Contig{a, contigOf(g, genome[250:])})
	expect.EQ(t, joins, 0)
	expect.EQ(t, len(contigs), 2)
}

func TestRotateCircular(t *testing.T) {
	r := rand.New(rand.NewSource(13))
	genome := randomSeq(r, 200)
	ring := genome + genome[:testKmerLen-1]
	var reads []string
	for i := 0; i < 4; i++ {
		reads = append(reads, ring, kmer.ReverseComplement(ring))
	}
	g := buildGraph(t, reads, testKmerLen, 2, false)

	var rotated []string
	for _, shift := range []int{0, 17, 150} {
		for _, rc := range []bool{false, true} {
			seq := genome[shift:] + genome[:shift]
			if rc {
				seq = kmer.ReverseComplement(seq)
			}
			c := contigOf(g, seq+seq[:testKmerLen-1])
			c.Seq = seq
			c.Circular = true
			checkNodes(t, g, c)
			c.RotateCircular()
			checkNodes(t, g, c)
			rotated = append(rotated, c.Seq)
		}
	}
	for _, s := range rotated[1:] {
		expect.EQ(t, s, rotated[0])
	}
}

func TestShortCycle(t *testing.T) {
	c := &Contig{Seq: "ACG", Circular: true, KmerLen: 5}
	expect.EQ(t, c.CircularSeq(), "ACGACGA")

	c = &Contig{Seq: "CGTA", Circular: true, KmerLen: 25}
	seq := c.CircularSeq()
	require.Len(t, seq, 4+24)
	for i := 0; i < 4; i++ {
		w := seq[i : i+25]
		expect.EQ(t, w, strings.Repeat(w[:4], 7)[:25])
	}
	c.RotateCircular()
	expect.EQ(t, c.Seq, "ACGT")

	c = &Contig{Seq: "ACG", KmerLen: 5}
	expect.EQ(t, c.CircularSeq(), "ACG")
}

func TestDigest(t *testing.T) {
	r := rand.New(rand.NewSource(14))
	x, y := randomSeq(r, 300), randomSeq(r, 250)
	z := randomSeq(r, 100)
	mk := func(seq string, circular bool) *Contig {
		return &Contig{Seq: seq, Circular: circular, KmerLen: testKmerLen}
	}
	d0 := Digest([]*Contig{mk(x, false), mk(y, false), mk(z, true)})
	d1 := Digest([]*Contig{mk(z[40:]+z[:40], true), mk(kmer.ReverseComplement(y), false), mk(x, false)})
	expect.EQ(t, d0, d1)
	expect.EQ(t, Digest([]*Contig{mk(kmer.ReverseComplement(z), true), mk(x, false), mk(y, false)}), d0)

	expect.True(t, Digest([]*Contig{mk(x, false), mk(y, false)}) != d0)
	expect.True(t, Digest([]*Contig{mk(x, false), mk(y, false), mk(z, false)}) != d0)
	expect.True(t, Digest([]*Contig{mk(x+y, false), mk(z, true)}) != d0)
}

func TestSortContigs(t *testing.T) {
	r := rand.New(rand.NewSource(15))
	x, y, z := randomSeq(r, 300), randomSeq(r, 250), randomSeq(r, 250)
	contigs := []*Contig{
		{Seq: kmer.ReverseComplement(y), KmerLen: testKmerLen},
		{Seq: x, KmerLen: testKmerLen},
		{Seq: z, KmerLen: testKmerLen},
	}
	SortContigs(contigs)
	expect.EQ(t, contigs[0].Seq, canonical(x))
	if canonical(y) < canonical(z) {
		expect.EQ(t, contigs[1].Seq, canonical(y))
		expect.EQ(t, contigs[2].Seq, canonical(z))
	} else {
		expect.EQ(t, contigs[1].Seq, canonical(z))
		expect.EQ(t, contigs[2].Seq, canonical(y))
	}
}

func TestStatsMerge(t *testing.T) {
	a := Stats{Seeds: 1, Contigs: 2, Blocked: 3, Bubbles: 4}
	b := Stats{Seeds: 10, DeadEnds: 5, Ambiguous: 6, Joins: 1}
	expect.EQ(t, a.Merge(b), Stats{Seeds: 11, Contigs: 2, DeadEnds: 5, Ambiguous: 6, Blocked: 3, Bubbles: 4, Joins: 1})
	expect.EQ(t, a.Seeds, 1)
}

func TestOutcomeString(t *testing.T) {
	expect.EQ(t, Success.String(), "success")
	expect.EQ(t, NoConnection.String(), "no_connection")
	expect.EQ(t, Ambiguous.String(), "ambiguous")
}
