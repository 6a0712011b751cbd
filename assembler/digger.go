package assembler

import (
	"context"
	"sort"

	"github.com/grailbio/assembly/dbgraph"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// GetContigForKmerMT builds the contig containing seed. It returns nil if
// the seed is already claimed or fails GoodNode, or if the contig is
// shorter than minLen and neither end was blocked by another contig. In the
// last case the nodes of the discarded contig are moved to Rejected so that
// other workers skip them.
func (d *Digger) GetContigForKmerMT(seed dbgraph.Node, minLen int) *Contig {
	return d.walker().getContigForKmerMT(seed, minLen)
}

func (w *walker) getContigForKmerMT(seed dbgraph.Node, minLen int) *Contig {
	if !w.GoodNode(seed) || !w.g.SetVisited(seed, dbgraph.Owned, dbgraph.Free) {
		return nil
	}
	w.stats.Seeds++

	right, rblock, rout := w.extendToRightMT(seed)
	w.stats.addOutcome(rout, rblock != 0)
	if rblock == seed {
		c := newContig(w.g, seed)
		c.AddToRight(right)
		c.circularize()
		w.stats.Circular++
		w.stats.Contigs++
		return c
	}
	left, lblock, lout := w.extendToRightMT(w.g.ReverseComplement(seed))
	w.stats.addOutcome(lout, lblock != 0)

	if lblock == 0 && rblock == 0 && w.kmerLen+len(left)+len(right) < minLen {
		w.reject(seed, left, right)
		w.stats.ShortRejected++
		return nil
	}
	c := newContig(w.g, seed)
	c.AddToRight(right)
	c.AddToLeft(left)
	c.LeftDenied = w.g.ReverseComplement(lblock)
	c.RightDenied = rblock
	w.stats.Contigs++
	return c
}

// reject releases the nodes of a discarded contig into the Rejected state.
func (w *walker) reject(seed dbgraph.Node, left, right []dbgraph.Successor) {
	w.g.SetVisited(seed, dbgraph.Rejected, dbgraph.Owned)
	for _, s := range left {
		w.g.SetVisited(s.Node, dbgraph.Rejected, dbgraph.Owned)
	}
	for _, s := range right {
		w.g.SetVisited(s.Node, dbgraph.Rejected, dbgraph.Owned)
	}
}

// circularize turns a contig whose last k-mer is followed by its first one
// into a circular contig.
func (c *Contig) circularize() {
	c.Seq = c.Seq[:len(c.Nodes)]
	c.Circular = true
	c.LeftDenied, c.RightDenied = 0, 0
	c.LeftExtend, c.RightExtend = 0, 0
}

// seeds lists the good nodes in order of decreasing abundance.
func (d *Digger) seeds() []dbgraph.Node {
	var seeds []dbgraph.Node
	for i := 0; i < d.g.NodeCount(); i++ {
		if n := dbgraph.NodeOf(i, false); d.GoodNode(n) {
			seeds = append(seeds, n)
		}
	}
	sort.SliceStable(seeds, func(i, j int) bool {
		return d.g.Abundance(seeds[i]) > d.g.Abundance(seeds[j])
	})
	return seeds
}

// GenerateContigs assembles the whole graph. Seeds, in order of decreasing
// abundance, are dealt to Opts.Parallelism workers. Once all workers are
// done the rejected nodes are released, contigs are stitched over their
// denied neighbors if Opts.Stitch is set, and contigs shorter than
// Opts.MinContig are dropped. The result is sorted by decreasing length,
// then sequence.
//
// ctx is checked between seeds.
func (d *Digger) GenerateContigs(ctx context.Context) ([]*Contig, Stats, error) {
	seeds := d.seeds()
	parallelism := d.opts.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultOpts.Parallelism
	}
	if parallelism > len(seeds) {
		parallelism = max(1, len(seeds))
	}
	log.Printf("assembler: %d seeds, %d workers, kmer length %d", len(seeds), parallelism, d.kmerLen)

	results := make([][]*Contig, parallelism)
	stats := make([]Stats, parallelism)
	err := traverse.Each(parallelism, func(job int) error {
		w := d.walker()
		for i := job; i < len(seeds); i += parallelism {
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.g.IsVisited(seeds[i]) {
				continue
			}
			if c := w.getContigForKmerMT(seeds[i], d.opts.MinContig); c != nil {
				results[job] = append(results[job], c)
			}
		}
		stats[job] = w.stats
		return nil
	})
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		contigs []*Contig
		total   Stats
	)
	for job := range results {
		contigs = append(contigs, results[job]...)
		total = total.Merge(stats[job])
	}
	d.g.ClearHoldings()
	log.Debug.Printf("assembler: %d raw contigs: %+v", len(contigs), total)

	if d.opts.Stitch {
		var joins int
		contigs, joins = d.ConnectFragments(contigs)
		total.Joins += joins
	}
	kept := contigs[:0]
	for _, c := range contigs {
		if c.Len() >= d.opts.MinContig {
			c.RotateCircular()
			kept = append(kept, c)
		}
	}
	SortContigs(kept)
	log.Printf("assembler: %d contigs, %d bases, %d joins", len(kept), totalLen(kept), total.Joins)
	return kept, total, nil
}

func totalLen(contigs []*Contig) int {
	n := 0
	for _, c := range contigs {
		n += c.Len()
	}
	return n
}

// SortContigs orders contigs by decreasing length, then by canonical
// sequence. Each linear contig is first turned to its canonical
// orientation.
func SortContigs(contigs []*Contig) {
	for _, c := range contigs {
		if !c.Circular && c.canonicalSeq() != c.Seq {
			c.ReverseComplement()
		}
	}
	sort.SliceStable(contigs, func(i, j int) bool {
		if contigs[i].Len() != contigs[j].Len() {
			return contigs[i].Len() > contigs[j].Len()
		}
		return contigs[i].Seq < contigs[j].Seq
	})
}
