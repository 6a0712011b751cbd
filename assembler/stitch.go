package assembler

import (
	"github.com/grailbio/assembly/kmercount"
	"github.com/grailbio/base/log"
)

// ConnectFragments joins contigs whose extension was stopped by a node that
// another contig owns. A contig whose right denied node is the first node of
// another contig, or the reverse complement of its last node, is joined to
// it over the k-1 base overlap, provided the denied node is a filtered
// successor of the contig's last node. Left denied nodes are handled by
// flipping the contig. A contig denied by its own first node becomes
// circular. Joining repeats until nothing changes.
//
// It returns the remaining contigs and the number of joins.
func (d *Digger) ConnectFragments(contigs []*Contig) ([]*Contig, int) {
	joins := 0
	for {
		idx := d.indexEnds(contigs)
		if idx == nil {
			break
		}
		used := make([]bool, len(contigs))
		n := 0
		for i, c := range contigs {
			if c == nil || c.Circular || used[i] {
				continue
			}
			if d.joinRight(contigs, i, idx, used) {
				n++
				continue
			}
			if c.LeftDenied != 0 {
				c.ReverseComplement()
				if d.joinRight(contigs, i, idx, used) {
					n++
				}
			}
		}
		joins += n
		if n == 0 {
			break
		}
	}
	out := contigs[:0]
	for _, c := range contigs {
		if c != nil {
			out = append(out, c)
		}
	}
	if joins > 0 {
		log.Debug.Printf("assembler: %d contig joins, %d contigs left", joins, len(out))
	}
	return out, joins
}

// indexEnds maps the first and last k-mers of every linear contig to the
// contig indexes.
func (d *Digger) indexEnds(contigs []*Contig) *kmercount.HashIndex[[]int] {
	idx, err := kmercount.NewHashIndex[[]int](d.kmerLen)
	if err != nil {
		// The graph was built with the same k-mer length.
		log.Panicf("assembler: %v", err)
	}
	add := func(seq string, e int) {
		ends, _, _ := idx.Find(seq)
		if _, err := idx.Insert(seq, append(ends, e)); err != nil {
			log.Panicf("assembler: contig end %s: %v", seq, err)
		}
	}
	n := 0
	for i, c := range contigs {
		if c == nil || c.Circular || len(c.Nodes) == 0 {
			continue
		}
		k := d.kmerLen
		add(c.Seq[:k], i)
		add(c.Seq[len(c.Seq)-k:], i)
		n++
	}
	if n == 0 {
		return nil
	}
	return idx
}

// joinRight tries to extend contigs[i] over its right denied node.
func (d *Digger) joinRight(contigs []*Contig, i int, idx *kmercount.HashIndex[[]int], used []bool) bool {
	a := contigs[i]
	den := a.RightDenied
	if den == 0 {
		return false
	}
	ends, _, ok := idx.Find(d.g.GetNodeSeq(den))
	if !ok {
		return false
	}
	for _, j := range ends {
		b := contigs[j]
		if b == nil || (j != i && used[j]) {
			continue
		}
		var flip bool
		switch {
		case b.FirstNode() == den:
		case b.LastNode() == rcNode(den):
			flip = true
		default:
			continue
		}
		if _, o := d.ConnectTwoNodes(a.LastNode(), den, 1); o != Success {
			continue
		}
		if j == i {
			if flip {
				// The contig folds back onto itself.
				continue
			}
			a.circularize()
			used[i] = true
			return true
		}
		if flip {
			b.ReverseComplement()
		}
		a.Join(b)
		contigs[j] = nil
		used[i], used[j] = true, true
		return true
	}
	return false
}
