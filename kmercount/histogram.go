package kmercount

import (
	"github.com/biogo/store/llrb"
)

// Bin is one histogram bin: Count distinct k-mers occur Abundance times.
type Bin struct {
	Abundance int
	Count     uint64
}

// Bins is a k-mer abundance histogram sorted by increasing abundance.
type Bins []Bin

// Mass is the total number of k-mer occurrences, sum(Abundance*Count).
func (b Bins) Mass() uint64 {
	var m uint64
	for _, bin := range b {
		m += uint64(bin.Abundance) * bin.Count
	}
	return m
}

// Distinct is the total number of distinct k-mers, sum(Count).
func (b Bins) Distinct() uint64 {
	var n uint64
	for _, bin := range b {
		n += bin.Count
	}
	return n
}

type histBin struct {
	abundance int
	count     uint64
}

// Compare compares two histBin objects for use in llrb.
func (h *histBin) Compare(c llrb.Comparable) int {
	return h.abundance - c.(*histBin).abundance
}

// histogram accumulates abundances. Thread compatible.
type histogram struct {
	tree llrb.Tree
}

func (h *histogram) add(abundance int, n uint64) {
	if c := h.tree.Get(&histBin{abundance: abundance}); c != nil {
		c.(*histBin).count += n
		return
	}
	h.tree.Insert(&histBin{abundance: abundance, count: n})
}

func (h *histogram) bins() Bins {
	bins := make(Bins, 0, h.tree.Len())
	h.tree.Do(func(c llrb.Comparable) bool {
		b := c.(*histBin)
		bins = append(bins, Bin{Abundance: b.abundance, Count: b.count})
		return false
	})
	return bins
}

// Histogram computes the abundance histogram of a collapsed table.
func Histogram(t *Table) Bins {
	var h histogram
	for i, n := 0, t.Len(); i < n; i++ {
		h.add(int(Count(t.Value(i))), 1)
	}
	return h.bins()
}
