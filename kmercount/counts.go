package kmercount

import (
	"sort"

	"github.com/grailbio/assembly/kmer"
)

// Entry is one (k-mer, value) pair of a Counts.
type Entry[W kmer.Words] struct {
	Kmer  kmer.Kmer[W]
	Value uint64
}

// Counts is a k-mer count table of a fixed precision. Entries are appended
// unsorted and then sorted and collapsed with SortAndUniq, after which Find
// can be used.
type Counts[W kmer.Words] struct {
	kmerLen int
	entries []Entry[W]
}

// NewCounts creates an empty table for k-mers of the given length.
func NewCounts[W kmer.Words](kmerLen int) *Counts[W] {
	return &Counts[W]{kmerLen: kmerLen}
}

// KmerLen is the length of the k-mers in the table.
func (c *Counts[W]) KmerLen() int { return c.kmerLen }

// Len is the number of entries.
func (c *Counts[W]) Len() int { return len(c.entries) }

// Reserve grows the capacity to hold at least n entries.
func (c *Counts[W]) Reserve(n int) {
	if cap(c.entries) < n {
		e := make([]Entry[W], len(c.entries), n)
		copy(e, c.entries)
		c.entries = e
	}
}

// PushBack appends an entry.
func (c *Counts[W]) PushBack(k kmer.Kmer[W], v uint64) {
	c.entries = append(c.entries, Entry[W]{Kmer: k, Value: v})
}

// Kmer returns the k-mer of the i'th entry.
func (c *Counts[W]) Kmer(i int) kmer.Kmer[W] { return c.entries[i].Kmer }

// Value returns the value of the i'th entry.
func (c *Counts[W]) Value(i int) uint64 { return c.entries[i].Value }

// SetValue replaces the value of the i'th entry.
func (c *Counts[W]) SetValue(i int, v uint64) { c.entries[i].Value = v }

// Clear removes all entries, keeping the storage.
func (c *Counts[W]) Clear() { c.entries = c.entries[:0] }

// Sort orders the entries by k-mer.
func (c *Counts[W]) Sort() {
	sort.Slice(c.entries, func(i, j int) bool {
		return c.entries[i].Kmer.Less(c.entries[j].Kmer)
	})
}

// SortAndUniq sorts the table, collapses equal k-mers into one entry whose
// value is the saturating sum of the collapsed values, and drops entries whose
// count is below minCount.
func (c *Counts[W]) SortAndUniq(minCount uint32) {
	c.Sort()
	c.entries = uniq(c.entries, c.entries[:0], minCount)
}

// SortAndExtractUniq sorts the table and writes the collapsed entries whose
// count is at least minCount into dst, replacing its contents. The receiver
// stays sorted but is otherwise unchanged.
//
// REQUIRES: dst != c.
func (c *Counts[W]) SortAndExtractUniq(minCount uint32, dst *Counts[W]) {
	c.Sort()
	dst.kmerLen = c.kmerLen
	dst.entries = uniq(c.entries, dst.entries[:0], minCount)
}

// uniq collapses runs of equal k-mers of the sorted src into dst. dst may
// alias src[:0].
func uniq[W kmer.Words](src, dst []Entry[W], minCount uint32) []Entry[W] {
	for i := 0; i < len(src); {
		e := src[i]
		j := i + 1
		for ; j < len(src) && src[j].Kmer == e.Kmer; j++ {
			e.Value = AddCounts(e.Value, src[j].Value)
		}
		if Count(e.Value) >= minCount {
			dst = append(dst, e)
		}
		i = j
	}
	return dst
}

// MergeTwoSorted merges the sorted, collapsed other into the receiver, which
// must be sorted and collapsed too. Values of k-mers present in both are
// added.
func (c *Counts[W]) MergeTwoSorted(other *Counts[W]) {
	a, b := c.entries, other.entries
	merged := make([]Entry[W], 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch a[i].Kmer.Compare(b[j].Kmer) {
		case -1:
			merged = append(merged, a[i])
			i++
		case 1:
			merged = append(merged, b[j])
			j++
		default:
			merged = append(merged, Entry[W]{Kmer: a[i].Kmer, Value: AddCounts(a[i].Value, b[j].Value)})
			i++
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	c.entries = merged
}

// Find returns the index of k in the sorted table, or Len() if absent.
func (c *Counts[W]) Find(k kmer.Kmer[W]) int {
	i := sort.Search(len(c.entries), func(i int) bool {
		return !c.entries[i].Kmer.Less(k)
	})
	if i < len(c.entries) && c.entries[i].Kmer == k {
		return i
	}
	return len(c.entries)
}

// KmerSeq decodes the k-mer of the i'th entry.
func (c *Counts[W]) KmerSeq(i int) string { return c.entries[i].Kmer.String(c.kmerLen) }

// FindSeq looks up the canonical form of seq. It returns Len() if seq is
// absent, has the wrong length or contains a non-ACGT base.
func (c *Counts[W]) FindSeq(seq string) int {
	if len(seq) != c.kmerLen {
		return len(c.entries)
	}
	k, ok := kmer.FromString[W](seq)
	if !ok {
		return len(c.entries)
	}
	k, _ = k.Canonical(c.kmerLen)
	return c.Find(k)
}

// Do calls fn for every entry in order.
func (c *Counts[W]) Do(fn func(i int, k kmer.Kmer[W], v uint64)) {
	for i := range c.entries {
		fn(i, c.entries[i].Kmer, c.entries[i].Value)
	}
}
