// Package kmercount counts canonical k-mers of read sets and stores them in
// sorted tables and hash indexes whose word width is picked from the k-mer
// length at construction.
package kmercount

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/grailbio/assembly/kmer"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// variant is the precision-independent view of a *Counts[W].
type variant interface {
	KmerLen() int
	Len() int
	Reserve(n int)
	Sort()
	SortAndUniq(minCount uint32)
	Clear()
	Value(i int) uint64
	SetValue(i int, v uint64)
	KmerSeq(i int) string
	FindSeq(seq string) int
	writeEntries(w io.Writer) error
	readEntries(r io.Reader, n int) error
}

// Table is a sorted k-mer count table. It holds a Counts of the smallest
// precision that fits its k-mer length; code that walks the table on a hot
// path takes the typed view with As.
//
// A zero Table is not usable; create one with NewTable.
type Table struct {
	prec kmer.Precision
	v    variant
}

// NewTable creates an empty table for k-mers of the given length.
func NewTable(kmerLen int) (*Table, error) {
	prec, err := kmer.PrecisionFor(kmerLen)
	if err != nil {
		return nil, err
	}
	t := &Table{prec: prec}
	switch prec {
	case kmer.P1:
		t.v = NewCounts[kmer.W1](kmerLen)
	case kmer.P2:
		t.v = NewCounts[kmer.W2](kmerLen)
	case kmer.P4:
		t.v = NewCounts[kmer.W4](kmerLen)
	case kmer.P8:
		t.v = NewCounts[kmer.W8](kmerLen)
	default:
		t.v = NewCounts[kmer.W16](kmerLen)
	}
	return t, nil
}

// WrapCounts wraps a typed table.
func WrapCounts[W kmer.Words](c *Counts[W]) *Table {
	return &Table{prec: kmer.PrecisionOf[W](), v: c}
}

// As returns the typed view of t. It panics if t does not hold k-mers of
// width W.
func As[W kmer.Words](t *Table) *Counts[W] {
	c, ok := t.get().(*Counts[W])
	if !ok {
		log.Panicf("kmercount: table of precision %v accessed as %v", t.prec, kmer.PrecisionOf[W]())
	}
	return c
}

func (t *Table) get() variant {
	if t.v == nil {
		log.Panicf("kmercount: uninitialized table")
	}
	return t.v
}

// Precision is the word width of the table.
func (t *Table) Precision() kmer.Precision { t.get(); return t.prec }

// KmerLen is the length of the k-mers in the table.
func (t *Table) KmerLen() int { return t.get().KmerLen() }

// Len is the number of entries.
func (t *Table) Len() int { return t.get().Len() }

// Reserve grows the capacity to hold at least n entries.
func (t *Table) Reserve(n int) { t.get().Reserve(n) }

// Sort orders the entries by k-mer.
func (t *Table) Sort() { t.get().Sort() }

// SortAndUniq sorts and collapses the table; see Counts.SortAndUniq.
func (t *Table) SortAndUniq(minCount uint32) { t.get().SortAndUniq(minCount) }

// Clear removes all entries.
func (t *Table) Clear() { t.get().Clear() }

// Value returns the packed value of the i'th entry.
func (t *Table) Value(i int) uint64 { return t.get().Value(i) }

// SetValue replaces the packed value of the i'th entry.
func (t *Table) SetValue(i int, v uint64) { t.get().SetValue(i, v) }

// KmerSeq decodes the k-mer of the i'th entry.
func (t *Table) KmerSeq(i int) string { return t.get().KmerSeq(i) }

// FindSeq returns the index of the canonical form of seq, or Len() if absent.
func (t *Table) FindSeq(seq string) int { return t.get().FindSeq(seq) }

// PushBackSeq appends seq, as given, with value v. It returns false if seq has
// the wrong length or a non-ACGT base.
func (t *Table) PushBackSeq(seq string, v uint64) bool {
	if len(seq) != t.KmerLen() {
		return false
	}
	switch c := t.v.(type) {
	case *Counts[kmer.W1]:
		return pushSeq(c, seq, v)
	case *Counts[kmer.W2]:
		return pushSeq(c, seq, v)
	case *Counts[kmer.W4]:
		return pushSeq(c, seq, v)
	case *Counts[kmer.W8]:
		return pushSeq(c, seq, v)
	case *Counts[kmer.W16]:
		return pushSeq(c, seq, v)
	}
	panic(t.prec)
}

func pushSeq[W kmer.Words](c *Counts[W], seq string, v uint64) bool {
	k, ok := kmer.FromString[W](seq)
	if ok {
		c.PushBack(k, v)
	}
	return ok
}

func (t *Table) compatible(other *Table) error {
	if t.Precision() != other.Precision() || t.KmerLen() != other.KmerLen() {
		return errors.E(errors.Invalid,
			fmt.Sprintf("kmercount: mixing tables of kmer length %d (%v) and %d (%v)",
				t.KmerLen(), t.prec, other.KmerLen(), other.prec))
	}
	return nil
}

// MergeTwoSorted merges other into t; see Counts.MergeTwoSorted. Both tables
// must have the same k-mer length.
func (t *Table) MergeTwoSorted(other *Table) error {
	if err := t.compatible(other); err != nil {
		return err
	}
	switch c := t.v.(type) {
	case *Counts[kmer.W1]:
		c.MergeTwoSorted(other.v.(*Counts[kmer.W1]))
	case *Counts[kmer.W2]:
		c.MergeTwoSorted(other.v.(*Counts[kmer.W2]))
	case *Counts[kmer.W4]:
		c.MergeTwoSorted(other.v.(*Counts[kmer.W4]))
	case *Counts[kmer.W8]:
		c.MergeTwoSorted(other.v.(*Counts[kmer.W8]))
	case *Counts[kmer.W16]:
		c.MergeTwoSorted(other.v.(*Counts[kmer.W16]))
	}
	return nil
}

// SortAndExtractUniq writes the collapsed entries of t with count at least
// minCount into dst; see Counts.SortAndExtractUniq.
func (t *Table) SortAndExtractUniq(minCount uint32, dst *Table) error {
	if err := t.compatible(dst); err != nil {
		return err
	}
	switch c := t.v.(type) {
	case *Counts[kmer.W1]:
		c.SortAndExtractUniq(minCount, dst.v.(*Counts[kmer.W1]))
	case *Counts[kmer.W2]:
		c.SortAndExtractUniq(minCount, dst.v.(*Counts[kmer.W2]))
	case *Counts[kmer.W4]:
		c.SortAndExtractUniq(minCount, dst.v.(*Counts[kmer.W4]))
	case *Counts[kmer.W8]:
		c.SortAndExtractUniq(minCount, dst.v.(*Counts[kmer.W8]))
	case *Counts[kmer.W16]:
		c.SortAndExtractUniq(minCount, dst.v.(*Counts[kmer.W16]))
	}
	return nil
}

// Save writes the table in its binary form: int64 kmer length, int64
// entry count, then for every entry the k-mer words (word 0 first) followed
// by the value, all little endian. The layout does not depend on the host.
func (t *Table) Save(w io.Writer) error {
	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[0:], uint64(t.KmerLen()))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(t.Len()))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	return t.v.writeEntries(w)
}

// Load reads a table written by Save. It consumes exactly the bytes
// of the table, so r may carry more data after it.
func Load(r io.Reader) (*Table, error) {
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	kmerLen := int64(binary.LittleEndian.Uint64(hdr[0:]))
	n := int64(binary.LittleEndian.Uint64(hdr[8:]))
	if kmerLen < 1 || kmerLen > kmer.MaxKmerLen {
		return nil, errors.E(errors.NotSupported, fmt.Sprintf("kmercount: stored kmer length %d", kmerLen))
	}
	if n < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("kmercount: stored entry count %d", n))
	}
	t, err := NewTable(int(kmerLen))
	if err != nil {
		return nil, err
	}
	if err := t.v.readEntries(r, int(n)); err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Counts[W]) writeEntries(w io.Writer) error {
	nw := kmer.Kmer[W]{}.NumWords()
	buf := make([]byte, 8*(nw+1))
	for i := range c.entries {
		e := &c.entries[i]
		for j := 0; j < nw; j++ {
			binary.LittleEndian.PutUint64(buf[8*j:], e.Kmer.Word(j))
		}
		binary.LittleEndian.PutUint64(buf[8*nw:], e.Value)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func (c *Counts[W]) readEntries(r io.Reader, n int) error {
	nw := kmer.Kmer[W]{}.NumWords()
	buf := make([]byte, 8*(nw+1))
	words := make([]uint64, nw)
	c.entries = make([]Entry[W], 0, min(n, 1<<20))
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		for j := range words {
			words[j] = binary.LittleEndian.Uint64(buf[8*j:])
		}
		c.entries = append(c.entries, Entry[W]{
			Kmer:  kmer.FromWords[W](words),
			Value: binary.LittleEndian.Uint64(buf[8*nw:]),
		})
	}
	return nil
}
