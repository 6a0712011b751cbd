// Package readstore packs many variable-length reads into one bit-dense
// buffer, two bits per base, and lists their k-mers and sequences lazily.
//
// Each read occupies a contiguous bit range. Bases are written back to front:
// the last base of a read sits at the lowest bit position of its range, so
// the bits of any window of the read already have the layout of a packed
// kmer.Kmer and can be copied out without decoding.
package readstore

import (
	"sort"

	"github.com/grailbio/assembly/kmer"
	"github.com/grailbio/base/log"
)

const bitsPerBase = 2

// Store holds reads. The zero value is an empty store. A Store is not safe
// for concurrent mutation; concurrent readers are fine once the store stops
// changing.
type Store struct {
	storage []uint64
	// frontBit is the bit offset of the first live read within storage.
	frontBit int
	// endBit is the bit offset just past the last read.
	endBit  int
	readLen []uint32
	// totalSeq is the sum of readLen.
	totalSeq int
}

// New creates an empty store with room for about nBases bases.
func New(nBases int) *Store {
	return &Store{storage: make([]uint64, 0, (nBases*bitsPerBase+63)/64)}
}

// PushBack appends a read. The read must consist of ACGTacgt only; callers
// split reads at ambiguous bases first.
func (s *Store) PushBack(read string) {
	s.grow(len(read) * bitsPerBase)
	pos := s.endBit
	for i := len(read) - 1; i >= 0; i-- {
		b, ok := kmer.BaseBits(read[i])
		if !ok {
			log.Panicf("readstore: non-ACGT base %q in read %s", read[i], read)
		}
		s.storage[pos/64] |= uint64(b) << uint(pos%64)
		pos += bitsPerBase
	}
	s.endBit = pos
	s.readLen = append(s.readLen, uint32(len(read)))
	s.totalSeq += len(read)
}

// PushBackFrom appends the current read of it, copying its bits directly.
//
// REQUIRES: the last it.Scan call returned true.
func (s *Store) PushBackFrom(it *ReadIterator) {
	n := it.Len() * bitsPerBase
	s.grow(n)
	copyBits(s.storage, s.endBit, it.s.storage, it.readBit, it.readBit+n)
	s.endBit += n
	s.readLen = append(s.readLen, uint32(it.Len()))
	s.totalSeq += it.Len()
}

// PopFront removes the oldest read.
func (s *Store) PopFront() {
	if len(s.readLen) == 0 {
		log.Panicf("readstore: PopFront on an empty store")
	}
	n := int(s.readLen[0])
	s.readLen = s.readLen[1:]
	s.totalSeq -= n
	s.frontBit += n * bitsPerBase
	// Release fully consumed words without moving the live bits.
	if w := s.frontBit / 64; w > 0 {
		s.storage = s.storage[w:]
		s.frontBit -= 64 * w
		s.endBit -= 64 * w
	}
	if len(s.readLen) == 0 {
		s.storage = s.storage[:0]
		s.frontBit, s.endBit = 0, 0
	}
}

// grow makes room for n more bits after endBit; the new bits are zero.
func (s *Store) grow(n int) {
	need := (s.endBit + n + 63) / 64
	for len(s.storage) < need {
		s.storage = append(s.storage, 0)
	}
}

// ReadNum is the number of reads.
func (s *Store) ReadNum() int { return len(s.readLen) }

// TotalSeq is the total number of bases.
func (s *Store) TotalSeq() int { return s.totalSeq }

// KmerNum is the number of k-mers of length kmerLen in all reads.
func (s *Store) KmerNum(kmerLen int) int {
	n := 0
	for _, l := range s.readLen {
		if int(l) >= kmerLen {
			n += int(l) - kmerLen + 1
		}
	}
	return n
}

// MaxLength is the length of the longest read.
func (s *Store) MaxLength() int {
	m := 0
	for _, l := range s.readLen {
		if int(l) > m {
			m = int(l)
		}
	}
	return m
}

// NXX returns the read length L such that reads of length >= L contain at
// least fraction xx of all bases. NXX(0.5) is the N50.
func (s *Store) NXX(xx float64) int {
	lens := make([]int, len(s.readLen))
	for i, l := range s.readLen {
		lens[i] = int(l)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lens)))
	target := xx * float64(s.totalSeq)
	sum := 0
	for _, l := range lens {
		sum += l
		if float64(sum) >= target {
			return l
		}
	}
	return 0
}

// ReadLengths returns the length of every read, oldest first.
func (s *Store) ReadLengths() []int {
	out := make([]int, len(s.readLen))
	for i, l := range s.readLen {
		out[i] = int(l)
	}
	return out
}

// copyBits copies bits [from,to) of src to dst starting at bit dstBit.
// Bits of dst outside the destination range are preserved. dst must be large
// enough to hold dstBit+(to-from) bits.
func copyBits(dst []uint64, dstBit int, src []uint64, from, to int) {
	for from < to {
		n := 64 - from%64
		if m := 64 - dstBit%64; m < n {
			n = m
		}
		if m := to - from; m < n {
			n = m
		}
		mask := ^uint64(0)
		if n < 64 {
			mask = (uint64(1) << uint(n)) - 1
		}
		v := (src[from/64] >> uint(from%64)) & mask
		off := uint(dstBit % 64)
		w := &dst[dstBit/64]
		*w = (*w &^ (mask << off)) | v<<off
		from += n
		dstBit += n
	}
}
