package readstore

import (
	"github.com/grailbio/assembly/kmer"
)

// KmerIterator lists every window of length kmerLen of a range of reads, in
// read order and, within a read, left to right. Reads shorter than kmerLen
// are skipped and no window straddles two reads. The iterator reads the
// store in place; it becomes invalid once the store is mutated.
//
// Example:
//   it := readstore.Kmers[kmer.W1](store, 25)
//   for it.Scan() {
//     k := it.Get()
//     ...
//   }
type KmerIterator[W kmer.Words] struct {
	s       *Store
	kmerLen int

	read, readLimit int // current read index, one past the last read to visit.
	readBit         int // bit offset of the current read in s.storage.
	pos             int // offset of the next window in the current read.

	cur kmer.Kmer[W]
	buf []uint64
}

// Kmers lists the k-mers of all reads in the store.
func Kmers[W kmer.Words](s *Store, kmerLen int) *KmerIterator[W] {
	return newKmerIterator[W](s, kmerLen, 0, len(s.readLen), s.frontBit)
}

// ReadKmers lists the k-mers of the read the iterator is positioned at.
//
// REQUIRES: the last it.Scan call returned true.
func ReadKmers[W kmer.Words](it *ReadIterator, kmerLen int) *KmerIterator[W] {
	return newKmerIterator[W](it.s, kmerLen, it.read, it.read+1, it.readBit)
}

func newKmerIterator[W kmer.Words](s *Store, kmerLen, read, readLimit, readBit int) *KmerIterator[W] {
	return &KmerIterator[W]{
		s:         s,
		kmerLen:   kmerLen,
		read:      read,
		readLimit: readLimit,
		readBit:   readBit,
		buf:       make([]uint64, (kmerLen*bitsPerBase+63)/64),
	}
}

// Scan advances to the next window.
func (it *KmerIterator[W]) Scan() bool {
	for it.read < it.readLimit {
		l := int(it.s.readLen[it.read])
		if it.pos+it.kmerLen <= l {
			// Bases are stored back to front, so the window starting at pos ends
			// (kmer-wise) at the lowest bit of its range.
			from := it.readBit + bitsPerBase*(l-it.pos-it.kmerLen)
			for i := range it.buf {
				it.buf[i] = 0
			}
			copyBits(it.buf, 0, it.s.storage, from, from+bitsPerBase*it.kmerLen)
			it.cur = kmer.FromWords[W](it.buf)
			it.pos++
			return true
		}
		it.readBit += bitsPerBase * l
		it.read++
		it.pos = 0
	}
	return false
}

// Get yields the current k-mer.
//
// REQUIRES: the last Scan call returned true.
func (it *KmerIterator[W]) Get() kmer.Kmer[W] { return it.cur }

// ReadIterator lists the reads of a store, oldest first. Like KmerIterator it
// is only valid while the store is unchanged.
type ReadIterator struct {
	s       *Store
	read    int
	readBit int
	started bool
}

// Reads lists all reads in the store.
func (s *Store) Reads() *ReadIterator {
	return &ReadIterator{s: s, readBit: s.frontBit}
}

// Scan advances to the next read.
func (it *ReadIterator) Scan() bool {
	if it.started {
		if it.read >= len(it.s.readLen) {
			return false
		}
		it.readBit += bitsPerBase * int(it.s.readLen[it.read])
		it.read++
	}
	it.started = true
	return it.read < len(it.s.readLen)
}

// Len is the length of the current read.
func (it *ReadIterator) Len() int { return int(it.s.readLen[it.read]) }

// Get reconstructs the current read.
func (it *ReadIterator) Get() string {
	l := it.Len()
	out := make([]byte, l)
	for i := 0; i < l; i++ {
		bit := it.readBit + bitsPerBase*(l-1-i)
		out[i] = kmer.BaseChar(uint8(it.s.storage[bit/64] >> uint(bit%64)))
	}
	return string(out)
}
