// Package kmer implements fixed-width packed DNA k-mers.
//
// A k-mer stores two bits per base (A=0, C=1, G=2, T=3). The last base of the
// k-mer occupies the lowest two bits of word 0, so appending a base on the
// right is a two-bit left shift. The width of a k-mer is one of five word
// counts (see Precision); the zero-valued high words of a short k-mer are
// never set.
package kmer

import (
	"math/bits"

	farm "github.com/dgryski/go-farm"
)

const invalidBaseBits = uint8(255)

var (
	asciiToBaseMap [256]uint8
	baseToASCII    = [4]byte{'A', 'C', 'G', 'T'}
	complementMap  [256]byte
)

func init() {
	for i := range asciiToBaseMap {
		asciiToBaseMap[i] = invalidBaseBits
		complementMap[i] = 'N'
	}
	asciiToBaseMap['A'] = 0
	asciiToBaseMap['a'] = 0
	asciiToBaseMap['C'] = 1
	asciiToBaseMap['c'] = 1
	asciiToBaseMap['G'] = 2
	asciiToBaseMap['g'] = 2
	asciiToBaseMap['T'] = 3
	asciiToBaseMap['t'] = 3

	complementMap['A'] = 'T'
	complementMap['a'] = 'T'
	complementMap['C'] = 'G'
	complementMap['c'] = 'G'
	complementMap['G'] = 'C'
	complementMap['g'] = 'C'
	complementMap['T'] = 'A'
	complementMap['t'] = 'A'
}

// BaseBits returns the 2-bit code of ch. It returns false if ch is not one of
// ACGTacgt.
func BaseBits(ch byte) (uint8, bool) {
	b := asciiToBaseMap[ch]
	return b, b != invalidBaseBits
}

// BaseChar returns the uppercase letter for a 2-bit base code.
func BaseChar(nt uint8) byte { return baseToASCII[nt&3] }

// Complement returns the complementary base letter; anything other than
// ACGTacgt maps to 'N'.
func Complement(ch byte) byte { return complementMap[ch] }

// ReverseComplement returns the reverse complement of an ASCII sequence.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		out[len(seq)-1-i] = complementMap[seq[i]]
	}
	return string(out)
}

// IsACGT reports whether seq consists of ACGTacgt only.
func IsACGT(seq string) bool {
	for i := 0; i < len(seq); i++ {
		if asciiToBaseMap[seq[i]] == invalidBaseBits {
			return false
		}
	}
	return true
}

// Word widths for the five precisions.
type (
	W1  = [1]uint64
	W2  = [2]uint64
	W4  = [4]uint64
	W8  = [8]uint64
	W16 = [16]uint64
)

// Words is the set of backing arrays a Kmer can use.
type Words interface {
	W1 | W2 | W4 | W8 | W16
}

// Kmer is a packed k-mer of up to 32*len(W) bases. The k-mer length is not
// stored; operations that depend on it take it as an argument.
type Kmer[W Words] struct {
	w W
}

// FromString encodes seq. It returns false if seq contains a non-ACGT
// character or is longer than the width allows.
func FromString[W Words](seq string) (Kmer[W], bool) {
	var k Kmer[W]
	if len(seq) > 32*len(k.w) {
		return k, false
	}
	for i := 0; i < len(seq); i++ {
		b := asciiToBaseMap[seq[i]]
		if b == invalidBaseBits {
			return Kmer[W]{}, false
		}
		j := len(seq) - 1 - i
		k.w[j/32] |= uint64(b) << (2 * uint(j%32))
	}
	return k, true
}

// FromWords builds a k-mer from raw words, word 0 first. Extra source words
// are ignored.
func FromWords[W Words](src []uint64) Kmer[W] {
	var k Kmer[W]
	for i := 0; i < len(k.w) && i < len(src); i++ {
		k.w[i] = src[i]
	}
	return k
}

// NumWords is the number of 64-bit words backing the k-mer.
func (k Kmer[W]) NumWords() int { return len(k.w) }

// Word returns the i'th 64-bit word. Word 0 holds the last 32 bases.
func (k Kmer[W]) Word(i int) uint64 { return k.w[i] }

// String decodes the k-mer into ASCII.
func (k Kmer[W]) String(kmerLen int) string {
	out := make([]byte, kmerLen)
	for i := 0; i < kmerLen; i++ {
		out[i] = baseToASCII[k.baseFromRight(kmerLen-1-i)]
	}
	return string(out)
}

func (k Kmer[W]) baseFromRight(j int) uint8 {
	return uint8(k.w[j/32]>>(2*uint(j%32))) & 3
}

// Base returns the 2-bit code of the i'th base (0 = leftmost).
func (k Kmer[W]) Base(kmerLen, i int) uint8 { return k.baseFromRight(kmerLen - 1 - i) }

// LastBase returns the 2-bit code of the rightmost base.
func (k Kmer[W]) LastBase() uint8 { return uint8(k.w[0] & 3) }

// Less compares two k-mers of the same length lexicographically.
func (k Kmer[W]) Less(o Kmer[W]) bool {
	for i := len(k.w) - 1; i >= 0; i-- {
		if k.w[i] != o.w[i] {
			return k.w[i] < o.w[i]
		}
	}
	return false
}

// Compare returns -1, 0 or 1.
func (k Kmer[W]) Compare(o Kmer[W]) int {
	for i := len(k.w) - 1; i >= 0; i-- {
		if k.w[i] != o.w[i] {
			if k.w[i] < o.w[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Shift appends base nt on the right and drops the leftmost base.
func (k Kmer[W]) Shift(kmerLen int, nt uint8) Kmer[W] {
	for i := len(k.w) - 1; i > 0; i-- {
		k.w[i] = k.w[i]<<2 | k.w[i-1]>>62
	}
	k.w[0] = k.w[0]<<2 | uint64(nt&3)
	return k.mask(kmerLen)
}

// Prepend inserts base nt on the left and drops the rightmost base.
func (k Kmer[W]) Prepend(kmerLen int, nt uint8) Kmer[W] {
	k = k.shiftRightBits(2)
	j := kmerLen - 1
	k.w[j/32] |= uint64(nt&3) << (2 * uint(j%32))
	return k
}

// RevComp returns the reverse complement.
func (k Kmer[W]) RevComp(kmerLen int) Kmer[W] {
	n := len(k.w)
	var r Kmer[W]
	for i := 0; i < n; i++ {
		r.w[n-1-i] = revCompWord(k.w[i])
	}
	// The unused high positions of k became T's at the bottom of r.
	return r.shiftRightBits(64*n - 2*kmerLen)
}

// Canonical returns the smaller of k and its reverse complement, and whether
// the reverse complement was chosen.
func (k Kmer[W]) Canonical(kmerLen int) (Kmer[W], bool) {
	rc := k.RevComp(kmerLen)
	if rc.Less(k) {
		return rc, true
	}
	return k, false
}

// Hash returns a 64-bit farmhash of the k-mer.
func (k Kmer[W]) Hash() uint64 {
	h := farm.Hash64WithSeed(nil, k.w[0])
	for i := 1; i < len(k.w); i++ {
		h = farm.Hash64WithSeeds(nil, h, k.w[i])
	}
	return h
}

func (k Kmer[W]) mask(kmerLen int) Kmer[W] {
	nbits := 2 * kmerLen
	for i := 0; i < len(k.w); i++ {
		lo := 64 * i
		switch {
		case nbits >= lo+64:
		case nbits <= lo:
			k.w[i] = 0
		default:
			k.w[i] &= (uint64(1) << uint(nbits-lo)) - 1
		}
	}
	return k
}

func (k Kmer[W]) shiftRightBits(s int) Kmer[W] {
	n := len(k.w)
	wordShift, bitShift := s/64, uint(s%64)
	for i := 0; i < n; i++ {
		src := i + wordShift
		var v uint64
		if src < n {
			v = k.w[src] >> bitShift
			if bitShift > 0 && src+1 < n {
				v |= k.w[src+1] << (64 - bitShift)
			}
		}
		k.w[i] = v
	}
	return k
}

// revCompWord complements all 32 bases of x and reverses their order.
func revCompWord(x uint64) uint64 {
	x = ^x
	x = bits.ReverseBytes64(x)
	x = (x>>4)&0x0F0F0F0F0F0F0F0F | (x&0x0F0F0F0F0F0F0F0F)<<4
	x = (x>>2)&0x3333333333333333 | (x&0x3333333333333333)<<2
	return x
}
