package kmer

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Precision selects the width of the words backing a k-mer. Containers pick
// the smallest precision that holds their k-mer length so that short k-mers
// do not pay for unused words.
type Precision int

const (
	// P1 holds up to 32 bases in one word.
	P1 Precision = iota
	// P2 holds up to 64 bases.
	P2
	// P4 holds up to 128 bases.
	P4
	// P8 holds up to 256 bases.
	P8
	// P16 holds up to 512 bases.
	P16
)

// MaxKmerLen is the longest k-mer any precision can hold.
const MaxKmerLen = 16 * 32

var precisionWords = [...]int{1, 2, 4, 8, 16}

// Words is the number of 64-bit words of the precision.
func (p Precision) Words() int { return precisionWords[p] }

// MaxKmerLen is the longest k-mer the precision can hold.
func (p Precision) MaxKmerLen() int { return 32 * precisionWords[p] }

func (p Precision) String() string {
	if p < P1 || p > P16 {
		return fmt.Sprintf("Precision(%d)", int(p))
	}
	return fmt.Sprintf("P%d", precisionWords[p])
}

// PrecisionFor picks the smallest precision whose words cover kmerLen bases.
func PrecisionFor(kmerLen int) (Precision, error) {
	if kmerLen < 1 || kmerLen > MaxKmerLen {
		return 0, errors.E(errors.NotSupported,
			fmt.Sprintf("kmer length %d is not in range [1,%d]", kmerLen, MaxKmerLen))
	}
	need := (kmerLen + 31) / 32
	for p := P1; p <= P16; p++ {
		if precisionWords[p] >= need {
			return p, nil
		}
	}
	panic(kmerLen)
}

// PrecisionOf returns the precision whose words are W.
func PrecisionOf[W Words]() Precision {
	switch (Kmer[W]{}).NumWords() {
	case 1:
		return P1
	case 2:
		return P2
	case 4:
		return P4
	case 8:
		return P8
	default:
		return P16
	}
}
