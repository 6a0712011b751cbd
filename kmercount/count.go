package kmercount

import "math"

// Layout of the 64-bit value stored next to each k-mer.
//
//   bits  0..31  occurrence count
//   bits 32..35  plus-strand branching nibble
//   bits 36..39  minus-strand branching nibble
//   bit  40      visited (reserved; visitation lives in the graph)
//   bits 41..47  reserved
//   bits 48..63  plus fraction scaled to [0,65535]
//
// While counting, before ComputeBranches runs, bits 32..63 hold the raw
// number of plus-strand observations instead.
const (
	countMask         = uint64(math.MaxUint32)
	plusBranchShift   = 32
	minusBranchShift  = 36
	visitedBit        = uint64(1) << 40
	plusFractionShift = 48
	maxFraction       = math.MaxUint16
)

// Count returns the occurrence count of a packed value.
func Count(v uint64) uint32 { return uint32(v & countMask) }

// PlusBranches returns the plus-strand branching nibble: bit nt is set if the
// canonical k-mer extended on the right by base nt is in the table.
func PlusBranches(v uint64) uint8 { return uint8(v>>plusBranchShift) & 0xf }

// MinusBranches returns the branching nibble of the reverse complement.
func MinusBranches(v uint64) uint8 { return uint8(v>>minusBranchShift) & 0xf }

// PlusFraction decodes the fraction of observations made on the plus strand.
func PlusFraction(v uint64) float64 {
	return float64(v>>plusFractionShift) / maxFraction
}

// PlusCount returns the raw plus-strand count of a value that has not been
// through ComputeBranches yet.
func PlusCount(v uint64) uint32 { return uint32(v >> 32) }

// Pack builds a finished value.
func Pack(count uint32, plusBranches, minusBranches uint8, plusFraction float64) uint64 {
	if plusFraction < 0 {
		plusFraction = 0
	} else if plusFraction > 1 {
		plusFraction = 1
	}
	f := uint64(math.Round(plusFraction * maxFraction))
	return uint64(count) |
		uint64(plusBranches&0xf)<<plusBranchShift |
		uint64(minusBranches&0xf)<<minusBranchShift |
		f<<plusFractionShift
}

// Strand is the value pushed for one observation of a k-mer; isPlus tells
// whether the read showed the canonical orientation.
func Strand(isPlus bool) uint64 {
	if isPlus {
		return 1<<32 | 1
	}
	return 1
}

// AddCounts adds two raw values. The low and high 32-bit halves are added
// separately and saturate, so the count never carries into the plus count.
func AddCounts(a, b uint64) uint64 {
	return uint64(satAdd32(uint32(a), uint32(b))) |
		uint64(satAdd32(uint32(a>>32), uint32(b>>32)))<<32
}

func satAdd32(a, b uint32) uint32 {
	if s := a + b; s >= a {
		return s
	}
	return math.MaxUint32
}
