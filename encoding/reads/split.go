package reads

import (
	"github.com/grailbio/assembly/kmer"
)

// SplitACGT cuts seq at every base that is not one of ACGTacgt and returns
// the pieces that are at least minLen long. Lowercase bases are kept as
// they are; the read store accepts both cases.
func SplitACGT(seq string, minLen int) []string {
	var pieces []string
	start := 0
	for i := 0; i <= len(seq); i++ {
		if i < len(seq) {
			if _, ok := kmer.BaseBits(seq[i]); ok {
				continue
			}
		}
		if i-start >= minLen && i > start {
			pieces = append(pieces, seq[start:i])
		}
		start = i + 1
	}
	return pieces
}
