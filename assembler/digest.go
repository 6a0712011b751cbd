package assembler

import (
	"encoding/binary"
	"sort"

	"blainsmith.com/go/seahash"
)

// Digest is a fingerprint of a contig set that does not depend on the order
// or orientation of the contigs, nor on where circular contigs start.
func Digest(contigs []*Contig) uint64 {
	seqs := make([]string, len(contigs))
	for i, c := range contigs {
		if c.Circular {
			cp := *c
			cp.RotateCircular()
			seqs[i] = "@" + cp.Seq
			continue
		}
		seqs[i] = c.canonicalSeq()
	}
	sort.Strings(seqs)
	var buf []byte
	for _, s := range seqs {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(s)))
		buf = append(buf, s...)
	}
	return seahash.Sum64(buf)
}
