package dbgraph

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/grailbio/assembly/kmercount"
	"github.com/grailbio/base/errors"
)

// Save writes the graph: the k-mer table (see kmercount.Table.Save), an
// int64 histogram bin count, one (int64 abundance, uint64 count) pair per
// bin and a final stranded byte. All integers are little endian.
func (g *Graph) Save(w io.Writer) error {
	if err := g.table.Save(w); err != nil {
		return err
	}
	buf := make([]byte, 8+16*len(g.bins)+1)
	binary.LittleEndian.PutUint64(buf, uint64(len(g.bins)))
	for i, b := range g.bins {
		binary.LittleEndian.PutUint64(buf[8+16*i:], uint64(b.Abundance))
		binary.LittleEndian.PutUint64(buf[16+16*i:], b.Count)
	}
	if g.stranded {
		buf[len(buf)-1] = 1
	}
	_, err := w.Write(buf)
	return err
}

// Load reads a graph written by Save. Every node starts Free.
func Load(r io.Reader) (*Graph, error) {
	table, err := kmercount.Load(r)
	if err != nil {
		return nil, err
	}
	var b8 [8]byte
	if _, err = io.ReadFull(r, b8[:]); err != nil {
		return nil, noEOF(err)
	}
	n := int64(binary.LittleEndian.Uint64(b8[:]))
	if n < 0 || n > 1<<32 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("dbgraph: stored histogram size %d", n))
	}
	// n comes from the file; grow as pairs are read.
	bins := make(kmercount.Bins, 0, min(n, 1<<16))
	pair := make([]byte, 16)
	for i := int64(0); i < n; i++ {
		if _, err = io.ReadFull(r, pair); err != nil {
			return nil, noEOF(err)
		}
		bins = append(bins, kmercount.Bin{
			Abundance: int(binary.LittleEndian.Uint64(pair)),
			Count:     binary.LittleEndian.Uint64(pair[8:]),
		})
	}
	if _, err = io.ReadFull(r, b8[:1]); err != nil {
		return nil, noEOF(err)
	}
	return New(table, bins, b8[0] != 0), nil
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
