package main

// This file writes assembled contigs as FASTA, and as a recordio file of
// gob-encoded records that keeps the graph nodes and denied neighbors of each
// contig. The recordio file can be read back by the view command.

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/grailbio/assembly/assembler"
	"github.com/grailbio/assembly/dbgraph"
	"github.com/grailbio/assembly/encoding/reads"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
)

const (
	// <fileVersionHeader, fileVersion> is stored in a recordio header.
	fileVersionHeader = "assemblyversion"
	fileVersion       = "CONTIGS_V1"
)

// contigRecord is one recordio record.
type contigRecord struct {
	Seq                     string
	Nodes                   []uint64
	LeftDenied, RightDenied uint64
	Circular                bool
	Abundance               float64
}

// contigFileTrailer is stored in the trailer section of the recordio file.
type contigFileTrailer struct {
	KmerLen int
	Opts    assembler.Opts
	Stats   assembler.Stats
	Digest  uint64
}

func contigName(i int, c *assembler.Contig, abundance float64) string {
	name := fmt.Sprintf("Contig_%d_%.4g", i+1, abundance)
	if c.Circular {
		name += " circular"
	}
	return name
}

// writeFasta writes the contigs to path in FASTA format.
func writeFasta(ctx context.Context, path string, g *dbgraph.Graph, contigs []*assembler.Contig) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	w := reads.NewFastaWriter(out.Writer(ctx), reads.DefaultLineWidth)
	once := errors.Once{}
	for i, c := range contigs {
		if err := w.Write(contigName(i, c, c.MeanAbundance(g)), c.Seq); err != nil {
			once.Set(err)
			break
		}
	}
	once.Set(out.Close(ctx))
	return once.Err()
}

// writeContigs writes the contigs to path as a zstd-compressed recordio file.
func writeContigs(ctx context.Context, path string, g *dbgraph.Graph, contigs []*assembler.Contig, opts assembler.Opts, stats assembler.Stats) error {
	recordiozstd.Init()
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	w := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Transformers: []string{recordiozstd.Name},
	})
	w.AddHeader(fileVersionHeader, fileVersion)
	w.AddHeader(recordio.KeyTrailer, true)
	for _, c := range contigs {
		rec := contigRecord{
			Seq:         c.Seq,
			Nodes:       make([]uint64, len(c.Nodes)),
			LeftDenied:  uint64(c.LeftDenied),
			RightDenied: uint64(c.RightDenied),
			Circular:    c.Circular,
			Abundance:   c.MeanAbundance(g),
		}
		for i, n := range c.Nodes {
			rec.Nodes[i] = uint64(n)
		}
		var b bytes.Buffer
		if err := gob.NewEncoder(&b).Encode(rec); err != nil {
			return err
		}
		w.Append(b.Bytes())
	}
	var b bytes.Buffer
	trailer := contigFileTrailer{
		KmerLen: g.KmerLen(),
		Opts:    opts,
		Stats:   stats,
		Digest:  assembler.Digest(contigs),
	}
	if err := gob.NewEncoder(&b).Encode(trailer); err != nil {
		return err
	}
	w.SetTrailer(b.Bytes())
	once := errors.Once{}
	once.Set(w.Finish())
	once.Set(out.Close(ctx))
	return once.Err()
}

// readContigs reads a file written by writeContigs. The returned contigs
// carry the nodes and denied neighbors that were written; abundances are
// returned separately since a Contig does not hold them.
func readContigs(ctx context.Context, path string) (contigs []*assembler.Contig, abundances []float64, trailer contigFileTrailer, err error) {
	recordiozstd.Init()
	in, err := file.Open(ctx, path)
	if err != nil {
		return
	}
	once := errors.Once{}
	defer func() {
		once.Set(in.Close(ctx))
		err = once.Err()
	}()
	r := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{})
	versionFound := false
	for _, kv := range r.Header() {
		if kv.Key == fileVersionHeader {
			if v, _ := kv.Value.(string); v != fileVersion {
				once.Set(errors.E(errors.NotSupported, fmt.Sprintf("%s: contig file version %v, expect %v", path, kv.Value, fileVersion)))
				return
			}
			versionFound = true
			break
		}
	}
	if !versionFound {
		once.Set(errors.E(errors.Invalid, fmt.Sprintf("%s: %s header not found", path, fileVersionHeader)))
		return
	}
	if e := gob.NewDecoder(bytes.NewReader(r.Trailer())).Decode(&trailer); e != nil {
		once.Set(e)
		return
	}
	for r.Scan() {
		var rec contigRecord
		if e := gob.NewDecoder(bytes.NewReader(r.Get().([]byte))).Decode(&rec); e != nil {
			once.Set(e)
			return
		}
		c := &assembler.Contig{
			Seq:         rec.Seq,
			Nodes:       make([]dbgraph.Node, len(rec.Nodes)),
			LeftDenied:  dbgraph.Node(rec.LeftDenied),
			RightDenied: dbgraph.Node(rec.RightDenied),
			Circular:    rec.Circular,
			KmerLen:     trailer.KmerLen,
		}
		for i, n := range rec.Nodes {
			c.Nodes[i] = dbgraph.Node(n)
		}
		contigs = append(contigs, c)
		abundances = append(abundances, rec.Abundance)
	}
	once.Set(r.Err())
	return
}
