package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/grailbio/assembly/dbgraph"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
)

// Graph files ending in these suffixes are compressed.
const (
	gzipSuffix   = ".gz"
	snappySuffix = ".sz"
)

// nopWriteCloser adds a no-op Close to an uncompressed stream.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func compressedWriter(w io.Writer, path string) io.WriteCloser {
	switch {
	case strings.HasSuffix(path, gzipSuffix):
		return gzip.NewWriter(w)
	case strings.HasSuffix(path, snappySuffix):
		return snappy.NewBufferedWriter(w)
	}
	return nopWriteCloser{w}
}

func compressedReader(r io.Reader, path string) (io.Reader, func() error, error) {
	switch {
	case strings.HasSuffix(path, gzipSuffix):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gz, gz.Close, nil
	case strings.HasSuffix(path, snappySuffix):
		return snappy.NewReader(r), func() error { return nil }, nil
	}
	return r, func() error { return nil }, nil
}

// writeGraph saves g to path. The path suffix selects the compression.
func writeGraph(ctx context.Context, path string, g *dbgraph.Graph) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	once := errors.Once{}
	bw := bufio.NewWriterSize(out.Writer(ctx), 1<<20)
	cw := compressedWriter(bw, path)
	once.Set(g.Save(cw))
	once.Set(cw.Close())
	once.Set(bw.Flush())
	once.Set(out.Close(ctx))
	if err := once.Err(); err != nil {
		return errors.E(err, "write graph", path)
	}
	log.Printf("%s: wrote graph of %d k-mers (k=%d)", path, g.NodeCount(), g.KmerLen())
	return nil
}

// readGraph loads a graph written by writeGraph.
func readGraph(ctx context.Context, path string) (*dbgraph.Graph, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	once := errors.Once{}
	r, closer, err := compressedReader(bufio.NewReaderSize(in.Reader(ctx), 1<<20), path)
	if err != nil {
		once.Set(err)
		once.Set(in.Close(ctx))
		return nil, errors.E(once.Err(), "read graph", path)
	}
	g, err := dbgraph.Load(r)
	once.Set(err)
	once.Set(closer())
	once.Set(in.Close(ctx))
	if err := once.Err(); err != nil {
		return nil, errors.E(err, "read graph", path)
	}
	log.Printf("%s: read graph of %d k-mers (k=%d, stranded=%v)",
		path, g.NodeCount(), g.KmerLen(), g.GraphIsStranded())
	return g, nil
}
