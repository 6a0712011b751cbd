package main

import (
	"context"
	"io"
	"os"
	"strconv"

	"github.com/grailbio/assembly/kmercount"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// writeHistogramTSV writes one "abundance\tcount" line per bin, after a
// header line.
func writeHistogramTSV(w io.Writer, bins kmercount.Bins) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("#ABUNDANCE")
	tw.WriteString("COUNT")
	if err := tw.EndLine(); err != nil {
		return err
	}
	for _, b := range bins {
		tw.WriteString(strconv.Itoa(b.Abundance))
		tw.WriteString(strconv.FormatUint(b.Count, 10))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// writeHistogram writes bins to path, or to stdout if path is empty.
func writeHistogram(ctx context.Context, path string, bins kmercount.Bins) error {
	if path == "" {
		return writeHistogramTSV(os.Stdout, bins)
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	once := errors.Once{}
	once.Set(writeHistogramTSV(out.Writer(ctx), bins))
	once.Set(out.Close(ctx))
	return once.Err()
}
