package reads

import (
	"context"
	"io"

	"github.com/grailbio/assembly/readstore"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// LoadOpts controls Load.
type LoadOpts struct {
	// MinLen is the minimum length of an ACGT piece to be kept. Pieces
	// shorter than the k-mer length contribute no k-mers.
	MinLen int
	// BatchBases is the number of bases after which a new store is started.
	// Every store is counted by its own worker.
	BatchBases int
}

// DefaultLoadOpts sets the default values to LoadOpts.
var DefaultLoadOpts = LoadOpts{
	MinLen:     21,
	BatchBases: 64 << 20,
}

// LoadStats summarizes a Load call.
type LoadStats struct {
	// Records is the # of FASTA/FASTQ records read.
	Records int
	// Pieces is the # of ACGT pieces stored.
	Pieces int
	// Bases is the # of bases stored.
	Bases int
}

// Load reads every path and stores the ACGT pieces of each record in
// batches of about opts.BatchBases bases. Paths may be anything
// grailbio/base/file can open; compressed files are recognized by their
// suffix.
func Load(ctx context.Context, paths []string, opts LoadOpts) ([]*readstore.Store, LoadStats, error) {
	if opts.BatchBases <= 0 {
		opts.BatchBases = DefaultLoadOpts.BatchBases
	}
	var (
		stats  LoadStats
		stores []*readstore.Store
		cur    *readstore.Store
	)
	push := func(seq string) {
		if cur == nil || cur.TotalSeq() >= opts.BatchBases {
			cur = readstore.New(opts.BatchBases)
			stores = append(stores, cur)
		}
		cur.PushBack(seq)
		stats.Pieces++
		stats.Bases += len(seq)
	}
	for _, path := range paths {
		n, err := loadFile(ctx, path, opts.MinLen, push)
		stats.Records += n
		if err != nil {
			return nil, stats, err
		}
	}
	log.Printf("reads: %d records, %d pieces, %d bases in %d batches",
		stats.Records, stats.Pieces, stats.Bases, len(stores))
	return stores, stats, nil
}

func loadFile(ctx context.Context, path string, minLen int, push func(string)) (n int, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return 0, err
	}
	once := errors.Once{}
	defer func() {
		once.Set(in.Close(ctx))
		if err == nil {
			err = once.Err()
		}
	}()
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		defer func() { once.Set(u.Close()) }()
		r = u
	}
	sc := NewScanner(r)
	var rec Record
	for sc.Scan(&rec) {
		n++
		for _, piece := range SplitACGT(rec.Seq, minLen) {
			push(piece)
		}
	}
	if err := sc.Err(); err != nil {
		return n, errors.E(errors.Invalid, path, err)
	}
	log.Debug.Printf("%s: %d %v records", path, n, sc.Format())
	return n, nil
}
