package kmercount

import (
	"runtime"

	"github.com/grailbio/assembly/kmer"
	"github.com/grailbio/assembly/readstore"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// Opts configures Count.
type Opts struct {
	// KmerLen is the length of the counted k-mers, in [1,512].
	KmerLen int
	// MinCount drops k-mers seen fewer times from the final table. The
	// histogram still covers them.
	MinCount int
	// Parallelism is the max number of goroutines. Zero means NumCPU.
	Parallelism int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	KmerLen:     21,
	MinCount:    2,
	Parallelism: runtime.NumCPU(),
}

// Result is the output of Count.
type Result struct {
	// Table holds the k-mers with count >= MinCount, sorted, with branching
	// nibbles and plus fraction filled in.
	Table *Table
	// Bins is the histogram over all distinct k-mers.
	Bins Bins
	// Distinct is the number of distinct k-mers before the MinCount filter.
	Distinct int
}

// CountReads counts the canonical k-mers of the given read batches. Each batch
// is counted by its own job, then the per-batch tables are merged.
func CountReads(stores []*readstore.Store, opts Opts) (Result, error) {
	prec, err := kmer.PrecisionFor(opts.KmerLen)
	if err != nil {
		return Result{}, err
	}
	switch prec {
	case kmer.P1:
		return count[kmer.W1](stores, opts), nil
	case kmer.P2:
		return count[kmer.W2](stores, opts), nil
	case kmer.P4:
		return count[kmer.W4](stores, opts), nil
	case kmer.P8:
		return count[kmer.W8](stores, opts), nil
	default:
		return count[kmer.W16](stores, opts), nil
	}
}

func parallelismFor(want, n int) int {
	if want <= 0 {
		want = runtime.NumCPU()
	}
	if want > n {
		want = n
	}
	if want < 1 {
		want = 1
	}
	return want
}

func count[W kmer.Words](stores []*readstore.Store, opts Opts) Result {
	kmerLen := opts.KmerLen
	parallelism := parallelismFor(opts.Parallelism, len(stores))
	shards := make([]*Counts[W], len(stores))
	_ = traverse.Each(parallelism, func(job int) error {
		for i := job; i < len(stores); i += parallelism {
			c := NewCounts[W](kmerLen)
			c.Reserve(stores[i].KmerNum(kmerLen))
			it := readstore.Kmers[W](stores[i], kmerLen)
			for it.Scan() {
				canon, isRC := it.Get().Canonical(kmerLen)
				c.PushBack(canon, Strand(!isRC))
			}
			c.SortAndUniq(1)
			shards[i] = c
			log.Debug.Printf("kmercount: batch %d: %d reads, %d distinct kmers", i, stores[i].ReadNum(), c.Len())
		}
		return nil
	})
	merged := mergeAll(shards, parallelism)
	if merged == nil {
		merged = NewCounts[W](kmerLen)
	}
	bins := Histogram(WrapCounts(merged))

	minCount := opts.MinCount
	if minCount < 1 {
		minCount = 1
	}
	final := NewCounts[W](kmerLen)
	merged.SortAndExtractUniq(uint32(minCount), final)
	distinct := merged.Len()
	ComputeBranches(final, opts.Parallelism)
	log.Printf("kmercount: %d distinct kmers, %d with count >= %d", distinct, final.Len(), minCount)
	return Result{Table: WrapCounts(final), Bins: bins, Distinct: distinct}
}

// mergeAll merges sorted, collapsed tables pairwise until one remains.
func mergeAll[W kmer.Words](shards []*Counts[W], parallelism int) *Counts[W] {
	for len(shards) > 1 {
		nPairs := len(shards) / 2
		p := parallelismFor(parallelism, nPairs)
		_ = traverse.Each(p, func(job int) error {
			for i := job; i < nPairs; i += p {
				shards[2*i].MergeTwoSorted(shards[2*i+1])
				shards[2*i+1] = nil
			}
			return nil
		})
		next := make([]*Counts[W], 0, (len(shards)+1)/2)
		for i := 0; i < len(shards); i += 2 {
			next = append(next, shards[i])
		}
		shards = next
	}
	if len(shards) == 0 {
		return nil
	}
	return shards[0]
}

// ComputeBranches rewrites every value of the sorted, collapsed table c from
// its counting form (count, raw plus count) to its final form (count,
// branching nibbles, plus fraction). A bit nt of the plus nibble is set if
// the k-mer followed by base nt has its canonical form in c; the minus nibble
// does the same for the reverse complement.
func ComputeBranches[W kmer.Words](c *Counts[W], parallelism int) {
	n := c.Len()
	if n == 0 {
		return
	}
	kmerLen := c.KmerLen()
	parallelism = parallelismFor(parallelism, n)
	_ = traverse.Each(parallelism, func(job int) error {
		start, end := job*n/parallelism, (job+1)*n/parallelism
		for i := start; i < end; i++ {
			k := c.Kmer(i)
			rc := k.RevComp(kmerLen)
			var plus, minus uint8
			for nt := uint8(0); nt < 4; nt++ {
				if next, _ := k.Shift(kmerLen, nt).Canonical(kmerLen); c.Find(next) < n {
					plus |= 1 << nt
				}
				if next, _ := rc.Shift(kmerLen, nt).Canonical(kmerLen); c.Find(next) < n {
					minus |= 1 << nt
				}
			}
			v := c.Value(i)
			total := Count(v)
			var frac float64
			if total > 0 {
				frac = float64(PlusCount(v)) / float64(total)
			}
			c.SetValue(i, Pack(total, plus, minus, frac))
		}
		return nil
	})
}
