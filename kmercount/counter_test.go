package kmercount

import (
	"math"
	"math/rand"
	"testing"

	"github.com/grailbio/assembly/kmer"
	"github.com/grailbio/assembly/readstore"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

type naiveCount struct {
	count, plus uint32
}

// naiveCounts counts canonical k-mers with a Go map.
func naiveCounts(reads []string, kmerLen int) map[string]naiveCount {
	m := map[string]naiveCount{}
	for _, read := range reads {
		for i := 0; i+kmerLen <= len(read); i++ {
			seq := read[i : i+kmerLen]
			c := canonical(seq)
			e := m[c]
			e.count++
			if c == seq {
				e.plus++
			}
			m[c] = e
		}
	}
	return m
}

func sampleReads(r *rand.Rand, genome string, n, readLen int) []string {
	reads := make([]string, n)
	for i := range reads {
		start := r.Intn(len(genome) - readLen + 1)
		read := genome[start : start+readLen]
		if r.Intn(2) == 0 {
			read = kmer.ReverseComplement(read)
		}
		reads[i] = read
	}
	return reads
}

func testCount(t *testing.T, kmerLen, minCount int) {
	r := rand.New(rand.NewSource(int64(kmerLen)))
	genome := randomSeq(r, 2000)
	reads := sampleReads(r, genome, 300, 100+kmerLen)

	var stores []*readstore.Store
	for i := 0; i < 5; i++ {
		s := readstore.New(0)
		for j := i; j < len(reads); j += 5 {
			s.PushBack(reads[j])
		}
		stores = append(stores, s)
	}
	opts := Opts{KmerLen: kmerLen, MinCount: minCount, Parallelism: 3}
	res, err := CountReads(stores, opts)
	require.NoError(t, err)

	want := naiveCounts(reads, kmerLen)
	expect.EQ(t, res.Distinct, len(want))
	expect.EQ(t, res.Bins.Distinct(), uint64(len(want)))

	nKept := 0
	for seq, e := range want {
		i := res.Table.FindSeq(seq)
		if int(e.count) < minCount {
			expect.EQ(t, i, res.Table.Len(), "seq=%s count=%d", seq, e.count)
			continue
		}
		nKept++
		require.True(t, i < res.Table.Len(), "seq=%s", seq)
		v := res.Table.Value(i)
		expect.EQ(t, Count(v), e.count)
		expect.True(t, math.Abs(PlusFraction(v)-float64(e.plus)/float64(e.count)) < 1e-4)

		var plus, minus uint8
		rc := kmer.ReverseComplement(seq)
		for nt := uint8(0); nt < 4; nt++ {
			if f, ok := want[canonical(seq[1:]+string(kmer.BaseChar(nt)))]; ok && int(f.count) >= minCount {
				plus |= 1 << nt
			}
			if f, ok := want[canonical(rc[1:]+string(kmer.BaseChar(nt)))]; ok && int(f.count) >= minCount {
				minus |= 1 << nt
			}
		}
		expect.EQ(t, PlusBranches(v), plus, "seq=%s", seq)
		expect.EQ(t, MinusBranches(v), minus, "seq=%s", seq)
	}
	expect.EQ(t, res.Table.Len(), nKept)
	for i := 1; i < res.Table.Len(); i++ {
		expect.True(t, res.Table.KmerSeq(i-1) < res.Table.KmerSeq(i))
	}
}

func TestCount(t *testing.T) {
	testCount(t, 21, 1)
	testCount(t, 21, 3)
	testCount(t, 45, 2)
	testCount(t, 101, 2)
}

func TestCountEmpty(t *testing.T) {
	res, err := CountReads(nil, DefaultOpts)
	require.NoError(t, err)
	expect.EQ(t, res.Table.Len(), 0)
	expect.EQ(t, len(res.Bins), 0)

	_, err = CountReads(nil, Opts{KmerLen: 600})
	require.Error(t, err)
}

func TestHistogram(t *testing.T) {
	tbl, err := NewTable(3)
	require.NoError(t, err)
	for _, seq := range []string{"AAA", "AAC", "AAC", "ACA", "ACA", "AAG", "AAG", "AAG", "ACC"} {
		tbl.PushBackSeq(seq, 1)
	}
	tbl.SortAndUniq(1)
	bins := Histogram(tbl)
	expect.EQ(t, bins, Bins{{1, 2}, {2, 2}, {3, 1}})
	expect.EQ(t, bins.Mass(), uint64(9))
	expect.EQ(t, bins.Distinct(), uint64(5))
}
