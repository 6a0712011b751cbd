package kmer

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func randomSeq(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[r.Intn(4)]
	}
	return string(b)
}

func testRoundTrip[W Words](t *testing.T, r *rand.Rand, maxLen int) {
	for iter := 0; iter < 200; iter++ {
		n := 1 + r.Intn(maxLen)
		seq := randomSeq(r, n)
		k, ok := FromString[W](seq)
		require.True(t, ok)
		expect.EQ(t, k.String(n), seq)

		rc := k.RevComp(n)
		expect.EQ(t, rc.String(n), ReverseComplement(seq), "seq=%s", seq)
		expect.EQ(t, rc.RevComp(n), k)

		canon, isRC := k.Canonical(n)
		if seq < ReverseComplement(seq) {
			expect.False(t, isRC)
			expect.EQ(t, canon.String(n), seq)
		} else if seq > ReverseComplement(seq) {
			expect.True(t, isRC)
			expect.EQ(t, canon.String(n), ReverseComplement(seq))
		}
	}
}

func TestRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(0))
	testRoundTrip[W1](t, r, 32)
	testRoundTrip[W2](t, r, 64)
	testRoundTrip[W4](t, r, 128)
	testRoundTrip[W8](t, r, 256)
	testRoundTrip[W16](t, r, 512)
}

func TestShiftAndPrepend(t *testing.T) {
	const seq = "ACGTTGCAACGTTGCAACGTTGCAACGTTGCAACGTA" // 37 bases, spans two words.
	k, ok := FromString[W2](seq[:36])
	require.True(t, ok)
	next := k.Shift(36, 0)
	expect.EQ(t, next.String(36), seq[1:])
	expect.EQ(t, next.LastBase(), uint8(0))

	back := next.Prepend(36, 0)
	expect.EQ(t, back.String(36), seq[:36])
	for i := 0; i < 36; i++ {
		expect.EQ(t, BaseChar(k.Base(36, i)), seq[i])
	}
}

func TestLess(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for iter := 0; iter < 500; iter++ {
		n := 1 + r.Intn(64)
		a, b := randomSeq(r, n), randomSeq(r, n)
		ka, _ := FromString[W2](a)
		kb, _ := FromString[W2](b)
		expect.EQ(t, ka.Less(kb), a < b, "%s %s", a, b)
		expect.EQ(t, ka.Compare(kb), strings.Compare(a, b))
	}
}

func TestFromStringInvalid(t *testing.T) {
	_, ok := FromString[W1]("ACGNT")
	expect.False(t, ok)
	_, ok = FromString[W1](strings.Repeat("A", 33))
	expect.False(t, ok)
	k, ok := FromString[W1]("acgt")
	expect.True(t, ok)
	expect.EQ(t, k.String(4), "ACGT")
}

func TestHash(t *testing.T) {
	a, _ := FromString[W4]("ACGTACGTACGTACGTACGTACGTACGTACGTACGTAC")
	b, _ := FromString[W4]("ACGTACGTACGTACGTACGTACGTACGTACGTACGTAC")
	c, _ := FromString[W4]("ACGTACGTACGTACGTACGTACGTACGTACGTACGTAG")
	expect.EQ(t, a.Hash(), b.Hash())
	expect.NEQ(t, a.Hash(), c.Hash())
}

func TestPrecisionFor(t *testing.T) {
	for _, test := range []struct {
		kmerLen int
		want    Precision
	}{
		{1, P1}, {21, P1}, {32, P1}, {33, P2}, {64, P2}, {65, P4},
		{128, P4}, {129, P8}, {256, P8}, {257, P16}, {512, P16},
	} {
		p, err := PrecisionFor(test.kmerLen)
		require.NoError(t, err)
		expect.EQ(t, p, test.want, "kmerLen=%d", test.kmerLen)
		expect.True(t, p.MaxKmerLen() >= test.kmerLen)
	}
	for _, bad := range []int{0, -1, 513} {
		_, err := PrecisionFor(bad)
		require.Error(t, err)
		expect.True(t, errors.Is(errors.NotSupported, err))
	}
}

func TestKmerizer(t *testing.T) {
	const seq = "AAAGTTNCAGGTACCA"
	kz := NewKmerizer[W1](5)
	kz.Reset(seq)
	var got []string
	var pos []int
	for kz.Scan() {
		w := kz.Get()
		got = append(got, w.Forward.String(5))
		pos = append(pos, w.Pos)
		expect.EQ(t, w.RevComp.String(5), ReverseComplement(w.Forward.String(5)))
		c, isRC := w.Canonical()
		if isRC {
			expect.EQ(t, c, w.RevComp)
		} else {
			expect.EQ(t, c, w.Forward)
		}
	}
	expect.EQ(t, got, []string{"AAAGT", "AAGTT", "CAGGT", "AGGTA", "GGTAC", "GTACC", "TACCA"})
	expect.EQ(t, pos, []int{0, 1, 7, 8, 9, 10, 11})
}

func TestPrecisionOf(t *testing.T) {
	expect.EQ(t, PrecisionOf[W1](), P1)
	expect.EQ(t, PrecisionOf[W2](), P2)
	expect.EQ(t, PrecisionOf[W4](), P4)
	expect.EQ(t, PrecisionOf[W8](), P8)
	expect.EQ(t, PrecisionOf[W16](), P16)
	expect.EQ(t, P4.String(), "P4")
	expect.EQ(t, P8.Words(), 8)
}
