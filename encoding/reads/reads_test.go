package reads

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const fa = `>chr1 first
ACGTAC
GAGGAC

GCG
>chr2
ACGTNNACGT
>empty
`

const fq = `@r1 1:N:0
ACGTACGTAC
+
IIIIIIIIII
@r2
acgtNacgta
+r2
IIIIIIIIII
`

func scanAll(t *testing.T, s string) ([]Record, Format, error) {
	sc := NewScanner(strings.NewReader(s))
	var (
		recs []Record
		rec  Record
	)
	for sc.Scan(&rec) {
		recs = append(recs, rec)
	}
	return recs, sc.Format(), sc.Err()
}

func TestFASTA(t *testing.T) {
	recs, format, err := scanAll(t, fa)
	require.NoError(t, err)
	expect.EQ(t, format, FASTA)
	expect.EQ(t, recs, []Record{
		{Name: "chr1 first", Seq: "ACGTACGAGGACGCG"},
		{Name: "chr2", Seq: "ACGTNNACGT"},
		{Name: "empty", Seq: ""},
	})
}

func TestFASTQ(t *testing.T) {
	recs, format, err := scanAll(t, "\n"+fq)
	require.NoError(t, err)
	expect.EQ(t, format, FASTQ)
	expect.EQ(t, recs, []Record{
		{Name: "r1 1:N:0", Seq: "ACGTACGTAC"},
		{Name: "r2", Seq: "acgtNacgta"},
	})
}

func TestScanErrors(t *testing.T) {
	for _, test := range []struct {
		data string
		want error
	}{
		{"", nil},
		{"\n\n", nil},
		{"ACGT\n", ErrInvalid},
		{"@r1\nACGT\n", ErrShort},
		{"@r1\nACGT\n+\n", ErrShort},
		{"@r1\nACGT\n-\nIIII\n", ErrInvalid},
		{"@r1\nACGT\n+\nIIII\n>r2\nACGT\n", ErrInvalid},
	} {
		_, _, err := scanAll(t, test.data)
		expect.EQ(t, errors.Cause(err), test.want, "data=%q", test.data)
	}
}

func TestSplitACGT(t *testing.T) {
	expect.EQ(t, SplitACGT("ACGTNNacgtNA", 1), []string{"ACGT", "acgt", "A"})
	expect.EQ(t, SplitACGT("ACGTNNacgtNA", 2), []string{"ACGT", "acgt"})
	expect.EQ(t, SplitACGT("ACGTNNacgtNA", 5), []string(nil))
	expect.EQ(t, SplitACGT("NNN", 0), []string(nil))
	expect.EQ(t, SplitACGT("", 0), []string(nil))
	expect.EQ(t, SplitACGT("ACGT-ACGTA", 0), []string{"ACGT", "ACGTA"})
}

func TestFastaWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewFastaWriter(&buf, 4)
	require.NoError(t, w.Write("a", "ACGTACGTA"))
	require.NoError(t, w.Write("b", "ACGT"))
	expect.EQ(t, buf.String(), ">a\nACGT\nACGT\nA\n>b\nACGT\n")

	recs, _, err := scanAll(t, buf.String())
	require.NoError(t, err)
	expect.EQ(t, recs, []Record{{Name: "a", Seq: "ACGTACGTA"}, {Name: "b", Seq: "ACGT"}})

	buf.Reset()
	w = NewFastaWriter(&buf, 0)
	require.NoError(t, w.Write("a", "ACGTACGTA"))
	expect.EQ(t, buf.String(), ">a\nACGTACGTA\n")
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	faPath := filepath.Join(tempDir, "reads.fa")
	require.NoError(t, os.WriteFile(faPath, []byte(fa), 0644))

	fqPath := filepath.Join(tempDir, "reads.fastq.gz")
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(fq))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(fqPath, gz.Bytes(), 0644))

	stores, stats, err := Load(ctx, []string{faPath, fqPath}, LoadOpts{MinLen: 4, BatchBases: 10})
	require.NoError(t, err)
	expect.EQ(t, stats, LoadStats{Records: 5, Pieces: 6, Bases: 15 + 4 + 4 + 10 + 4 + 5})

	var got []string
	for _, s := range stores {
		it := s.Reads()
		for it.Scan() {
			got = append(got, it.Get())
		}
	}
	expect.EQ(t, got, []string{"ACGTACGAGGACGCG", "ACGT", "ACGT", "ACGTACGTAC", "ACGT", "ACGTA"})
	expect.EQ(t, len(stores), 3)

	_, _, err = Load(ctx, []string{filepath.Join(tempDir, "missing.fa")}, DefaultLoadOpts)
	require.Error(t, err)

	badPath := filepath.Join(tempDir, "bad.fa")
	require.NoError(t, os.WriteFile(badPath, []byte("ACGT\n"), 0644))
	_, _, err = Load(ctx, []string{badPath}, DefaultLoadOpts)
	require.Error(t, err)
}
