package main

import (
	"bytes"
	"context"
	"flag"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/assembly/assembler"
	"github.com/grailbio/assembly/dbgraph"
	"github.com/grailbio/assembly/encoding/reads"
	"github.com/grailbio/assembly/kmer"
	"github.com/grailbio/assembly/kmercount"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
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

// writeReads writes reads tiled over genome, in both orientations, as FASTQ.
func writeReads(t *testing.T, path, genome string) {
	var buf bytes.Buffer
	n := 0
	for start := 0; start+100 <= len(genome); start += 5 {
		read := genome[start : start+100]
		for _, seq := range []string{read, kmer.ReverseComplement(read)} {
			n++
			buf.WriteString("@read")
			buf.WriteString(strings.Repeat("x", n%3))
			buf.WriteString("\n" + seq + "\n+\n" + strings.Repeat("I", len(seq)) + "\n")
		}
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func parseCountFlags(t *testing.T, args ...string) countFlags {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	cf := addCountFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cf
}

func parseAssembleFlags(t *testing.T, args ...string) *assembleFlags {
	fs := flag.NewFlagSet("assemble", flag.ContinueOnError)
	af := addAssembleFlags(fs)
	require.NoError(t, fs.Parse(args))
	return af
}

func readFasta(t *testing.T, path string) []reads.Record {
	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close() // nolint: errcheck
	sc := reads.NewScanner(in)
	var (
		recs []reads.Record
		rec  reads.Record
	)
	for sc.Scan(&rec) {
		recs = append(recs, rec)
	}
	require.NoError(t, sc.Err())
	return recs
}

func TestGraphIO(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	r := rand.New(rand.NewSource(0))
	genome := randomSeq(r, 1000)
	readsPath := filepath.Join(tempDir, "reads.fq")
	writeReads(t, readsPath, genome)

	g, err := count(ctx, parseCountFlags(t, "-reads="+readsPath, "-kmer=25", "-stranded"), 2)
	require.NoError(t, err)
	expect.EQ(t, g.NodeCount(), len(genome)-25+1)

	for _, name := range []string{"graph", "graph.gz", "graph.sz"} {
		path := filepath.Join(tempDir, name)
		assert.NoError(t, writeGraph(ctx, path, g))
		g2, err := readGraph(ctx, path)
		assert.NoError(t, err)
		expect.EQ(t, g2.KmerLen(), 25)
		expect.EQ(t, g2.NodeCount(), g.NodeCount())
		expect.True(t, g2.GraphIsStranded())
		expect.EQ(t, g2.Histogram(), g.Histogram())
		for i := 0; i < g.NodeCount(); i++ {
			n := dbgraph.NodeOf(i, false)
			require.Equal(t, g.GetNodeSeq(n), g2.GetNodeSeq(n))
			require.Equal(t, g.Abundance(n), g2.Abundance(n))
			require.Equal(t, g.PlusFraction(n), g2.PlusFraction(n))
		}
	}
	// The compressed forms are smaller than the raw one.
	raw, err := os.Stat(filepath.Join(tempDir, "graph"))
	require.NoError(t, err)
	gz, err := os.Stat(filepath.Join(tempDir, "graph.gz"))
	require.NoError(t, err)
	expect.True(t, gz.Size() < raw.Size())

	_, err = readGraph(ctx, readsPath)
	expect.True(t, err != nil)
	_, err = readGraph(ctx, filepath.Join(tempDir, "missing.gz"))
	expect.True(t, err != nil)
}

func TestCountAndAssemble(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	r := rand.New(rand.NewSource(1))
	genome := randomSeq(r, 2000)
	readsPath := filepath.Join(tempDir, "reads.fq")
	writeReads(t, readsPath, genome)

	_, err := count(ctx, parseCountFlags(t), 2)
	expect.True(t, err != nil)

	g, err := count(ctx, parseCountFlags(t, "-reads="+readsPath, "-batch-bases=5000"), 3)
	require.NoError(t, err)

	faPath := filepath.Join(tempDir, "contigs.fa")
	rioPath := filepath.Join(tempDir, "contigs.rio")
	af := parseAssembleFlags(t, "-fasta="+faPath, "-rio="+rioPath, "-auto-low-count", "-min-contig=500")
	require.NoError(t, assemble(ctx, g, af, 2))

	recs := readFasta(t, faPath)
	require.Len(t, recs, 1)
	expect.True(t, strings.HasPrefix(recs[0].Name, "Contig_1_"))
	want := genome
	if rc := kmer.ReverseComplement(genome); rc < want {
		want = rc
	}
	expect.EQ(t, recs[0].Seq, want)

	contigs, abundances, trailer, err := readContigs(ctx, rioPath)
	require.NoError(t, err)
	require.Len(t, contigs, 1)
	expect.EQ(t, contigs[0].Seq, want)
	expect.EQ(t, contigs[0].Nodes, g.Nodes(want))
	expect.EQ(t, abundances[0], contigs[0].MeanAbundance(g))
	expect.EQ(t, trailer.KmerLen, g.KmerLen())
	expect.EQ(t, trailer.Opts.MinContig, 500)
	expect.EQ(t, trailer.Stats.Contigs, trailer.Stats.Joins+1)
	expect.EQ(t, trailer.Digest, assembler.Digest(contigs))
}

func TestReadContigsErrors(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	_, _, _, err := readContigs(ctx, filepath.Join(tempDir, "missing.rio"))
	expect.True(t, err != nil)
}

func TestHistogramTSV(t *testing.T) {
	var buf bytes.Buffer
	bins := kmercount.Bins{{Abundance: 1, Count: 100}, {Abundance: 2, Count: 7}, {Abundance: 30, Count: 1}}
	require.NoError(t, writeHistogramTSV(&buf, bins))
	expect.EQ(t, buf.String(), "#ABUNDANCE\tCOUNT\n1\t100\n2\t7\n30\t1\n")
}
