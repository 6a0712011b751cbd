package main

// bio-assemble builds contigs from sequencing reads with a de Bruijn graph.
//
// Example: count 31-mers, then assemble them.
//
//   bio-assemble count -reads=r1.fq.gz,r2.fq.gz -kmer=31 -out=graph.sz
//   bio-assemble assemble -fasta=contigs.fa -rio=contigs.rio graph.sz
//
// The run command does both steps without writing the graph.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/assembly/assembler"
	"github.com/grailbio/assembly/dbgraph"
	"github.com/grailbio/assembly/encoding/reads"
	"github.com/grailbio/assembly/kmercount"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

// countFlags are the flags of the k-mer counting step.
type countFlags struct {
	reads      *string
	kmerLen    *int
	minCount   *int
	batchBases *int
	stranded   *bool
}

func addCountFlags(fs *flag.FlagSet) countFlags {
	return countFlags{
		reads:      fs.String("reads", "", "Comma-separated list of FASTA or FASTQ files, optionally compressed"),
		kmerLen:    fs.Int("kmer", kmercount.DefaultOpts.KmerLen, "K-mer length, in [1,512]"),
		minCount:   fs.Int("min-count", kmercount.DefaultOpts.MinCount, "K-mers seen fewer times are not graph nodes"),
		batchBases: fs.Int("batch-bases", reads.DefaultLoadOpts.BatchBases, "Reads are counted in batches of about this many bases"),
		stranded:   fs.Bool("stranded", false, "Reads come from a stranded library; enables strand-bias filters"),
	}
}

// assembleFlags are the flags of the assembly step.
type assembleFlags struct {
	opts         assembler.Opts
	autoLowCount *bool
	fasta        *string
	rio          *string
}

func addAssembleFlags(fs *flag.FlagSet) *assembleFlags {
	f := &assembleFlags{opts: assembler.DefaultOpts}
	fs.Float64Var(&f.opts.Fraction, "fraction", f.opts.Fraction, "Successors with at most this fraction of the total abundance are noise")
	fs.IntVar(&f.opts.Jump, "jump", f.opts.Jump, "Max steps to resolve a fork")
	fs.IntVar(&f.opts.LowCount, "low-count", f.opts.LowCount, "Min abundance of a node to extend through")
	fs.IntVar(&f.opts.MinContig, "min-contig", f.opts.MinContig, "Min contig length")
	fs.IntVar(&f.opts.MaxBranch, "max-branch", f.opts.MaxBranch, "Max number of branches explored at once")
	fs.BoolVar(&f.opts.Stitch, "stitch", f.opts.Stitch, "Join contigs stopped by each other")
	f.autoLowCount = fs.Bool("auto-low-count", false, "Raise -low-count to the valley of the k-mer abundance histogram")
	f.fasta = fs.String("fasta", "", "Output FASTA path; stdout if empty")
	f.rio = fs.String("rio", "", "If set, also write contigs with their graph nodes to this recordio file")
	return f
}

func count(ctx context.Context, cf countFlags, parallelism int) (*dbgraph.Graph, error) {
	if *cf.reads == "" {
		return nil, fmt.Errorf("-reads is required")
	}
	stores, _, err := reads.Load(ctx, strings.Split(*cf.reads, ","), reads.LoadOpts{
		MinLen:     *cf.kmerLen,
		BatchBases: *cf.batchBases,
	})
	if err != nil {
		return nil, err
	}
	res, err := kmercount.CountReads(stores, kmercount.Opts{
		KmerLen:     *cf.kmerLen,
		MinCount:    *cf.minCount,
		Parallelism: parallelism,
	})
	if err != nil {
		return nil, err
	}
	return dbgraph.New(res.Table, res.Bins, *cf.stranded), nil
}

func assemble(ctx context.Context, g *dbgraph.Graph, af *assembleFlags, parallelism int) error {
	opts := af.opts
	opts.Parallelism = parallelism
	if *af.autoLowCount {
		if m := g.HistogramMinimum(); m > opts.LowCount {
			log.Printf("raising low count from %d to the histogram valley %d", opts.LowCount, m)
			opts.LowCount = m
		}
	}
	contigs, stats, err := assembler.New(g, opts).GenerateContigs(ctx)
	if err != nil {
		return err
	}
	log.Printf("stats: %+v", stats)
	log.Printf("contig digest: %016x", assembler.Digest(contigs))
	if *af.fasta == "" {
		w := reads.NewFastaWriter(os.Stdout, reads.DefaultLineWidth)
		for i, c := range contigs {
			if err := w.Write(contigName(i, c, c.MeanAbundance(g)), c.Seq); err != nil {
				return err
			}
		}
	} else if err := writeFasta(ctx, *af.fasta, g, contigs); err != nil {
		return err
	}
	if *af.rio != "" {
		return writeContigs(ctx, *af.rio, g, contigs, opts, stats)
	}
	return nil
}

func newCmdCount() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "count",
		Short:    "Count k-mers and write the de Bruijn graph",
		ArgsName: "",
		Long: `Count reads the -reads files, counts their canonical k-mers and writes the
graph to -out. An -out path ending in .gz is gzip compressed, one ending in
.sz is snappy compressed.`,
	}
	cf := addCountFlags(&cmd.Flags)
	out := cmd.Flags.String("out", "", "Output graph path")
	parallelism := cmd.Flags.Int("parallelism", 0, "Max number of goroutines; 0 = runtime.NumCPU()")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("count takes no arguments, but got %v", argv)
		}
		if *out == "" {
			return fmt.Errorf("-out is required")
		}
		ctx := vcontext.Background()
		g, err := count(ctx, cf, *parallelism)
		if err != nil {
			return err
		}
		return writeGraph(ctx, *out, g)
	})
	return cmd
}

func newCmdAssemble() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "assemble",
		Short:    "Assemble contigs from a graph written by count",
		ArgsName: "graphpath",
	}
	af := addAssembleFlags(&cmd.Flags)
	parallelism := cmd.Flags.Int("parallelism", 0, "Number of assembly workers; 0 = runtime.NumCPU()")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("assemble takes one graph path, but got %v", argv)
		}
		ctx := vcontext.Background()
		g, err := readGraph(ctx, argv[0])
		if err != nil {
			return err
		}
		return assemble(ctx, g, af, *parallelism)
	})
	return cmd
}

func newCmdRun() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "run",
		Short: "Count k-mers and assemble contigs",
	}
	cf := addCountFlags(&cmd.Flags)
	af := addAssembleFlags(&cmd.Flags)
	graph := cmd.Flags.String("graph", "", "If set, also write the graph to this path")
	parallelism := cmd.Flags.Int("parallelism", 0, "Max number of goroutines; 0 = runtime.NumCPU()")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return fmt.Errorf("run takes no arguments, but got %v", argv)
		}
		ctx := vcontext.Background()
		g, err := count(ctx, cf, *parallelism)
		if err != nil {
			return err
		}
		if *graph != "" {
			if err := writeGraph(ctx, *graph, g); err != nil {
				return err
			}
		}
		return assemble(ctx, g, af, *parallelism)
	})
	return cmd
}

func newCmdHistogram() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "histogram",
		Short:    "Print the k-mer abundance histogram of a graph as TSV",
		ArgsName: "graphpath",
	}
	out := cmd.Flags.String("out", "", "Output TSV path; stdout if empty")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("histogram takes one graph path, but got %v", argv)
		}
		ctx := vcontext.Background()
		g, err := readGraph(ctx, argv[0])
		if err != nil {
			return err
		}
		bins := g.Histogram()
		log.Printf("%d distinct k-mers, %d k-mer instances, valley at %d",
			bins.Distinct(), bins.Mass(), g.HistogramMinimum())
		return writeHistogram(ctx, *out, bins)
	})
	return cmd
}

func newCmdView() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "view",
		Short:    "Print the contigs of a recordio file written by assemble as FASTA",
		ArgsName: "riopath",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("view takes one recordio path, but got %v", argv)
		}
		ctx := vcontext.Background()
		contigs, abundances, trailer, err := readContigs(ctx, argv[0])
		if err != nil {
			return err
		}
		if d := assembler.Digest(contigs); d != trailer.Digest {
			return fmt.Errorf("%s: contig digest %016x, recorded %016x", argv[0], d, trailer.Digest)
		}
		log.Printf("%s: %d contigs, k=%d, stats %+v", argv[0], len(contigs), trailer.KmerLen, trailer.Stats)
		w := reads.NewFastaWriter(env.Stdout, reads.DefaultLineWidth)
		for i, c := range contigs {
			if err := w.Write(contigName(i, c, abundances[i]), c.Seq); err != nil {
				return err
			}
		}
		return nil
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-assemble",
			Short:    "De Bruijn graph assembler",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdCount(),
				newCmdAssemble(),
				newCmdRun(),
				newCmdHistogram(),
				newCmdView(),
			},
		})
}
