package assembler

import "runtime"

// Opts configures a Digger.
type Opts struct {
	// Fraction is the relative abundance below which a branch is treated as
	// noise: a successor whose abundance is <= Fraction times the total
	// abundance of its siblings is dropped.
	Fraction float64
	// Jump is the max number of steps taken to resolve a fork or bubble.
	Jump int
	// LowCount is the minimum abundance of a node to be extended through or
	// used as a seed.
	LowCount int
	// MinContig is the minimum length of a reported contig. Shorter contigs
	// whose ends were not blocked by other contigs are discarded.
	MinContig int
	// MaxBranch caps the number of concurrently explored branches in
	// JumpOver and ConnectTwoNodes. Searches that exceed it are ambiguous.
	MaxBranch int
	// Parallelism is the number of workers of GenerateContigs. Zero means
	// NumCPU.
	Parallelism int
	// Stitch enables joining contigs over their denied neighbors after
	// all workers finish.
	Stitch bool
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Fraction:    0.1,
	Jump:        150,
	LowCount:    2,
	MinContig:   200,
	MaxBranch:   200,
	Parallelism: runtime.NumCPU(),
	Stitch:      true,
}
