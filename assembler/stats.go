package assembler

// Stats counts events of an assembly run. Each worker keeps its own Stats;
// they are combined with Merge once the workers finish.
type Stats struct {
	// Seeds is the # of seeds a contig was attempted from.
	Seeds int
	// Contigs is the # of contigs built from seeds, before stitching.
	Contigs int
	// ShortRejected is the # of contigs discarded for being shorter than
	// Opts.MinContig with both ends free.
	ShortRejected int
	// Circular is the # of contigs whose extension came back to the seed.
	Circular int
	// DeadEnds is the # of extensions that ran out of successors.
	DeadEnds int
	// Ambiguous is the # of extensions stopped by an unresolved fork, a low
	// abundance node or a failed symmetry check.
	Ambiguous int
	// Blocked is the # of extensions stopped by a node claimed by another
	// contig.
	Blocked int
	// Bubbles is the # of reconverging branches merged by JumpOver.
	Bubbles int
	// Joins is the # of contig pairs joined by ConnectFragments.
	Joins int
}

// Merge adds the field values of the two Stats objects and creates new Stats.
func (s Stats) Merge(o Stats) Stats {
	s.Seeds += o.Seeds
	s.Contigs += o.Contigs
	s.ShortRejected += o.ShortRejected
	s.Circular += o.Circular
	s.DeadEnds += o.DeadEnds
	s.Ambiguous += o.Ambiguous
	s.Blocked += o.Blocked
	s.Bubbles += o.Bubbles
	s.Joins += o.Joins
	return s
}

func (s *Stats) addOutcome(o Outcome, blocked bool) {
	switch {
	case blocked:
		s.Blocked++
	case o == NoConnection:
		s.DeadEnds++
	case o == Ambiguous:
		s.Ambiguous++
	}
}
