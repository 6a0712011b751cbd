package dbgraph

import (
	"github.com/grailbio/assembly/kmercount"
	"github.com/grailbio/base/log"
)

const (
	// slopeLen is the number of bins on each side of a peak that must be
	// strictly lower than the peak.
	slopeLen = 5
	// minBinCount excludes sparse bins from the genome mass estimate.
	minBinCount = 100
	// massFraction of the k-mer mass lies left of the initial search limit.
	massFraction = 0.8
	// maxValleyRatio is the max valley/peak height ratio of an accepted valley.
	maxValleyRatio = 0.7
)

// findValleyAndPeak returns the index of the deepest bin left of the
// rightmost peak at or below rlimit, or -1 if there is no such valley.
func findValleyAndPeak(bins kmercount.Bins, rlimit int) int {
	peak := rlimit
	if m := len(bins) - slopeLen - 1; m < peak {
		peak = m
	}
	for ; peak >= slopeLen; peak-- {
		maxim := true
		for i := 1; i <= slopeLen && maxim; i++ {
			maxim = bins[peak+i].Count < bins[peak].Count
		}
		for i := 1; i <= slopeLen && maxim; i++ {
			maxim = bins[peak-i].Count < bins[peak].Count
		}
		if maxim {
			break
		}
	}
	if peak < slopeLen {
		return -1
	}
	valley := 0
	for i := 1; i <= peak; i++ {
		if bins[i].Count < bins[valley].Count {
			valley = i
		}
	}
	if valley == peak {
		return -1
	}
	for i := valley; i < len(bins); i++ {
		if bins[i].Count > bins[peak].Count {
			peak = i
		}
	}
	if float64(bins[valley].Count) < maxValleyRatio*float64(bins[peak].Count) {
		return valley
	}
	return -1
}

// histogramRange returns the valley separating erroneous k-mers from
// genomic ones (-1 if none) and the right limit of the genomic range.
func histogramRange(bins kmercount.Bins) (valley, rlimit int) {
	var gsize uint64
	for _, b := range bins {
		if b.Count >= minBinCount {
			gsize += uint64(b.Abundance) * b.Count
		}
	}
	rl := 0
	var gs uint64
	for _, b := range bins {
		gs += uint64(b.Abundance) * b.Count
		rl++
		if float64(gs) > massFraction*float64(gsize) {
			break
		}
	}

	valley, rlimit = -1, rl
	var genome uint64
	for {
		v := findValleyAndPeak(bins, rl)
		var g uint64
		start := v
		if start < 0 {
			start = 0
		}
		for i := start; i <= rl && i < len(bins); i++ {
			g += bins[i].Count
		}
		if (v >= 0 && g > genome) || g > 10*genome {
			valley, rlimit, genome = v, rl, g
		}
		if v < 0 {
			break
		}
		rl = v
	}
	return valley, rlimit
}

// HistogramMinimum returns the abundance at the valley between the error
// k-mers and the genomic k-mers of the histogram, or 0 if there is none.
func (g *Graph) HistogramMinimum() int {
	valley, rlimit := histogramRange(g.bins)
	if valley < 0 {
		log.Debug.Printf("dbgraph: no histogram valley (%d bins)", len(g.bins))
		return 0
	}
	log.Debug.Printf("dbgraph: histogram valley at abundance %d, right limit %d",
		g.bins[valley].Abundance, g.bins[min(rlimit, len(g.bins)-1)].Abundance)
	return g.bins[valley].Abundance
}
