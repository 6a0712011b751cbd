package kmer

// Window is one k-mer of a sequence scanned by Kmerizer.
type Window[W Words] struct {
	// Pos is the offset of the window in the sequence.
	Pos int
	// Forward and reverse-complement k-mers encoding seq[Pos,Pos+kmerLen).
	Forward, RevComp Kmer[W]
}

// Canonical returns the smaller of Forward and RevComp, and whether RevComp
// was chosen.
func (w Window[W]) Canonical() (Kmer[W], bool) {
	if w.RevComp.Less(w.Forward) {
		return w.RevComp, true
	}
	return w.Forward, false
}

// Kmerizer lists the k-mers of a sequence, skipping windows that contain a
// non-ACGT base.
//
// Example:
//   kz := kmer.NewKmerizer[kmer.W1](25)
//   kz.Reset(seq)
//   for kz.Scan() {
//     w := kz.Get()
//     ...
//   }
type Kmerizer[W Words] struct {
	kmerLen int

	seq string
	si  int
	cur Window[W]
}

// NewKmerizer creates a Kmerizer for k-mers of the given length.
func NewKmerizer[W Words](kmerLen int) *Kmerizer[W] {
	return &Kmerizer[W]{kmerLen: kmerLen}
}

// Reset starts scanning seq.
func (k *Kmerizer[W]) Reset(seq string) {
	k.seq = seq
	k.si = 0
}

func nextAmbiguousPosition(seq string, si int) int {
	for i := si; i < len(seq); i++ {
		if asciiToBaseMap[seq[i]] == invalidBaseBits {
			return i
		}
	}
	return len(seq)
}

// Scan advances to the next window. It returns false once the sequence is
// exhausted.
func (k *Kmerizer[W]) Scan() bool {
	if k.si > 0 /*k.cur is set*/ && k.si+k.kmerLen <= len(k.seq) {
		nextCh := k.seq[k.si+k.kmerLen-1]
		if b := asciiToBaseMap[nextCh]; b != invalidBaseBits {
			// Fast path: roll the new base into both strands.
			k.cur.Pos = k.si
			k.cur.Forward = k.cur.Forward.Shift(k.kmerLen, b)
			k.cur.RevComp = k.cur.RevComp.Prepend(k.kmerLen, 3-b)
			k.si++
			return true
		}
		// Fall through
	}

	for k.si+k.kmerLen <= len(k.seq) {
		forwardStr := k.seq[k.si : k.si+k.kmerLen]
		forward, ok := FromString[W](forwardStr)
		if !ok {
			k.si = nextAmbiguousPosition(k.seq, k.si) + 1
			continue
		}
		k.cur = Window[W]{Pos: k.si, Forward: forward, RevComp: forward.RevComp(k.kmerLen)}
		k.si++
		return true
	}
	return false
}

// Get yields the current window.
//
// REQUIRES: the last Scan call returned true.
func (k *Kmerizer[W]) Get() Window[W] { return k.cur }
