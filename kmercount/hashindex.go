package kmercount

import (
	"sync"

	"github.com/grailbio/assembly/kmer"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// ErrBadKmer is returned for a sequence that has the wrong length or a
// non-ACGT base.
var ErrBadKmer = errors.E(errors.Invalid, "kmercount: not a valid kmer")

// This file implements a canonical k-mer -> V map. The map is sharded
// 256-ways using the low 8 bits of farmhash(kmer) to pick the shard; each
// shard is a Go map behind its own mutex.

const nHashIndexShard = 256

type hashShard[W kmer.Words, V any] struct {
	mu sync.Mutex
	m  map[kmer.Kmer[W]]V
}

type hashIndex[W kmer.Words, V any] struct {
	kmerLen int
	shards  [nHashIndexShard]hashShard[W, V]
}

// indexVariant is the precision-independent view of a *hashIndex[W,V].
type indexVariant[V any] interface {
	insert(seq string, v V) (replaced, ok bool)
	find(seq string) (v V, isRC, ok bool)
	size() int
	do(fn func(seq string, v V))
}

// HashIndex maps canonical k-mers to values of type V. Lookups accept either
// orientation of a k-mer and report which one was given. It is safe for
// concurrent use.
//
// A zero HashIndex is not usable; create one with NewHashIndex.
type HashIndex[V any] struct {
	kmerLen int
	v       indexVariant[V]
}

// NewHashIndex creates an empty index for k-mers of the given length.
func NewHashIndex[V any](kmerLen int) (*HashIndex[V], error) {
	prec, err := kmer.PrecisionFor(kmerLen)
	if err != nil {
		return nil, err
	}
	h := &HashIndex[V]{kmerLen: kmerLen}
	switch prec {
	case kmer.P1:
		h.v = newHashIndex[kmer.W1, V](kmerLen)
	case kmer.P2:
		h.v = newHashIndex[kmer.W2, V](kmerLen)
	case kmer.P4:
		h.v = newHashIndex[kmer.W4, V](kmerLen)
	case kmer.P8:
		h.v = newHashIndex[kmer.W8, V](kmerLen)
	default:
		h.v = newHashIndex[kmer.W16, V](kmerLen)
	}
	return h, nil
}

func (h *HashIndex[V]) get() indexVariant[V] {
	if h.v == nil {
		log.Panicf("kmercount: uninitialized hash index")
	}
	return h.v
}

// KmerLen is the length of the k-mers in the index.
func (h *HashIndex[V]) KmerLen() int { return h.kmerLen }

// Insert stores v under the canonical form of seq. It returns true if an
// existing value was replaced, and ErrBadKmer if seq is not a valid k-mer of
// the index's length.
func (h *HashIndex[V]) Insert(seq string, v V) (replaced bool, err error) {
	if len(seq) != h.kmerLen {
		return false, ErrBadKmer
	}
	replaced, ok := h.get().insert(seq, v)
	if !ok {
		return false, ErrBadKmer
	}
	return replaced, nil
}

// Find looks up seq. isRC reports whether seq is the reverse complement of
// the stored canonical k-mer.
func (h *HashIndex[V]) Find(seq string) (v V, isRC, ok bool) {
	if len(seq) != h.kmerLen {
		return v, false, false
	}
	return h.get().find(seq)
}

// Len is the number of k-mers in the index.
func (h *HashIndex[V]) Len() int { return h.get().size() }

// Do calls fn for every entry, in no particular order. fn must not modify
// the index.
func (h *HashIndex[V]) Do(fn func(seq string, v V)) { h.get().do(fn) }

func newHashIndex[W kmer.Words, V any](kmerLen int) *hashIndex[W, V] {
	idx := &hashIndex[W, V]{kmerLen: kmerLen}
	for i := range idx.shards {
		idx.shards[i].m = make(map[kmer.Kmer[W]]V)
	}
	return idx
}

func (idx *hashIndex[W, V]) canonical(seq string) (k kmer.Kmer[W], isRC, ok bool) {
	k, ok = kmer.FromString[W](seq)
	if !ok {
		return k, false, false
	}
	k, isRC = k.Canonical(idx.kmerLen)
	return k, isRC, true
}

func (idx *hashIndex[W, V]) shard(k kmer.Kmer[W]) *hashShard[W, V] {
	return &idx.shards[k.Hash()%nHashIndexShard]
}

func (idx *hashIndex[W, V]) insert(seq string, v V) (replaced, ok bool) {
	k, _, ok := idx.canonical(seq)
	if !ok {
		return false, false
	}
	s := idx.shard(k)
	s.mu.Lock()
	_, replaced = s.m[k]
	s.m[k] = v
	s.mu.Unlock()
	return replaced, true
}

func (idx *hashIndex[W, V]) find(seq string) (v V, isRC, ok bool) {
	k, isRC, ok := idx.canonical(seq)
	if !ok {
		return v, false, false
	}
	s := idx.shard(k)
	s.mu.Lock()
	v, ok = s.m[k]
	s.mu.Unlock()
	return v, isRC, ok
}

func (idx *hashIndex[W, V]) size() int {
	n := 0
	for i := range idx.shards {
		s := &idx.shards[i]
		s.mu.Lock()
		n += len(s.m)
		s.mu.Unlock()
	}
	return n
}

func (idx *hashIndex[W, V]) do(fn func(seq string, v V)) {
	for i := range idx.shards {
		s := &idx.shards[i]
		s.mu.Lock()
		for k, v := range s.m {
			fn(k.String(idx.kmerLen), v)
		}
		s.mu.Unlock()
	}
}
