package kmercount

import (
	"math"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestPack(t *testing.T) {
	v := Pack(12345, 0x5, 0xa, 0.25)
	expect.EQ(t, Count(v), uint32(12345))
	expect.EQ(t, PlusBranches(v), uint8(0x5))
	expect.EQ(t, MinusBranches(v), uint8(0xa))
	expect.True(t, math.Abs(PlusFraction(v)-0.25) < 1e-4)
	expect.EQ(t, v&visitedBit, uint64(0))

	expect.EQ(t, PlusFraction(Pack(1, 0, 0, 1)), 1.0)
	expect.EQ(t, PlusFraction(Pack(1, 0, 0, 0)), 0.0)
	expect.EQ(t, PlusFraction(Pack(1, 0, 0, 7)), 1.0)
}

func TestAddCounts(t *testing.T) {
	v := AddCounts(Strand(true), Strand(false))
	expect.EQ(t, Count(v), uint32(2))
	expect.EQ(t, PlusCount(v), uint32(1))

	// The low half saturates without carrying into the plus count.
	v = AddCounts(math.MaxUint32, 5)
	expect.EQ(t, Count(v), uint32(math.MaxUint32))
	expect.EQ(t, PlusCount(v), uint32(0))

	v = AddCounts(uint64(math.MaxUint32)<<32|3, 1<<32|4)
	expect.EQ(t, Count(v), uint32(7))
	expect.EQ(t, PlusCount(v), uint32(math.MaxUint32))
}
