// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitset provides a fixed-length in-memory bitmap, used to mark which
// records of a shard have been reached.
package bitset

import (
	"math/bits"
)

// Bitset is an in-memory bitmap that is conceptually similar to []bool, but more memory efficient.
type Bitset struct {
	bits   []uint64
	length int64
}

func getOffsets(off int64) (sliceOff int64, bitOff uint64) {
	sliceOff = off / 64
	bitOff = uint64(off) % 64
	return
}

// New returns a bitset of length bits, all clear.
func New(length int64) *Bitset {
	sliceLen := (length + 63) / 64
	return &Bitset{
		bits:   make([]uint64, sliceLen),
		length: length,
	}
}

// Len returns the number of bits in the set.
func (b *Bitset) Len() int64 {
	return b.length
}

// TestAndSet sets the bit at position `off` and reports whether it was
// already set.
func (b *Bitset) TestAndSet(off int64) bool {
	if off < 0 || off >= b.length {
		return false
	}
	sliceOff, bitOff := getOffsets(off)
	u64 := &b.bits[sliceOff]
	was := *u64&(1<<bitOff) != 0
	*u64 |= 1 << bitOff
	return was
}

// Count returns the number of set bits.
func (b *Bitset) Count() int64 {
	var n int
	for _, u64 := range b.bits {
		n += bits.OnesCount64(u64)
	}
	return int64(n)
}
