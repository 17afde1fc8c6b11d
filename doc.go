// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package dbhash is a persistent, append-only multimap stored in a
// directory on disk.  Putting a key never overwrites: each Put adds a new
// version, and every version of a key can be read back oldest first.
//
// A table directory holds:
//
//	state.yml   bucket count, shard count, hash seed and hash function
//	index       one fixed-size slot per bucket: chain head, tail and length
//	0 .. n-1    shard files of interleaved, singly-linked record chains
//	LOCK        held with flock(2) while a Table is open
//
// A key hashes to a bucket, and the bucket number picks a shard.  Records
// for one bucket form a chain through the shard by forward pointers, so
// reads of a key only touch the records of its own bucket.
package dbhash
