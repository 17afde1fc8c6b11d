// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package hashfn provides the seeded 32-bit hash functions a table can be
// configured with.  A table must always be reopened with the same function
// and seed it was created with; the function's name is persisted alongside
// the data for that reason.
package hashfn

import (
	"errors"
	"fmt"
	"sort"

	oneofone "github.com/OneOfOne/xxhash"
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-farm"
)

// Func deterministically hashes key with seed.
type Func func(key []byte, seed uint32) uint32

const (
	NameXXH32 = "xxh32"
	NameXXH64 = "xxh64"
	NameFarm  = "farm"

	// Default is used by tables that don't ask for anything else.
	Default = NameXXH32
)

var ErrUnknownHash = errors.New("unknown hash function")

var funcs = map[string]Func{
	NameXXH32: XXH32,
	NameXXH64: XXH64,
	NameFarm:  Farm,
}

// XXH32 is the 32-bit xxHash of key.
func XXH32(key []byte, seed uint32) uint32 {
	return oneofone.Checksum32S(key, seed)
}

// XXH64 is the low 32 bits of the 64-bit xxHash of key.
func XXH64(key []byte, seed uint32) uint32 {
	d := xxhash.NewWithSeed(uint64(seed))
	_, _ = d.Write(key)
	return uint32(d.Sum64())
}

// Farm is farmhash's 32-bit Hash32WithSeed.
func Farm(key []byte, seed uint32) uint32 {
	return farm.Hash32WithSeed(key, seed)
}

// Lookup returns the hash function registered under name.
func Lookup(name string) (Func, error) {
	fn, ok := funcs[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownHash)
	}
	return fn, nil
}

// Names returns the registered function names in sorted order.
func Names() []string {
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
