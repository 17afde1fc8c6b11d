// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hashfn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestXXH32KnownValue(t *testing.T) {
	// reference value for the empty input with seed 0
	require.Equal(t, uint32(0x02CC5D05), XXH32(nil, 0))
}

func TestDeterministic(t *testing.T) {
	for _, name := range Names() {
		fn, err := Lookup(name)
		require.NoError(t, err)

		for _, key := range []string{"", "Key", "Key2", "a much longer key that spans several blocks of input"} {
			a := fn([]byte(key), 7)
			b := fn([]byte(key), 7)
			require.Equal(t, a, b, "%s(%q)", name, key)
		}

		// different seeds should (overwhelmingly likely) give different hashes
		require.NotEqual(t, fn([]byte("Key"), 7), fn([]byte("Key"), 8), name)
	}
}

func TestLookup(t *testing.T) {
	require.Equal(t, []string{NameFarm, NameXXH32, NameXXH64}, Names())

	_, err := Lookup(Default)
	require.NoError(t, err)

	_, err = Lookup("md5")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownHash))
}
