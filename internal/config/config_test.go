// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/dbhash/hashfn"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	_, ok, err := Load(dir)
	require.NoError(t, err)
	require.False(t, ok)

	want := Config{Buckets: 97, Shards: 3, Seed: 7, Hash: hashfn.NameFarm}
	require.NoError(t, Save(dir, want))

	got, ok, err := Load(dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want, got)

	// no temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, FileName, entries[0].Name())
}

func TestLoad_HumanEdited(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
		want Config
	}{
		{
			name: "mapping",
			yaml: "buckets: 101\nshards: 2\nseed: 9\nhash: xxh64\n",
			want: Config{Buckets: 101, Shards: 2, Seed: 9, Hash: hashfn.NameXXH64},
		},
		{
			name: "mapping without hash",
			yaml: "buckets: 101\nshards: 2\nseed: 9\n",
			want: Config{Buckets: 101, Shards: 2, Seed: 9, Hash: hashfn.Default},
		},
		{
			name: "legacy sequence",
			yaml: "---\n- 3152573\n- 5\n- 7\n",
			want: Config{Buckets: 3152573, Shards: 5, Seed: 7, Hash: hashfn.NameXXH32},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(tc.yaml), 0644))
			got, ok, err := Load(dir)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{"zero buckets", "buckets: 0\nshards: 1\nseed: 7\n"},
		{"zero shards", "buckets: 10\nshards: 0\nseed: 7\n"},
		{"more shards than buckets", "buckets: 2\nshards: 3\nseed: 7\n"},
		{"unknown hash", "buckets: 10\nshards: 3\nseed: 7\nhash: md5\n"},
		{"short sequence", "[10, 3]\n"},
		{"scalar", "10\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(tc.yaml), 0644))
			_, _, err := Load(dir)
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	err := Config{Buckets: 1, Shards: 1, Hash: "nope"}.Validate()
	require.True(t, errors.Is(err, hashfn.ErrUnknownHash))

	err = Config{Buckets: 0, Shards: 1, Hash: hashfn.Default}.Validate()
	require.True(t, errors.Is(err, ErrInvalid))

	require.Error(t, Save(t.TempDir(), Config{}))
}
