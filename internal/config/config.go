// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package config reads and writes the small human-editable state file that
// records how keys are assigned to buckets and shards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bpowers/dbhash/hashfn"
)

// FileName is the name of the state file inside a table's directory.
const FileName = "state.yml"

const (
	DefaultBuckets = 3_152_573
	DefaultShards  = 5
	DefaultSeed    = 7
)

var ErrInvalid = errors.New("invalid configuration")

// Config determines bucket and shard assignment.  It must not change once a
// table holds data.
type Config struct {
	Buckets uint64 `yaml:"buckets"`
	Shards  uint64 `yaml:"shards"`
	Seed    uint32 `yaml:"seed"`
	Hash    string `yaml:"hash"`
}

// Default returns the configuration used when the caller asks for nothing else.
func Default() Config {
	return Config{
		Buckets: DefaultBuckets,
		Shards:  DefaultShards,
		Seed:    DefaultSeed,
		Hash:    hashfn.Default,
	}
}

// Validate checks that c describes a usable table.
func (c Config) Validate() error {
	if c.Buckets == 0 {
		return fmt.Errorf("buckets must be at least 1: %w", ErrInvalid)
	}
	if c.Shards == 0 {
		return fmt.Errorf("shards must be at least 1: %w", ErrInvalid)
	}
	if c.Shards > c.Buckets {
		return fmt.Errorf("shards (%d) can't exceed buckets (%d): %w", c.Shards, c.Buckets, ErrInvalid)
	}
	if _, err := hashfn.Lookup(c.Hash); err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	return nil
}

// UnmarshalYAML accepts both the mapping form written by Save and the older
// three-element sequence `[buckets, shards, seed]`.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var legacy []uint64
		if err := node.Decode(&legacy); err != nil {
			return err
		}
		if len(legacy) != 3 {
			return fmt.Errorf("line %d: expected [buckets, shards, seed], got %d elements: %w", node.Line, len(legacy), ErrInvalid)
		}
		if legacy[2] > 1<<32-1 {
			return fmt.Errorf("line %d: seed %d doesn't fit in 32 bits: %w", node.Line, legacy[2], ErrInvalid)
		}
		*c = Config{
			Buckets: legacy[0],
			Shards:  legacy[1],
			Seed:    uint32(legacy[2]),
			Hash:    hashfn.NameXXH32,
		}
		return nil
	case yaml.MappingNode:
		// plain alias so we don't recurse back into this method
		type plain Config
		p := plain{Hash: hashfn.Default}
		if err := node.Decode(&p); err != nil {
			return err
		}
		*c = Config(p)
		return nil
	default:
		return fmt.Errorf("line %d: unexpected YAML node: %w", node.Line, ErrInvalid)
	}
}

// Load reads the state file in dir.  ok is false if the file doesn't exist.
func Load(dir string) (c Config, ok bool, err error) {
	path := filepath.Join(dir, FileName)
	buf, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, false, nil
	} else if err != nil {
		return Config{}, false, fmt.Errorf("os.ReadFile(%s): %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return Config{}, false, fmt.Errorf("yaml.Unmarshal(%s): %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, false, fmt.Errorf("%s: %w", path, err)
	}
	return c, true, nil
}

// Save atomically writes c as the state file in dir.
func Save(dir string, c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	buf, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("yaml.Marshal: %w", err)
	}

	// write to a new file and do an atomic rename when we're done
	f, err := os.CreateTemp(dir, "state.*.yml")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}
	if _, err := f.Write(buf); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("f.Write: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("f.Sync: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("f.Close: %w", err)
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("os.Chmod(0644): %w", err)
	}
	if err := os.Rename(f.Name(), filepath.Join(dir, FileName)); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("os.Rename: %w", err)
	}
	return nil
}
