// Copyright 2026 The dbhash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command dbhash inspects and edits a dbhash table from the command line.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/bpowers/dbhash"
	"github.com/bpowers/dbhash/hashfn"
)

const usage = `usage: dbhash [flags] <command> [args]

commands:
  demo               write 10 versions each of Key, Key2 and Key3, then read them back
  put <key> <value>  append a value for key
  get <key> [n]      print every value of key, or only the nth
  dump               print every record as key:value
  stats              print bucket and shard occupancy
  check              verify every chain and count unreachable records
  load [file]        put every key:value line of file (or stdin)

flags:
`

func main() {
	var (
		dir     = flag.String("dir", "db", "table directory")
		buckets = flag.Uint64("buckets", 0, "bucket count for a new table (default 3152573)")
		shards  = flag.Uint64("shards", 0, "shard count for a new table (default 5)")
		seed    = flag.Uint64("seed", 0, "hash seed for a new table (default 7)")
		hash    = flag.String("hash", "", fmt.Sprintf("hash function for a new table, one of %v", hashfn.Names()))
		verbose = flag.Bool("v", false, "log debug output to stderr")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []dbhash.Option{dbhash.WithLogger(logger)}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "buckets":
			opts = append(opts, dbhash.WithBuckets(*buckets))
		case "shards":
			opts = append(opts, dbhash.WithShards(*shards))
		case "seed":
			opts = append(opts, dbhash.WithSeed(uint32(*seed)))
		case "hash":
			opts = append(opts, dbhash.WithHash(*hash))
		}
	})

	if err := run(*dir, opts, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "dbhash: %s\n", err)
		os.Exit(1)
	}
}

func run(dir string, opts []dbhash.Option, cmd string, args []string) (err error) {
	table, err := dbhash.Open(dir, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := table.Close(); err == nil {
			err = closeErr
		}
	}()

	w := bufio.NewWriter(os.Stdout)
	defer func() {
		if flushErr := w.Flush(); err == nil {
			err = flushErr
		}
	}()

	switch cmd {
	case "demo":
		return demo(w, table)
	case "put":
		if len(args) != 2 {
			return errors.New("put needs <key> <value>")
		}
		return table.PutString(args[0], args[1])
	case "get":
		return get(w, table, args)
	case "dump":
		return dump(w, table)
	case "stats":
		return stats(w, table)
	case "load":
		return load(w, table, args)
	case "check":
		report, err := table.Check()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "chains: %d\nreachable: %d\norphans: %d\n", report.Chains, report.Reachable, report.Orphans)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func demo(w io.Writer, table *dbhash.Table) error {
	keys := []string{"Key", "Key2", "Key3"}
	for i := 0; i < 10; i++ {
		for _, k := range keys {
			if err := table.PutString(k, fmt.Sprintf("%s value %d", k, i)); err != nil {
				return err
			}
		}
	}
	for _, k := range keys {
		if err := printValues(w, table, k); err != nil {
			return err
		}
		last, _, err := table.LastString(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "last %s: %s\n", k, last)
	}
	return table.Flush()
}

func printValues(w io.Writer, table *dbhash.Table, key string) error {
	it := table.IterFor([]byte(key))
	defer func() {
		_ = it.Close()
	}()
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		fmt.Fprintf(w, "%s:%s\n", item.Key, item.Value)
	}
	return it.Err()
}

func get(w io.Writer, table *dbhash.Table, args []string) error {
	switch len(args) {
	case 1:
		return printValues(w, table, args[0])
	case 2:
		n, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad index %q: %w", args[1], err)
		}
		v, err := table.Nth([]byte(args[0]), n)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\n", v)
		return nil
	default:
		return errors.New("get needs <key> [n]")
	}
}

func dump(w io.Writer, table *dbhash.Table) error {
	it := table.Iter()
	defer func() {
		_ = it.Close()
	}()
	for {
		item, ok := it.Next()
		if !ok {
			break
		}
		fmt.Fprintf(w, "%s:%s\n", item.Key, item.Value)
	}
	return it.Err()
}

func stats(w io.Writer, table *dbhash.Table) error {
	st, err := table.Stats()
	if err != nil {
		return err
	}
	c := table.Config()
	fmt.Fprintf(w, "buckets: %d\nshards: %d\nseed: %d\nhash: %s\n", c.Buckets, c.Shards, c.Seed, c.Hash)
	fmt.Fprintf(w, "records: %d\nbuckets used: %d\nlongest chain: %d\nindex slots: %d\n",
		st.Records, st.BucketsUsed, st.LongestChain, st.IndexSlots)
	for _, s := range st.Shards {
		fmt.Fprintf(w, "%s: %d records, %d bytes\n", s.Path, s.Records, s.DataBytes)
	}
	return nil
}

func load(w io.Writer, table *dbhash.Table, args []string) error {
	var r io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	}
	n, err := table.Load(r)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "loaded %d records\n", n)
	return table.Flush()
}
