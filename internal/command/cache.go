// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/staranto/photoctl/internal/cache"
	"github.com/staranto/photoctl/internal/config"
	"github.com/staranto/photoctl/internal/meta"
	"github.com/staranto/photoctl/internal/output"
	"github.com/staranto/photoctl/internal/result"
)

type cacheStats struct {
	Store           string `json:"store" yaml:"store"`
	Count           int    `json:"count" yaml:"count"`
	ApproximateSize int    `json:"approximateSize" yaml:"approximateSize"`
}

type lookupRow struct {
	File   string                   `json:"file" yaml:"file"`
	Hash   string                   `json:"hash" yaml:"hash"`
	Hit    bool                     `json:"hit" yaml:"hit"`
	Result *result.ProcessingResult `json:"result,omitempty" yaml:"result,omitempty"`
}

func CacheStatsCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "cache"

	c, _, closer, err := OpenCache(ctx, cmd)
	if err != nil {
		return err
	}
	defer closer()

	s := c.Stats()
	stats := cacheStats{Store: storeLabel(cmd), Count: s.Count, ApproximateSize: s.ApproximateSize}

	return outputEmit(cmd, stats, func(w io.Writer) error {
		if cmd.String("output") == "table" {
			output.TableWriter(w,
				[]string{"store", "entries", "size"},
				[][]string{{stats.Store, humanize.Comma(int64(stats.Count)), humanize.Bytes(uint64(stats.ApproximateSize))}}, //nolint:gosec
				TableOptions(cmd))
			return nil
		}
		_, err := fmt.Fprintf(w, "store:   %s\nentries: %s\nsize:    ~%s\n",
			stats.Store, humanize.Comma(int64(stats.Count)), humanize.Bytes(uint64(stats.ApproximateSize))) //nolint:gosec
		return err
	})
}

func CacheLookupCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "cache"

	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errors.New("no files specified")
	}

	c, _, closer, err := OpenCache(ctx, cmd)
	if err != nil {
		return err
	}
	defer closer()

	rows := make([]lookupRow, 0, len(files))
	for _, f := range files {
		hash, err := cache.FingerprintFile(ctx, f)
		if err != nil {
			return err
		}
		row := lookupRow{File: filepath.ToSlash(f), Hash: hash}
		if r, ok := c.Lookup(hash); ok {
			r = r.WithFilename(row.File)
			row.Hit, row.Result = true, &r
		}
		rows = append(rows, row)
	}

	return outputEmit(cmd, rows, func(w io.Writer) error {
		dataset := make([]map[string]interface{}, 0, len(rows))
		for _, row := range rows {
			status := "miss"
			if row.Hit {
				status = row.Result.Status
			}
			dataset = append(dataset, map[string]interface{}{"file": row.File, "hash": row.Hash, "cached": status})
		}
		output.DatasetTable(w, dataset, []string{"file", "hash", "cached"}, TableOptions(cmd))
		return nil
	})
}

func CacheEvictCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "cache"

	hashes := cmd.Args().Slice()
	if len(hashes) == 0 {
		return errors.New("no hashes specified")
	}

	c, _, closer, err := OpenCache(ctx, cmd)
	if err != nil {
		return err
	}
	defer closer()

	w := Stdout(cmd)
	for _, h := range hashes {
		if c.Evict(ctx, h) {
			fmt.Fprintf(w, "evicted %s\n", h)
		} else {
			fmt.Fprintf(w, "%s not cached\n", h)
		}
	}
	return nil
}

func CacheClearCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "cache"

	c, _, closer, err := OpenCache(ctx, cmd)
	if err != nil {
		return err
	}
	defer closer()

	n := c.Stats().Count
	c.Clear(ctx)
	fmt.Fprintf(Stdout(cmd), "cleared %d entr%s\n", n, plural(n, "y", "ies"))
	return nil
}

func storeLabel(cmd *cli.Command) string {
	if s := cmd.String("store"); s != "" {
		return s
	}
	return "default"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func CacheCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	ns := "cache"
	md := map[string]any{"meta": meta}

	return &cli.Command{
		Name:      "cache",
		Usage:     "inspect and maintain the result cache",
		UsageText: "photoctl cache stats|lookup|evict|clear",
		Metadata:  md,
		Commands: []*cli.Command{
			{
				Name:     "stats",
				Usage:    "show entry count and approximate size",
				Metadata: md,
				Flags:    NewGlobalFlags(ns),
				Action:   CacheStatsCommandAction,
			},
			{
				Name:      "lookup",
				Usage:     "fingerprint files and report cached results",
				UsageText: "photoctl cache lookup FILE...",
				Metadata:  md,
				Flags:     NewGlobalFlags(ns),
				Action:    CacheLookupCommandAction,
			},
			{
				Name:      "evict",
				Usage:     "remove entries by hash",
				UsageText: "photoctl cache evict HASH...",
				Metadata:  md,
				Action:    CacheEvictCommandAction,
			},
			{
				Name:     "clear",
				Usage:    "remove every entry and the durable slot",
				Metadata: md,
				Action:   CacheClearCommandAction,
			},
		},
	}
}
