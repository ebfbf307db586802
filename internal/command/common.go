// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/photoctl/internal/attrs"
	"github.com/staranto/photoctl/internal/cache"
	"github.com/staranto/photoctl/internal/filters"
	"github.com/staranto/photoctl/internal/meta"
	"github.com/staranto/photoctl/internal/metrics"
	"github.com/staranto/photoctl/internal/output"
	"github.com/staranto/photoctl/internal/session"
	"github.com/staranto/photoctl/internal/store"
)

// DumpSchemaIfRequested prints the schema for the provided type when
// --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, t reflect.Type) bool {
	if cmd.Bool("schema") {
		output.DumpSchema(Stdout(cmd), t)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (al attrs.AttrList) {
	//nolint:errcheck
	{
		for _, d := range defaults {
			al.Set(d)
		}
		if extras := cmd.String("attrs"); extras != "" {
			al.Set(extras)
		}
		al.SetGlobalTransformSpec()
	}
	return
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// Stdout is where a command writes its payload. It is the root command's
// Writer so tests can capture it.
func Stdout(cmd *cli.Command) io.Writer {
	if cmd != nil {
		if root := cmd.Root(); root != nil && root.Writer != nil {
			return root.Writer
		}
	}
	return os.Stdout
}

// TableOptions collects the --color and --titles flags.
func TableOptions(cmd *cli.Command) output.TableOptions {
	return output.TableOptions{
		Color:  cmd.Bool("color"),
		Titles: cmd.Bool("titles"),
	}
}

// OpenCache opens the slot named by --store and loads the result cache from
// it. The returned close func releases the slot.
func OpenCache(ctx context.Context, cmd *cli.Command) (*cache.Cache, *metrics.CacheMetrics, func(), error) {
	m := GetMeta(cmd)

	spec := cmd.String("store")
	slot, err := store.Open(ctx, spec, cache.SlotName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	log.WithField("slot", slot.String()).Debug("opened cache slot")

	cm := metrics.NewCacheMetrics()
	c := cache.New(ctx, slot, cache.WithMetrics(cm), cache.WithClock(m.Clock))

	closer := func() {
		if err := slot.Close(); err != nil {
			log.WithError(err).Warn("failed to close cache slot")
		}
	}
	return c, cm, closer, nil
}

// LoadSession reads the session snapshot at path and narrows its results
// with --filter when the command carries one.
func LoadSession(cmd *cli.Command, path string) (session.Saved, error) {
	saved, err := session.ReadFile(path)
	if err != nil {
		return session.Saved{}, err
	}

	if spec := cmd.String("filter"); spec != "" {
		before := len(saved.Results)
		saved.Results = filters.Apply(saved.Results, spec)
		log.Debugf("filter %q kept %d of %d results", spec, len(saved.Results), before)
	}
	return saved, nil
}

// DefaultOut derives an output path from the session path by swapping the
// extension, so dir/sessao-2025-03-01.json becomes dir/sessao-2025-03-01.csv.
func DefaultOut(sessionPath string, ext string) string {
	return strings.TrimSuffix(sessionPath, filepath.Ext(sessionPath)) + ext
}

// WriteOut writes b to path and reports the path on stderr. "-" writes to
// the command's stdout.
func WriteOut(cmd *cli.Command, path string, b []byte) error {
	if path == "-" {
		_, err := Stdout(cmd).Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil { //nolint:gosec,mnd
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", path)
	return nil
}

// outputEmit renders v in the --output format, falling back to text.
func outputEmit(cmd *cli.Command, v any, text func(io.Writer) error) error {
	return output.Emit(Stdout(cmd), cmd.String("output"), v, text)
}
