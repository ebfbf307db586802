// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/urfave/cli/v3"

	"github.com/staranto/photoctl/internal/config"
	"github.com/staranto/photoctl/internal/meta"
	"github.com/staranto/photoctl/internal/output"
	"github.com/staranto/photoctl/internal/result"
	"github.com/staranto/photoctl/internal/session"
)

// defaultShowAttrs are the columns session show prints without --attrs.
var defaultShowAttrs = []string{"filename", "status", "portico", "disciplina", "method", "confidence::p"}

func SessionMergeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	config.Config.Namespace = "session"

	args := cmd.Args().Slice()
	if err := ArgCountValidator(args, 2, cmd.UsageText); err != nil { //nolint:mnd
		return err
	}

	existing, imported, err := loadPair(args)
	if err != nil {
		return err
	}

	merged := session.Merge(existing.Results, imported.Results)
	added := len(merged) - len(existing.Results)

	b, err := session.Save(merged, existing.Empresa, m.Clock())
	if err != nil {
		return err
	}

	out := cmd.String("out")
	if out == "" {
		out = session.Filename(m.Clock())
	}
	if err := WriteOut(cmd, out, b); err != nil {
		return err
	}

	if out != "-" {
		fmt.Fprintf(Stdout(cmd), "%d result(s): %d added, %d replaced\n",
			len(merged), added, len(imported.Results)-added)
	}
	return nil
}

func SessionDiffCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "session"

	args := cmd.Args().Slice()
	if err := ArgCountValidator(args, 2, cmd.UsageText); err != nil { //nolint:mnd
		return err
	}

	existing, imported, err := loadPair(args)
	if err != nil {
		return err
	}

	d, err := session.Diff(existing.Results, imported.Results, cmd.Bool("color"))
	if err != nil {
		return err
	}

	w := Stdout(cmd)
	if d == "" {
		fmt.Fprintln(w, "no changes")
		return nil
	}
	_, err = io.WriteString(w, d)
	return err
}

func SessionShowCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "session"

	if DumpSchemaIfRequested(cmd, reflect.TypeOf(result.ProcessingResult{})) {
		return nil
	}

	args := cmd.Args().Slice()
	if err := ArgCountValidator(args, 1, cmd.UsageText); err != nil {
		return err
	}

	saved, err := LoadSession(cmd, args[0])
	if err != nil {
		return err
	}

	dataset, err := output.ToDataset(saved.Results)
	if err != nil {
		return fmt.Errorf("failed to flatten results: %w", err)
	}
	output.SortDataset(dataset, cmd.String("sort"))

	al := BuildAttrs(cmd, defaultShowAttrs...)

	return outputEmit(cmd, dataset, func(w io.Writer) error {
		rows, err := al.Project(dataset)
		if err != nil {
			return err
		}
		if cmd.Bool("titles") {
			fmt.Fprintf(w, "%s  %s  %d result(s)\n", saved.Empresa, saved.SavedAt.Format("2006-01-02 15:04"), len(rows))
		}
		output.TableWriter(w, al.Headers(), rows, TableOptions(cmd))
		return nil
	})
}

func loadPair(args []string) (existing, imported session.Saved, err error) {
	if existing, err = session.ReadFile(args[0]); err != nil {
		return
	}
	imported, err = session.ReadFile(args[1])
	return
}

func SessionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	ns := "session"
	md := map[string]any{"meta": meta}

	return &cli.Command{
		Name:      "session",
		Usage:     "merge, compare and inspect saved sessions",
		UsageText: "photoctl session merge|diff|show",
		Metadata:  md,
		Commands: []*cli.Command{
			{
				Name:      "merge",
				Usage:     "import one session into another, replacing by filename",
				UsageText: "photoctl session merge [options] EXISTING IMPORTED",
				Metadata:  md,
				Flags: []cli.Flag{
					NewOutFlag("merged snapshot to write (default sessao-YYYY-MM-DD.json, - for stdout)"),
				},
				Action: SessionMergeCommandAction,
			},
			{
				Name:      "diff",
				Usage:     "show what a merge would change",
				UsageText: "photoctl session diff [options] EXISTING IMPORTED",
				Metadata:  md,
				Flags:     NewGlobalFlags(ns),
				Action:    SessionDiffCommandAction,
			},
			{
				Name:      "show",
				Usage:     "list the results of a session",
				UsageText: "photoctl session show [options] SESSION",
				Metadata:  md,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "attrs",
						Aliases: []string{"a"},
						Usage:   "comma-separated list of attributes to include in results",
					},
					NewFilterFlag(),
					NewSortFlag(ns),
					NewSchemaFlag(),
				}, NewGlobalFlags(ns)...),
				Action: SessionShowCommandAction,
			},
		},
	}
}
