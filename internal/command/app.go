// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/staranto/photoctl/internal/config"
	"github.com/staranto/photoctl/internal/meta"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, _ := os.Getwd()

	// The arg[1] immediately following the binary (arg[0]) is the photoctl
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// Flags built below read their yaml sources from cfg.Source, so refresh it
	// for whatever PHOTOCTL_CFG says now.
	cfg, _ = config.Load(ns)
	meta := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
		Now:         time.Now,
	}

	app := &cli.Command{
		Name:  "photoctl",
		Usage: "Photo classification cache and export",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "photoctl version info",
				HideDefault: true,
			},
			NewStoreFlag(ns),
		},
	}

	app.Commands = append(app.Commands,
		CacheCommandBuilder(app, meta),
		ClassifyCommandBuilder(app, meta),
		CompletionCommandBuilder(app, meta),
		ExportCommandBuilder(app, meta),
		SessionCommandBuilder(app, meta),
	)

	// Make sure flags are sorted for the --help text.
	sortFlags(app.Commands)

	return app, nil
}

func sortFlags(cmds []*cli.Command) {
	for _, cmd := range cmds {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
		sortFlags(cmd.Commands)
	}
}
