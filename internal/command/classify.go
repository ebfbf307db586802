// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/photoctl/internal/analyzer"
	"github.com/staranto/photoctl/internal/config"
	"github.com/staranto/photoctl/internal/meta"
	"github.com/staranto/photoctl/internal/pipeline"
	"github.com/staranto/photoctl/internal/session"
)

// classifyReport is what classify prints once the session is saved.
type classifyReport struct {
	pipeline.Report `yaml:",inline"`
	Session         string `json:"session" yaml:"session"`
	Empresa         string `json:"empresa" yaml:"empresa"`
}

// ClassifyCommandAction resolves every file through the cache and the
// analysis API and saves the results as a session snapshot.
func ClassifyCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	config.Config.Namespace = "classify"

	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errors.New("no files specified")
	}

	endpoint := cmd.String("analyzer-url")
	if endpoint == "" {
		return errors.New("no analyzer url: set --analyzer-url, PHOTOCTL_ANALYZER_URL or analyzer.url")
	}

	empresa := cmd.String("empresa")
	if empresa == "" {
		empresa = session.DefaultEmpresa
	}

	rps, _ := config.GetFloat("analyzer.rps", 2) //nolint:mnd
	timeout, _ := config.GetDuration("analyzer.timeout", 60*time.Second)
	retries, _ := config.GetInt("analyzer.retries", 2) //nolint:mnd

	client, err := analyzer.New(endpoint,
		analyzer.WithToken(cmd.String("analyzer-token")),
		analyzer.WithEmpresa(empresa),
		analyzer.WithTimeout(timeout),
		analyzer.WithRate(rps, 1),
		analyzer.WithRetries(retries, 500*time.Millisecond), //nolint:mnd
	)
	if err != nil {
		return err
	}

	c, cm, closer, err := OpenCache(ctx, cmd)
	if err != nil {
		return err
	}
	defer closer()

	results, report := pipeline.New(c, client).ResolveFiles(ctx, files)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("classify interrupted after %d file(s): %w", len(results), err)
	}

	out := cmd.String("out")
	if out == "" {
		out = session.Filename(m.Clock())
	}

	b, err := session.Save(results, empresa, m.Clock())
	if err != nil {
		return err
	}
	if err := WriteOut(cmd, out, b); err != nil {
		return err
	}

	if mf := cmd.String("metrics-file"); mf != "" {
		if err := cm.WriteTextfile(mf); err != nil {
			log.WithError(err).Warnf("failed to write metrics to %s", mf)
		}
	}

	rep := classifyReport{Report: report, Session: out, Empresa: empresa}
	if out == "-" {
		// stdout already carries the snapshot.
		log.WithField("run", report.RunID).Infof("classified %d file(s)", report.Total)
		return nil
	}

	return emitReport(cmd, rep)
}

func emitReport(cmd *cli.Command, rep classifyReport) error {
	return outputEmit(cmd, rep, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%d file(s): %d cached, %d analyzed, %d failed\nsession: %s (%s)\n",
			rep.Total, rep.Cached, rep.Analyzed, rep.Failed, rep.Session, rep.Empresa)
		return err
	})
}

func ClassifyCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	ns := "classify"
	return &cli.Command{
		Name:      "classify",
		Usage:     "classify photos through the analysis API",
		UsageText: "photoctl classify [options] FILE...",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			NewEmpresaFlag(ns),
			NewOutFlag("session snapshot to write (default sessao-YYYY-MM-DD.json, - for stdout)"),
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "write cache metrics in textfile collector format",
			},
		}, append(NewAnalyzerFlags(), NewGlobalFlags(ns)...)...),
		Action: ClassifyCommandAction,
	}
}
