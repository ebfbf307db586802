// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/staranto/photoctl/internal/config"
	"github.com/staranto/photoctl/internal/export"
	"github.com/staranto/photoctl/internal/meta"
	"github.com/staranto/photoctl/internal/output"
	"github.com/staranto/photoctl/internal/session"
)

// renderer turns a loaded session into file content. count is the number of
// exported records; zero means there is nothing to write.
type renderer func(saved session.Saved, now time.Time) (b []byte, count int, err error)

var renderers = map[string]renderer{
	".csv": func(s session.Saved, _ time.Time) ([]byte, int, error) {
		return export.DelimitedText(s.Results), len(s.Results), nil
	},
	".xls": func(s session.Saved, _ time.Time) ([]byte, int, error) {
		return export.SpreadsheetML(s.Results), len(s.Results), nil
	},
	".xlsx": func(s session.Saved, _ time.Time) ([]byte, int, error) {
		b, err := export.Workbook(s.Results)
		return b, len(s.Results), err
	},
	".kml": func(s session.Saved, _ time.Time) ([]byte, int, error) {
		b, n := export.KML(s.Results, s.Empresa)
		return b, n, nil
	},
	".gpx": func(s session.Saved, now time.Time) ([]byte, int, error) {
		b, n := export.GPX(s.Results, s.Empresa, now)
		return b, n, nil
	},
}

// ExportFileAction builds the action shared by the file-producing export
// subcommands. ext selects the renderer and the default file extension.
func ExportFileAction(ext string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		m := GetMeta(cmd)
		config.Config.Namespace = "export"

		args := cmd.Args().Slice()
		if err := ArgCountValidator(args, 1, cmd.UsageText); err != nil {
			return err
		}

		saved, err := LoadSession(cmd, args[0])
		if err != nil {
			return err
		}

		b, n, err := renderers[ext](saved, m.Clock())
		if err != nil {
			return err
		}
		if n == 0 || len(b) == 0 {
			fmt.Fprintf(os.Stderr, "nothing to export to %s\n", ext)
			return nil
		}

		out := cmd.String("out")
		if out == "" {
			out = DefaultOut(args[0], ext)
		}
		return WriteOut(cmd, out, b)
	}
}

func ExportSummaryCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "export"

	args := cmd.Args().Slice()
	if err := ArgCountValidator(args, 1, cmd.UsageText); err != nil {
		return err
	}

	saved, err := LoadSession(cmd, args[0])
	if err != nil {
		return err
	}

	s := export.Summarize(saved.Results)
	return outputEmit(cmd, s, func(w io.Writer) error {
		if cmd.String("output") == "table" {
			summaryTable(w, s, TableOptions(cmd))
			return nil
		}
		_, err := io.WriteString(w, s.Report())
		return err
	})
}

func summaryTable(w io.Writer, s export.Summary, opts output.TableOptions) {
	rows := [][]string{
		{"total", "", strconv.Itoa(s.Total)},
		{"sucesso", "", strconv.Itoa(s.Success)},
		{"erros", "", strconv.Itoa(s.Errors)},
		{"confiança média", "", fmt.Sprintf("%.1f%%", s.MeanConfidence)},
	}
	for _, b := range s.ByDisciplina {
		rows = append(rows, []string{"disciplina", b.Label, strconv.Itoa(b.Count)})
	}
	for _, b := range s.ByPortico {
		rows = append(rows, []string{"pórtico", b.Label, strconv.Itoa(b.Count)})
	}
	output.TableWriter(w, []string{"metric", "label", "value"}, rows, opts)
}

func ExportCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	ns := "export"
	md := map[string]any{"meta": meta}

	fileCommand := func(name, ext, usage string) *cli.Command {
		return &cli.Command{
			Name:      name,
			Usage:     usage,
			UsageText: "photoctl export " + name + " [options] SESSION",
			Metadata:  md,
			Flags: []cli.Flag{
				NewFilterFlag(),
				NewOutFlag("file to write (default SESSION with a " + ext + " extension, - for stdout)"),
			},
			Action: ExportFileAction(ext),
		}
	}

	return &cli.Command{
		Name:      "export",
		Usage:     "export a saved session",
		UsageText: "photoctl export csv|xls|xlsx|kml|gpx|summary SESSION",
		Metadata:  md,
		Commands: []*cli.Command{
			fileCommand("csv", ".csv", "semicolon-separated text with a UTF-8 BOM"),
			fileCommand("xls", ".xls", "SpreadsheetML workbook"),
			fileCommand("xlsx", ".xlsx", "Office Open XML workbook"),
			fileCommand("kml", ".kml", "KML placemarks for geolocated results"),
			fileCommand("gpx", ".gpx", "GPX waypoints for geolocated results"),
			{
				Name:      "summary",
				Usage:     "aggregate counts and mean confidence",
				UsageText: "photoctl export summary [options] SESSION",
				Metadata:  md,
				Flags:     append([]cli.Flag{NewFilterFlag()}, NewGlobalFlags(ns)...),
				Action:    ExportSummaryCommandAction,
			},
		},
	}
}
