// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/photoctl/internal/config"
	"github.com/staranto/photoctl/internal/output"
)

func init() {
	cfg, _ = config.Load("")
}

var cfg config.Type

// NewSchemaFlag constructs the --schema flag.
func NewSchemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "dump the result schema",
		HideDefault: true,
	}
}

// NewGlobalFlags returns the presentation flags shared by every command that
// prints results. params[0] is the config namespace.
func NewGlobalFlags(params ...string) (flags []cli.Flag) {
	ns := ""
	if len(params) > 0 {
		ns = params[0]
	}

	flags = []cli.Flag{
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("color", altsrc.StringSourcer(cfg.Source)),
			),
			Value: output.DefaultColor(),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("output", altsrc.StringSourcer(cfg.Source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("titles", altsrc.StringSourcer(cfg.Source)),
			),
			Value: true,
		},
	}

	return
}

// NewFilterFlag constructs the --filter flag. Filters are never read from the
// config file; they only narrow one invocation.
func NewFilterFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   "comma-separated list of filters to apply to results",
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	}
}

// NewSortFlag constructs the --sort flag, namespaced to the command.
func NewSortFlag(ns string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "sort",
		Aliases: []string{"s"},
		Usage:   "comma-separated list of attributes to sort the results by",
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+"."+"sort", altsrc.StringSourcer(cfg.Source)),
		),
	}
}

// NewOutFlag constructs the --out flag naming the file a command writes.
func NewOutFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "out",
		Usage: usage,
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator)
		},
	}
}

// NewStoreFlag constructs the --store flag selecting the durable slot backing
// the result cache. It is read from PHOTOCTL_STORE, then the config file.
func NewStoreFlag(ns string) (flag *cli.StringFlag) {
	flag = &cli.StringFlag{
		Name:  "store",
		Usage: "cache slot spec (memory:, file:///dir, sqlite:///db, s3://bucket/prefix, redis://host)",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("PHOTOCTL_STORE"),
		),
	}

	return NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, flag)
}

// NewEmpresaFlag constructs the --empresa flag, the context label recorded on
// saved sessions and sent with every analysis request.
func NewEmpresaFlag(ns string) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:    "empresa",
		Aliases: []string{"e"},
		Usage:   "company the photos are classified for",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("PHOTOCTL_EMPRESA"),
		),
	}

	return NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, flag)
}

// NewAnalyzerFlags constructs the flags locating the remote analysis API.
// Config keys live under analyzer.*, so they are wired by hand rather than
// through NameSpacedValueChainFlagFromConfigFile.
func NewAnalyzerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "analyzer-url",
			Usage: "analysis API endpoint",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PHOTOCTL_ANALYZER_URL"),
				yaml.YAML("analyzer.url", altsrc.StringSourcer(cfg.Source)),
			),
		},
		&cli.StringFlag{
			Name:  "analyzer-token",
			Usage: "bearer token for the analysis API",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("PHOTOCTL_ANALYZER_TOKEN"),
				yaml.YAML("analyzer.token", altsrc.StringSourcer(cfg.Source)),
			),
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	if ns != "" {
		src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
		flag.Sources.Chain = append(flag.Sources.Chain, src)
	}

	src := yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}
