// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

// docgen renders docs/commands/<cmd>.md into
//   - docs/man/share/man1/photoctl-<cmd>.1 (md2man, full page)
//   - docs/tldr/photoctl-<cmd>.md (summary line plus the Examples block)

func main() {
	var (
		repoRoot      string
		onlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&onlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	commandsDir := filepath.Join(repoRoot, "docs", "commands")
	manDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrDir := filepath.Join(repoRoot, "docs", "tldr")

	for _, d := range []string{manDir, tldrDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			fatalf("creating %s: %v", d, err)
		}
	}

	pages, err := filepath.Glob(filepath.Join(commandsDir, "*.md"))
	if err != nil {
		fatalf("listing %s: %v", commandsDir, err)
	}
	if len(pages) == 0 {
		fatalf("no command markdown found under %s", commandsDir)
	}

	for _, in := range pages {
		cmd := strings.TrimSuffix(filepath.Base(in), ".md")
		raw, err := os.ReadFile(in)
		if err != nil {
			fatalf("reading %s: %v", in, err)
		}

		man := filepath.Join(manDir, "photoctl-"+cmd+".1")
		if err := writeFileIfChanged(man, md2man.Render(raw), onlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", cmd, err)
		}

		tldr := filepath.Join(tldrDir, "photoctl-"+cmd+".md")
		if err := writeFileIfChanged(tldr, []byte(buildTLDR(cmd, string(raw))), onlyIfChanged); err != nil {
			fatalf("writing tldr page for %s: %v", cmd, err)
		}
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, content []byte, onlyIfChanged bool) error {
	if onlyIfChanged {
		old, err := os.ReadFile(path)
		switch {
		case err == nil && bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(content)):
			return nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return err
		}
	}
	return os.WriteFile(path, content, 0o644) //nolint:gosec
}

var (
	// The NAME section of a page: "photoctl-export - export a saved session".
	nameRe = regexp.MustCompile(`(?m)^photoctl-\S+\s+-\s+(.+)$`)
	// The first fenced block after the EXAMPLES heading.
	examplesRe = regexp.MustCompile("(?s)#\\s+EXAMPLES\\s*\\n+```[a-z]*\\n(.*?)```")
)

type example struct {
	Desc string
	Cmd  string
}

// examples pairs every "# description" line with the command that follows.
func examples(md string) []example {
	m := examplesRe.FindStringSubmatch(md)
	if m == nil {
		return nil
	}

	var exs []example
	desc := ""
	for _, ln := range strings.Split(m[1], "\n") {
		ln = strings.TrimSpace(ln)
		switch {
		case ln == "":
		case strings.HasPrefix(ln, "#"):
			desc = strings.TrimSpace(strings.TrimLeft(ln, "#"))
		default:
			if desc == "" {
				desc = "Example"
			}
			exs = append(exs, example{Desc: desc, Cmd: strings.Join(strings.Fields(ln), " ")})
			desc = ""
		}
	}
	return exs
}

func buildTLDR(cmd, md string) string {
	var b strings.Builder

	b.WriteString("# photoctl-" + cmd + "\n\n")
	if m := nameRe.FindStringSubmatch(md); m != nil {
		b.WriteString("> " + strings.TrimSpace(m[1]) + ".\n")
	} else {
		b.WriteString("> photoctl " + cmd + "\n")
	}
	b.WriteString("> More information: `photoctl " + cmd + " --help`.\n")

	exs := examples(md)
	if len(exs) == 0 {
		exs = []example{{Desc: "Show help for the command", Cmd: "photoctl " + cmd + " --help"}}
	}
	for _, ex := range exs {
		b.WriteString("\n- " + ex.Desc + ":\n\n`" + ex.Cmd + "`\n")
	}
	return b.String()
}
