// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/staranto/photoctl/internal/cacheutil"
	"github.com/staranto/photoctl/internal/command"
	"github.com/staranto/photoctl/internal/config"
	mylog "github.com/staranto/photoctl/internal/log"
	"github.com/staranto/photoctl/internal/version"
)

var ctx = context.Background()

// nested commands take a verb before their flags, eg. export csv.
var nested = map[string]bool{"cache": true, "export": true, "session": true}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	// A .env in the working directory is optional.
	_ = godotenv.Load()

	mylog.InitLogger()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an @set argument into the flags listed under
// <command>.<set> in the config file. Without an explicit @set, the
// <command>.defaults list is used when it exists.
func mangleArguments(args []string) []string {
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return args
		}
	}

	// Insertion point is right after the command path.
	idx := 2
	if nested[args[1]] && len(args) > 2 && !strings.HasPrefix(args[2], "-") {
		idx = 3
	}

	set := "defaults"
	out := make([]string, 0, len(args))
	out = append(out, args...)

	// An explicit @set becomes the insertion point and is removed from args.
	for i := 2; i < len(out); i++ {
		if strings.HasPrefix(out[i], "@") && len(out[i]) > 1 {
			set = out[i][1:]
			idx = i
			out = append(out[:i], out[i+1:]...)
			break
		}
	}
	if idx > len(out) {
		idx = len(out)
	}

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	for _, arg := range setArgs {
		parts := strings.Fields(arg)
		out = append(out[:idx], append(parts, out[idx:]...)...)
		idx += len(parts)
	}

	log.Debugf("idx=%d, set=%s, args=%v", idx, set, out)
	return out
}
