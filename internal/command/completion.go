// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/photoctl/internal/meta"
)

const bashCompletionScript = `# bash completion for photoctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_photoctl()
{
    local cur prev cmd sub
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "cache classify completion export session --help --store --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    sub=${COMP_WORDS[2]}
    local common="--color -c --output -o --titles -t --store"

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json yaml table" -- "$cur") )
        return 0
    fi

    case "$cmd" in
        classify)
            local opts="$common --empresa -e --out --analyzer-url --analyzer-token --metrics-file"
            ;;
        cache)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "stats lookup evict clear" -- "$cur") )
                return 0
            fi
            local opts="$common"
            ;;
        export)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "csv xls xlsx kml gpx summary" -- "$cur") )
                return 0
            fi
            local opts="--filter -f --out"
            [[ "$sub" == "summary" ]] && opts="$common --filter -f"
            ;;
        session)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "merge diff show" -- "$cur") )
                return 0
            fi
            local opts="$common --out --attrs -a --filter -f --sort -s --schema"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    # Positional args are photos and session files.
    COMPREPLY=( $(compgen -f -- "$cur") )
    return 0
}

complete -F _photoctl photoctl
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	if shell == "" && strings.HasSuffix(os.Getenv("SHELL"), "bash") {
		shell = "bash"
	}

	switch shell {
	case "bash":
		fmt.Fprint(Stdout(cmd), bashCompletionScript)
	default:
		fmt.Fprintln(os.Stderr, "usage: photoctl completion bash")
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "photoctl completion bash",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
