// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"strings"

	"github.com/staranto/photoctl/internal/result"
)

const (
	bom       = "\ufeff"
	separator = ";"
)

// DelimitedText renders results as semicolon separated values. Every cell is
// quoted, embedded quotes are doubled, and the output starts with a UTF-8
// byte order mark so spreadsheet tools pick the right encoding.
func DelimitedText(results []result.ProcessingResult) []byte {
	var sb strings.Builder
	sb.WriteString(bom)

	writeLine(&sb, Header)
	for _, r := range results {
		writeLine(&sb, row(r))
	}

	return []byte(sb.String())
}

func writeLine(sb *strings.Builder, cells []string) {
	for i, c := range cells {
		if i > 0 {
			sb.WriteString(separator)
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(c, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')
}
