// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"strings"
	"unicode/utf8"

	"github.com/staranto/photoctl/internal/result"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes the five XML special characters. Runes outside the
// XML 1.0 Char range and invalid UTF-8 become U+FFFD, as encoding/xml does.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(strings.Map(xmlChar, strings.ToValidUTF8(s, string(utf8.RuneError))))
}

func xmlChar(r rune) rune {
	switch {
	case r == '\t', r == '\n', r == '\r',
		r >= 0x20 && r <= 0xD7FF,
		r >= 0xE000 && r <= 0xFFFD,
		r >= 0x10000 && r <= 0x10FFFF:
		return r
	}
	return utf8.RuneError
}

const spreadsheetHead = `<?xml version="1.0" encoding="UTF-8"?>
<?mso-application progid="Excel.Sheet"?>
<Workbook xmlns="urn:schemas-microsoft-com:office:spreadsheet"
 xmlns:o="urn:schemas-microsoft-com:office:office"
 xmlns:x="urn:schemas-microsoft-com:office:excel"
 xmlns:ss="urn:schemas-microsoft-com:office:spreadsheet">
 <Styles>
  <Style ss:ID="header">
   <Font ss:Bold="1"/>
   <Interior ss:Color="#D9E1F2" ss:Pattern="Solid"/>
  </Style>
 </Styles>
 <Worksheet ss:Name="Resultados">
  <Table>
`

const spreadsheetTail = `  </Table>
 </Worksheet>
</Workbook>
`

// SpreadsheetML renders results as an Excel 2003 XML workbook with one
// worksheet and a styled header row. Columns match DelimitedText.
func SpreadsheetML(results []result.ProcessingResult) []byte {
	var sb strings.Builder
	sb.WriteString(spreadsheetHead)

	writeRow(&sb, Header, ` ss:StyleID="header"`)
	for _, r := range results {
		writeRow(&sb, row(r), "")
	}

	sb.WriteString(spreadsheetTail)
	return []byte(sb.String())
}

func writeRow(sb *strings.Builder, cells []string, cellAttr string) {
	sb.WriteString("   <Row>\n")
	for i, c := range cells {
		kind := "String"
		if cellAttr == "" && i == confidenceColumn {
			kind = "Number"
		}
		sb.WriteString("    <Cell")
		sb.WriteString(cellAttr)
		sb.WriteString(`><Data ss:Type="`)
		sb.WriteString(kind)
		sb.WriteString(`">`)
		sb.WriteString(EscapeXML(c))
		sb.WriteString("</Data></Cell>\n")
	}
	sb.WriteString("   </Row>\n")
}
