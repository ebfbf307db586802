// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strconv"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	"github.com/staranto/photoctl/internal/config"
)

// Formats accepted by --output.
var Formats = []string{"text", "json", "yaml", "table"}

// TableOptions controls TableWriter.
type TableOptions struct {
	Color  bool
	Titles bool
}

// Emit writes v as json or yaml. Any other format falls through to text,
// which the caller supplies since only it knows the human layout.
func Emit(w io.Writer, format string, v any, text func(io.Writer) error) error {
	if w == nil {
		w = os.Stdout
	}

	switch format {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to render yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	default:
		return text(w)
	}
}

// ValidFormat reports whether f is one of Formats.
func ValidFormat(f string) bool {
	return slices.Contains(Formats, f)
}

// DefaultColor is true when stdout is a terminal and NO_COLOR is unset.
func DefaultColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// DatasetTable renders the given keys of every row.
func DatasetTable(w io.Writer, dataset []map[string]interface{}, keys []string, opts TableOptions) {
	rows := make([][]string, 0, len(dataset))
	for _, item := range dataset {
		row := make([]string, 0, len(keys))
		for _, k := range keys {
			row = append(row, InterfaceToString(item[k], "-"))
		}
		rows = append(rows, row)
	}
	TableWriter(w, keys, rows, opts)
}

// TableWriter renders rows in a tabular form honoring color, titles and
// padding options.
func TableWriter(w io.Writer, headers []string, rows [][]string, opts TableOptions) {
	if len(rows) == 0 {
		return
	}
	if w == nil {
		w = os.Stdout
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 2) //nolint:mnd
	log.Debugf("padding: %v", pad)

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if opts.Titles {
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// ToDataset converts v into generic rows through its JSON form, the shape
// SortDataset and DatasetTable work on.
func ToDataset(v any) ([]map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var dataset []map[string]interface{}
	if err := json.Unmarshal(b, &dataset); err != nil {
		return nil, err
	}
	return dataset, nil
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
