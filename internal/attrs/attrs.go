// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package attrs

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
)

// Attr is one column of a result listing. Key is a gjson path into the JSON
// form of a result, thus the name.
type Attr struct {
	// The path to extract from the result JSON object.
	Key string
	// Should this Attr be included in output or is it only a placeholder
	// carrying a global transform?
	Include bool
	// The column title.
	OutputKey string
	// Transformation spec to apply to the output value.
	TransformSpec string
}

var lengthRe = regexp.MustCompile(`-?\d+`)

// Transform renders value through the spec. Letters select a case (u/U
// upper, l/L lower, the last one wins), p/P prints a fraction as a whole
// percentage, and a number truncates: n keeps the first n characters, -n
// keeps both ends joined by "..".
func (a *Attr) Transform(value gjson.Result) string {
	if !value.Exists() || value.Type == gjson.Null {
		return ""
	}

	result := value.String()

	if strings.ContainsAny(a.TransformSpec, "pP") && value.Type == gjson.Number {
		result = strconv.Itoa(int(math.Round(value.Float() * 100))) //nolint:mnd
	}

	// The global spec is prepended, so the attr's own case letter comes last
	// and wins. IOW... --attrs '*::U,filename::l' will be lower case.
	lastL := strings.LastIndexAny(a.TransformSpec, "lL")
	lastU := strings.LastIndexAny(a.TransformSpec, "uU")

	if lastL > lastU {
		result = strings.ToLower(result)
	} else if lastU > lastL {
		result = strings.ToUpper(result)
	}

	// Same logic as above re: case. A more specific length overrides a
	// global one.
	if match := lengthRe.FindAllString(a.TransformSpec, -1); len(match) != 0 {
		l, _ := strconv.Atoi(match[len(match)-1])
		result = truncate(result, l)
	}

	return result
}

// truncate works on runes so accented text is never split mid-character.
func truncate(s string, l int) string {
	r := []rune(s)
	abs := l
	if abs < 0 {
		abs = -abs
	}
	if abs == 0 || len(r) <= abs {
		return s
	}

	if l < 0 {
		if side := abs/2 - 1; side > 0 { //nolint:mnd
			return string(r[:side]) + ".." + string(r[len(r)-side:])
		}
	}
	return string(r[:abs])
}

type AttrList []Attr

// Return a string representation of the AttrList.  This should match the format
// of the original --attrs flag.
func (a *AttrList) String() string {
	result := make([]string, 0, len(*a))
	for _, attr := range *a {
		result = append(result, fmt.Sprintf("%s:%s:%s", attr.Key, attr.OutputKey, attr.TransformSpec))
	}
	return strings.Join(result, ",")
}

// Parse each spec from the --attrs flag and add it to the AttrList.
func (a *AttrList) Set(value string) error {
	if value == "" {
		return nil
	}

	const (
		jsonIdx = iota
		outputIdx
		transformIdx
	)

	// There are three : delimited fields in each spec.  The first is the path
	// to extract from the JSON object.  The second is the column title.  The
	// third is the transformation spec.  The latter two are optional and the
	// title defaults to the last segment of the path.
specloop:
	for _, spec := range strings.Split(value, ",") {
		fields := strings.Split(spec, ":")

		attr := Attr{Include: true}

		// A leading ! drops the attribute from the output.
		attr.Key = strings.TrimSpace(fields[jsonIdx])
		if strings.HasPrefix(attr.Key, "!") {
			attr.Include = false
			attr.Key = attr.Key[1:]
		}
		if attr.Key == "" {
			log.Debugf("skipping empty attr spec %q", spec)
			continue
		}
		if attr.Key == "*" {
			attr.Include = false
		}

		if len(fields) > outputIdx && strings.TrimSpace(fields[outputIdx]) != "" {
			attr.OutputKey = strings.TrimSpace(fields[outputIdx])
		} else {
			segments := strings.Split(attr.Key, ".")
			attr.OutputKey = segments[len(segments)-1]
		}

		if len(fields) > transformIdx {
			attr.TransformSpec = strings.TrimSpace(fields[transformIdx])
		}

		// If the attr already exists in the list (because it's one of the
		// defaults for the command or the user double-entered it) apply the
		// new settings to the existing Attr.
		for i := range *a {
			if (*a)[i].Key == attr.Key {
				(*a)[i] = attr
				continue specloop
			}
		}

		*a = append(*a, attr)
	}

	return nil
}

// SetGlobalTransformSpec inserts the * transform spec into the front of all
// attrs in the list.
func (a *AttrList) SetGlobalTransformSpec() error {
	spec := ""

	// If there is more than one global spec, only the first counts.
	for i := range *a {
		if (*a)[i].Key == "*" {
			spec = (*a)[i].TransformSpec
			break
		}
	}

	if spec == "" {
		return nil
	}

	for i := range *a {
		if (*a)[i].Key != "*" {
			(*a)[i].TransformSpec = spec + "," + (*a)[i].TransformSpec
		}
	}

	return nil
}

func (a *AttrList) Type() string {
	return "list"
}

// Headers returns the titles of the included attrs.
func (a AttrList) Headers() []string {
	var headers []string
	for _, attr := range a {
		if attr.Include {
			headers = append(headers, attr.OutputKey)
		}
	}
	return headers
}

// Project renders every row of v, which must marshal to a JSON array of
// objects, into the included columns.
func (a AttrList) Project(v any) ([][]string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rows: %w", err)
	}

	doc := gjson.ParseBytes(b)
	if !doc.IsArray() {
		return nil, fmt.Errorf("rows must be a JSON array, got %s", doc.Type)
	}

	items := doc.Array()
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, 0, len(a))
		for i := range a {
			if !a[i].Include {
				continue
			}
			cell := a[i].Transform(item.Get(a[i].Key))
			if cell == "" {
				cell = "-"
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
