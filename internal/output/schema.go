// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/apex/log"
)

// Tag is a discovered json struct tag, used when emitting the --schema list
// of keys accepted by --filter and --sort.
type Tag struct {
	Name string
	Type string
}

// NewTag constructs a Tag from a raw json tag value and an optional holder
// prefix used to build dotted key names.
func NewTag(h string, s string, typ reflect.Type) Tag {
	name, _, _ := strings.Cut(s, ",")
	if name == "" || name == "-" {
		return Tag{}
	}
	if h != "" {
		name = h + "." + name
	}
	return Tag{Name: name, Type: typeName(typ)}
}

// Print renders the tag into its display form.
func (t Tag) Print() string {
	if t.Name == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s)", t.Name, t.Type)
}

// DumpSchema prints a sorted list of keys for the provided type.
func DumpSchema(w io.Writer, typ reflect.Type) {
	tags := DumpSchemaWalker("", typ, 0)
	if len(tags) == 0 {
		log.Debugf("No tags found for type: %s", typ.Name())
		return
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	fmt.Fprintln(w, "Schema for", typ.Name(), "--")
	for _, tag := range tags {
		fmt.Fprintln(w, tag.Print())
	}
}

const maxSchemaDepth = 1

// DumpSchemaWalker recursively walks a struct type discovering json tags.
func DumpSchemaWalker(holder string, typ reflect.Type, depth int) []Tag {
	tags := make([]Tag, 0)

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		tagValue, ok := field.Tag.Lookup("json")
		if !ok {
			continue
		}

		tag := NewTag(holder, tagValue, field.Type)
		if tag.Name == "" {
			continue
		}
		tags = append(tags, tag)

		if depth < maxSchemaDepth {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				tags = append(tags, DumpSchemaWalker(tag.Name, ft, depth+1)...)
			}
		}
	}

	return tags
}

func typeName(typ reflect.Type) string {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	switch typ.Kind() {
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "number"
	default:
		return typ.Kind().String()
	}
}
