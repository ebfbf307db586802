// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package filters

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/photoctl/internal/result"
)

// filterRegex is the pattern used to parse filter expressions into key, operator, and target components.
// Operators are one of = ^ ~ < > @ or /, optionally prefixed with '!'.
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~<>@/])(.*)$`)

// Keys are the result fields a filter may name. Nested fields use gjson
// paths, e.g. gps.lat.
var Keys = []string{
	"filename", "status", "portico", "disciplina", "service", "method",
	"confidence", "dest", "tecnico", "gps", "ocrText", "detectedDate",
	"rodovia", "km",
}

// Filter represents a single parsed --filter expression including the key,
// operand, optional negation and target value.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Invalid specs (unsupported operand, malformed expression or unknown key)
// are skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters
	}

	// Default delimiter is ",", allow an override.
	delim := ","
	if d, ok := os.LookupEnv("PHOTOCTL_FILTER_DELIM"); ok {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		key := strings.TrimSpace(parts[1])
		if !knownKey(key) {
			msg := fmt.Sprintf("filter key not found: %s", key)
			log.Error(msg)
			fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
			continue
		}

		// parts[2] is the operand. It may have a leading negation.
		negate := strings.HasPrefix(parts[2], "!")
		filters = append(filters, Filter{
			Key:     key,
			Negate:  negate,
			Operand: strings.TrimPrefix(parts[2], "!"),
			Target:  parts[3],
		})
	}

	return filters
}

// Apply returns the results matching every filter in spec, in input order.
func Apply(results []result.ProcessingResult, spec string) []result.ProcessingResult {
	filters := BuildFilters(spec)
	if len(filters) == 0 {
		return results
	}

	//nolint:prealloc
	var kept []result.ProcessingResult
	for _, r := range results {
		raw, err := json.Marshal(r)
		if err != nil {
			log.WithError(err).Errorf("failed to encode %s for filtering", r.Filename)
			continue
		}
		if Match(gjson.ParseBytes(raw), filters) {
			kept = append(kept, r)
		}
	}

	log.Debugf("filter %q kept %d of %d results", spec, len(kept), len(results))
	return kept
}

// Match reports whether candidate satisfies every filter. An absent field
// compares as the empty string.
func Match(candidate gjson.Result, filters []Filter) bool {
	for _, filter := range filters {
		value := candidate.Get(filter.Key)

		var ok bool
		switch {
		case !value.Exists():
			ok = checkStringOperand("", filter)
		case value.Type == gjson.String:
			ok = checkStringOperand(value.String(), filter)
		case value.Type == gjson.True, value.Type == gjson.False:
			ok = checkStringOperand(value.String(), filter)
		case value.Type == gjson.Number:
			ok = checkNumericOperand(value.Float(), filter)
		case filter.Operand == "@":
			ok = checkContainsOperand(value, filter)
		default:
			log.Errorf("unsupported operand %s for %s", filter.Operand, filter.Key)
			ok = false
		}

		if !ok {
			return false
		}
	}

	return true
}

func knownKey(key string) bool {
	root, _, _ := strings.Cut(key, ".")
	for _, k := range Keys {
		if k == root {
			return true
		}
	}
	return false
}

// checkContainsOperand evaluates a membership style filter (operand '@')
// against array elements or object keys.
func checkContainsOperand(value gjson.Result, filter Filter) bool {
	found := false
	switch {
	case value.IsArray():
		for _, item := range value.Array() {
			if item.String() == filter.Target {
				found = true
				break
			}
		}
	case value.IsObject():
		found = value.Get(gjson.Escape(filter.Target)).Exists()
	default:
		log.Error(fmt.Sprintf("unsupported type for contains filtering: %s", value.Type))
		return false
	}
	return found == !filter.Negate
}

// checkNumericOperand compares a numeric value against the filter target using
// numeric semantics. Supported operands: =, >, < and their negations.
func checkNumericOperand(value float64, filter Filter) bool {
	tgt, err := strconv.ParseFloat(strings.TrimSpace(filter.Target), 64)
	if err != nil {
		log.Error("invalid numeric target: " + filter.Target)
		return false
	}

	switch filter.Operand {
	case "=":
		return (value == tgt) == !filter.Negate
	case ">":
		return (value > tgt) == !filter.Negate
	case "<":
		return (value < tgt) == !filter.Negate
	default:
		log.Error("unsupported numeric operand: " + filter.Operand)
		return false
	}
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Target) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}
