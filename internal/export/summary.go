// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/staranto/photoctl/internal/result"
)

// Bucket is one row of a breakdown.
type Bucket struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// Summary aggregates a result collection. MeanConfidence is a percentage
// rounded to one decimal, averaged over the results that report a
// confidence, and 0 when none do.
type Summary struct {
	Total          int      `json:"total" yaml:"total"`
	Success        int      `json:"success" yaml:"success"`
	Errors         int      `json:"errors" yaml:"errors"`
	MeanConfidence float64  `json:"meanConfidence" yaml:"meanConfidence"`
	ByDisciplina   []Bucket `json:"byDisciplina" yaml:"byDisciplina"`
	ByPortico      []Bucket `json:"byPortico" yaml:"byPortico"`
}

// Summarize computes the aggregate counts for results.
func Summarize(results []result.ProcessingResult) Summary {
	s := Summary{Total: len(results)}

	disciplinas := make(map[string]int)
	porticos := make(map[string]int)
	var sum float64
	var rated int

	for _, r := range results {
		if r.IsSuccess() {
			s.Success++
		}
		if r.IsError() {
			s.Errors++
		}
		disciplinas[labelOrUnclassified(r.Disciplina)]++
		porticos[labelOrUnclassified(r.Portico)]++

		if r.Confidence != nil && !math.IsNaN(*r.Confidence) {
			sum += *r.Confidence
			rated++
		}
	}

	if rated > 0 {
		s.MeanConfidence = math.Round(sum/float64(rated)*1000) / 10 //nolint:mnd
	}
	s.ByDisciplina = buckets(disciplinas)
	s.ByPortico = buckets(porticos)
	return s
}

// Report renders the summary as plain text.
func (s Summary) Report() string {
	var sb strings.Builder

	fmt.Fprintln(&sb, "Relatório de Processamento")
	fmt.Fprintf(&sb, "Total de fotos: %d\n", s.Total)
	fmt.Fprintf(&sb, "Sucesso: %d\n", s.Success)
	fmt.Fprintf(&sb, "Erros: %d\n", s.Errors)
	fmt.Fprintf(&sb, "Confiança média: %.1f%%\n", s.MeanConfidence)

	section := func(title string, bs []Bucket) {
		fmt.Fprintf(&sb, "\n%s:\n", title)
		for _, b := range bs {
			fmt.Fprintf(&sb, "  %s: %d\n", b.Label, b.Count)
		}
	}
	section("Por disciplina", s.ByDisciplina)
	section("Por pórtico", s.ByPortico)

	return sb.String()
}

// SummaryReport is Summarize followed by Report.
func SummaryReport(results []result.ProcessingResult) string {
	return Summarize(results).Report()
}

func labelOrUnclassified(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return result.Unclassified
	}
	return s
}

// buckets orders by descending count, then label.
func buckets(m map[string]int) []Bucket {
	bs := make([]Bucket, 0, len(m))
	for label, count := range m {
		bs = append(bs, Bucket{Label: label, Count: count})
	}
	sort.Slice(bs, func(i, j int) bool {
		if bs[i].Count != bs[j].Count {
			return bs[i].Count > bs[j].Count
		}
		return bs[i].Label < bs[j].Label
	})
	return bs
}
