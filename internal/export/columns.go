// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"math"
	"strconv"

	"github.com/staranto/photoctl/internal/result"
)

// Header is the fixed, positional column order shared by every tabular
// format.
var Header = []string{
	"Arquivo",
	"Status",
	"Pórtico",
	"Disciplina",
	"Serviço",
	"Data Detectada",
	"Método",
	"Confiança (%)",
	"Destino",
	"Observação Técnica",
}

// confidenceColumn is the index of the numeric column in Header.
const confidenceColumn = 7

// ConfidencePercent renders a 0..1 fraction as a rounded integer percentage.
// Absent confidence is 0.
func ConfidencePercent(c *float64) int {
	if c == nil || math.IsNaN(*c) {
		return 0
	}
	return int(math.Round(*c * 100)) //nolint:mnd
}

func row(r result.ProcessingResult) []string {
	return []string{
		r.Filename,
		r.Status,
		r.Portico,
		r.Disciplina,
		r.Service,
		r.DetectedDate,
		result.MethodLabel(r.Method),
		strconv.Itoa(ConfidencePercent(r.Confidence)),
		r.Dest,
		r.Tecnico,
	}
}
