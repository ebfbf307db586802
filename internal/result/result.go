// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package result

import "strings"

const (
	// StatusSuccess is the exact status the analysis API reports for a
	// successfully classified photo.
	StatusSuccess = "Sucesso"

	// errorMarker is matched case-insensitively anywhere in the status.
	errorMarker = "erro"

	// Unclassified buckets results that carry no discipline or portico.
	Unclassified = "Não classificado"
)

// Method codes reported by the analysis API.
const (
	MethodEXIF = "exif"
	MethodOCR  = "ocr"
	MethodAI   = "ai"
)

var methodLabels = map[string]string{
	MethodEXIF: "GPS (EXIF)",
	MethodOCR:  "OCR",
	MethodAI:   "IA (Visão)",
}

// GPS is the structured coordinate pair lifted from the photo's EXIF block.
type GPS struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ProcessingResult is a single photo classification as returned by the
// remote analysis API. Filename is the natural key within a session. Once
// produced it is treated as an immutable value.
type ProcessingResult struct {
	Filename     string   `json:"filename"`
	Status       string   `json:"status"`
	Portico      string   `json:"portico,omitempty"`
	Disciplina   string   `json:"disciplina,omitempty"`
	Service      string   `json:"service,omitempty"`
	Method       string   `json:"method,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
	Dest         string   `json:"dest,omitempty"`
	Tecnico      string   `json:"tecnico,omitempty"`
	GPS          *GPS     `json:"gps,omitempty"`
	OCRText      string   `json:"ocrText,omitempty"`
	DetectedDate string   `json:"detectedDate,omitempty"`
	Rodovia      string   `json:"rodovia,omitempty"`
	KM           string   `json:"km,omitempty"`
}

// IsSuccess reports whether the status is exactly StatusSuccess.
func (r ProcessingResult) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// IsError reports whether the status carries the error marker.
func (r ProcessingResult) IsError() bool {
	return strings.Contains(strings.ToLower(r.Status), errorMarker)
}

// MethodLabel translates a method code into its display label. Unknown codes
// pass through unchanged.
func MethodLabel(code string) string {
	if label, ok := methodLabels[code]; ok {
		return label
	}
	return code
}

// WithFilename returns a copy of r carrying a different filename.
func (r ProcessingResult) WithFilename(name string) ProcessingResult {
	r.Filename = name
	return r
}

// Float returns a pointer to v. Handy for building results with a confidence.
func Float(v float64) *float64 {
	return &v
}
