// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"math"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/photoctl/internal/result"
)

// Point is a geolocated result ready for export. It lives only for the
// duration of one export call.
type Point struct {
	Name        string
	Lat         float64
	Lng         float64
	Description string
	Date        string
}

// Extract returns the point for r. A usable structured GPS pair wins;
// otherwise the recognized text is searched for DMS coordinates. ok is false
// when neither source yields a coordinate.
func Extract(r result.ProcessingResult) (Point, bool) {
	var lat, lng float64

	switch {
	case r.GPS != nil && inRange(r.GPS.Lat, r.GPS.Lng):
		lat, lng = r.GPS.Lat, r.GPS.Lng
	case r.OCRText != "":
		var ok bool
		if lat, lng, ok = ParseDMS(r.OCRText); !ok {
			log.Debugf("no coordinates in %s", r.Filename)
			return Point{}, false
		}
	default:
		return Point{}, false
	}

	return Point{
		Name:        name(r),
		Lat:         lat,
		Lng:         lng,
		Description: description(r),
		Date:        r.DetectedDate,
	}, true
}

// ExtractAll keeps the points of every result that has one, in input order.
func ExtractAll(results []result.ProcessingResult) []Point {
	var points []Point
	for _, r := range results {
		if p, ok := Extract(r); ok {
			points = append(points, p)
		}
	}
	return points
}

func name(r result.ProcessingResult) string {
	var parts []string
	for _, v := range []string{r.Service, r.Portico} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return r.Filename
	}
	return strings.Join(parts, " - ")
}

func description(r result.ProcessingResult) string {
	fields := []struct{ label, value string }{
		{"Serviço", r.Service},
		{"Pórtico", r.Portico},
		{"Disciplina", r.Disciplina},
		{"Rodovia", r.Rodovia},
		{"KM", r.KM},
		{"Data", r.DetectedDate},
	}

	var parts []string
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			parts = append(parts, f.label+": "+v)
		}
	}
	return strings.Join(parts, " | ")
}

func inRange(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
