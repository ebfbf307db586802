// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/apex/log"

	"github.com/staranto/photoctl/internal/geo"
	"github.com/staranto/photoctl/internal/result"
)

const kmlNamespace = "http://www.opengis.net/kml/2.2"

type kmlDocument struct {
	XMLName  xml.Name `xml:"kml"`
	Xmlns    string   `xml:"xmlns,attr"`
	Document struct {
		Name       string         `xml:"name"`
		Placemarks []kmlPlacemark `xml:"Placemark"`
	} `xml:"Document"`
}

type kmlPlacemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description,omitempty"`
	Point       struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
}

// KML renders every geolocated result as a KML 2.2 placemark. It returns
// (nil, 0) when no result has a coordinate.
func KML(results []result.ProcessingResult, title string) ([]byte, int) {
	points := geo.ExtractAll(results)
	if len(points) == 0 {
		return nil, 0
	}

	doc := kmlDocument{Xmlns: kmlNamespace}
	doc.Document.Name = title
	for _, p := range points {
		pm := kmlPlacemark{Name: p.Name, Description: p.Description}
		pm.Point.Coordinates = fmt.Sprintf("%s,%s,0", coord(p.Lng), coord(p.Lat))
		doc.Document.Placemarks = append(doc.Document.Placemarks, pm)
	}

	b, err := marshalXML(doc)
	if err != nil {
		log.WithError(err).Error("failed to render kml")
		return nil, 0
	}
	return b, len(points)
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64) //nolint:mnd
}

func marshalXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
