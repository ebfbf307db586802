// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"encoding/xml"
	"regexp"
	"time"

	"github.com/apex/log"

	"github.com/staranto/photoctl/internal/geo"
	"github.com/staranto/photoctl/internal/result"
)

const gpxNamespace = "http://www.topografix.com/GPX/1/1"

// Creator is written to the GPX creator attribute.
var Creator = "photoctl"

type gpxDocument struct {
	XMLName  xml.Name `xml:"gpx"`
	Xmlns    string   `xml:"xmlns,attr"`
	Version  string   `xml:"version,attr"`
	Creator  string   `xml:"creator,attr"`
	Metadata struct {
		Name string `xml:"name,omitempty"`
		Time string `xml:"time"`
	} `xml:"metadata"`
	Waypoints []gpxWaypoint `xml:"wpt"`
}

// Child order follows the GPX 1.1 wptType sequence.
type gpxWaypoint struct {
	Lat  string `xml:"lat,attr"`
	Lon  string `xml:"lon,attr"`
	Time string `xml:"time"`
	Name string `xml:"name"`
	Desc string `xml:"desc,omitempty"`
}

var detectedDate = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`)

// WaypointTime parses a DD/MM/YYYY detected date into UTC midnight. When the
// date is absent or not convertible, fallback is used.
func WaypointTime(date string, fallback time.Time) time.Time {
	m := detectedDate.FindStringSubmatch(date)
	if m == nil {
		return fallback.UTC()
	}
	t, err := time.Parse("2/1/2006", m[1])
	if err != nil {
		log.Debugf("unusable detected date %q: %v", date, err)
		return fallback.UTC()
	}
	return t
}

// GPX renders every geolocated result as a GPX 1.1 waypoint. now stamps the
// metadata and any waypoint without a usable date. It returns (nil, 0) when
// no result has a coordinate.
func GPX(results []result.ProcessingResult, title string, now time.Time) ([]byte, int) {
	points := geo.ExtractAll(results)
	if len(points) == 0 {
		return nil, 0
	}

	doc := gpxDocument{Xmlns: gpxNamespace, Version: "1.1", Creator: Creator}
	doc.Metadata.Name = title
	doc.Metadata.Time = now.UTC().Format(time.RFC3339)

	for _, p := range points {
		doc.Waypoints = append(doc.Waypoints, waypoint(p, now))
	}

	b, err := marshalXML(doc)
	if err != nil {
		log.WithError(err).Error("failed to render gpx")
		return nil, 0
	}
	return b, len(points)
}

func waypoint(p geo.Point, now time.Time) gpxWaypoint {
	return gpxWaypoint{
		Lat:  coord(p.Lat),
		Lon:  coord(p.Lng),
		Time: WaypointTime(p.Date, now).Format(time.RFC3339),
		Name: p.Name,
		Desc: p.Description,
	}
}
