// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"regexp"
	"strconv"
	"strings"
)

// One D°M'S"H component. The degree sign may be the ordinal º OCR tends to
// produce. Seconds may carry a fraction, with either decimal separator.
// Typographic primes are accepted alongside ASCII quotes.
const dmsPart = `(\d{1,3})\s*[°º]\s*(\d{1,2})\s*['′’]\s*(\d{1,2}(?:[.,]\d+)?)\s*["″”]\s*`

var dmsPattern = regexp.MustCompile(
	dmsPart + `([NnSs])` + `[\s,;/]*` + dmsPart + `([EeWwOoLl])`,
)

// ParseDMS finds the first latitude/longitude pair written as
// D°M'S"H D°M'S"H in text and returns it in signed decimal degrees. South
// and west (W or the Portuguese O) are negative; L (leste) is east. ok is
// false when nothing matches or the match is out of range.
func ParseDMS(text string) (lat, lng float64, ok bool) {
	m := dmsPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}

	lat, ok = toDecimal(m[1], m[2], m[3])
	if !ok {
		return 0, 0, false
	}
	lng, ok = toDecimal(m[5], m[6], m[7])
	if !ok {
		return 0, 0, false
	}

	if strings.EqualFold(m[4], "S") {
		lat = -lat
	}
	switch strings.ToUpper(m[8]) {
	case "W", "O":
		lng = -lng
	}

	if !inRange(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

func toDecimal(d, m, s string) (float64, bool) {
	deg, err := strconv.Atoi(d)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes >= 60 {
		return 0, false
	}
	sec, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || sec >= 60 {
		return 0, false
	}
	return float64(deg) + float64(minutes)/60 + sec/3600, true
}
