// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package geo derives a geographic point from a classification result,
// either from the structured EXIF pair or from degree-minute-second text
// recognized in the photo.
package geo
