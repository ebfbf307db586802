// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/apex/log"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"

	"github.com/staranto/photoctl/internal/config"
)

// DefaultQuality is the JPEG quality used when convert.quality is unset.
const DefaultQuality = 90

// ErrUnsupported is returned when no registered decoder recognizes the data.
var ErrUnsupported = errors.New("unsupported image format")

var (
	passthrough = map[string]bool{".jpg": true, ".jpeg": true}
	decodable   = map[string]bool{".png": true, ".gif": true, ".tif": true, ".tiff": true, ".bmp": true}
	heif        = map[string]bool{".heic": true, ".heif": true}
)

// Converter re-encodes images to JPEG.
type Converter struct {
	quality int
}

// New returns a converter writing JPEG at the given quality, clamped to
// 1..100.
func New(quality int) *Converter {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Converter{quality: quality}
}

// Shared is the process-wide converter, configured from convert.quality the
// first time it is asked for.
var Shared = sync.OnceValue(func() *Converter {
	q, _ := config.GetInt("convert.quality", DefaultQuality)
	log.Debugf("initializing image converter, quality %d", q)
	return New(q)
})

// Quality reports the JPEG quality.
func (c *Converter) Quality() int {
	return c.quality
}

// NeedsConversion reports whether name must be re-encoded before upload.
func NeedsConversion(name string) bool {
	return !passthrough[strings.ToLower(filepath.Ext(name))]
}

// ToJPEG returns data as JPEG along with the name to upload it under. JPEG
// input is returned untouched. EXIF orientation is applied while decoding.
func (c *Converter) ToJPEG(ctx context.Context, name string, data []byte) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if passthrough[ext] {
		return data, name, nil
	}
	if !decodable[ext] && !heif[ext] {
		log.Debugf("unknown extension %q for %s, trying to decode anyway", ext, name)
	}

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	img, err := decode(ext, data)
	if !heif[ext] && errors.Is(err, image.ErrFormat) {
		return nil, "", fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.quality)); err != nil {
		return nil, "", fmt.Errorf("failed to encode %s: %w", name, err)
	}

	converted := strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	log.Debugf("converted %s to %s (%d -> %d bytes)", name, converted, len(data), buf.Len())
	return buf.Bytes(), converted, nil
}

// decode reads HEIC/HEIF through libheif, which applies the container's
// rotation and mirroring itself. Everything else goes through imaging with
// EXIF orientation.
func decode(ext string, data []byte) (image.Image, error) {
	if heif[ext] {
		return heic.Decode(bytes.NewReader(data))
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}
