// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/photoctl/internal/aws"
	"github.com/staranto/photoctl/internal/cacheutil"
)

// ErrNotFound is returned by Load when the slot holds nothing.
var ErrNotFound = errors.New("slot not found")

// Slot is a single named durable value. The whole payload is read or
// replaced at once; there is no partial update.
type Slot interface {
	// Load returns the stored payload or ErrNotFound.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the payload.
	Save(ctx context.Context, data []byte) error
	// Remove deletes the slot entirely. Removing an absent slot is not an
	// error.
	Remove(ctx context.Context) error
	// Close releases any connection held by the slot.
	Close() error
	String() string
}

// Open resolves a slot spec into a Slot holding the named value.
//
//	""                       file slot beneath the cache dir (memory if disabled)
//	memory:                  process-local, nothing survives exit
//	file:///dir              <dir>/<name>.json
//	sqlite:///path/cache.db  row <name> in the slots table
//	s3://bucket/prefix       object <prefix>/<name>.json (?region=&endpoint=&profile=)
//	redis://host:6379/0      key photoctl:<name>
func Open(ctx context.Context, spec string, name string) (Slot, error) {
	if spec == "" {
		if !cacheutil.Enabled() {
			log.Debug("cache persistence disabled, using memory slot")
			return NewMemory(), nil
		}
		p, ok := cacheutil.SlotPath(name)
		if !ok {
			log.Warn("no cache directory resolvable, using memory slot")
			return NewMemory(), nil
		}
		return NewFile(p), nil
	}

	if spec == "memory:" || spec == "memory" {
		return NewMemory(), nil
	}

	u, err := url.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse store spec %q: %w", spec, err)
	}

	switch u.Scheme {
	case "file":
		return NewFile(filepath.Join(u.Path, name+".json")), nil
	case "sqlite":
		return NewSQLite(u.Path, name)
	case "s3":
		q := u.Query()
		client, err := aws.NewS3(ctx,
			aws.WithProfile(q.Get("profile")),
			aws.WithRegion(q.Get("region")),
			aws.WithEndpoint(q.Get("endpoint")),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		key := path.Join(strings.TrimPrefix(u.Path, "/"), name+".json")
		return NewS3(client, u.Host, key), nil
	case "redis", "rediss":
		return NewRedis(spec, "photoctl:"+name)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}
