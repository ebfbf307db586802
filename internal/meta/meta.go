// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"
	"time"

	"github.com/staranto/photoctl/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args        []string
	Config      config.Type
	Context     context.Context
	StartingDir string

	// Now is the clock used for timestamps in snapshots and exports.
	Now func() time.Time
}

// Clock returns m.Now, or time.Now when unset.
func (m Meta) Clock() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
