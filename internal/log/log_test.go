// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package log

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &CustomHandler{Writer: &buf}

	e := &log.Entry{
		Logger:    log.Log.(*log.Logger),
		Level:     log.WarnLevel,
		Message:   "failed to write cache slot",
		Timestamp: time.Date(2026, 3, 1, 9, 5, 0, 0, time.Local),
		Fields:    log.Fields{"slot": "file:///tmp/x.json", "error": errors.New("disk full")},
	}
	require.NoError(t, h.HandleLog(e))

	assert.Equal(t,
		"2026-03-01 09:05:00 W failed to write cache slot error=disk full slot=file:///tmp/x.json\n",
		buf.String())
}

func TestInitLogger(t *testing.T) {
	t.Setenv("PHOTOCTL_LOG", "debug")
	InitLogger()
	assert.Equal(t, log.DebugLevel, log.Log.(*log.Logger).Level)

	t.Setenv("PHOTOCTL_LOG", "")
	InitLogger()
	assert.Equal(t, log.ErrorLevel, log.Log.(*log.Logger).Level)

	t.Setenv("PHOTOCTL_LOG", "chatty")
	InitLogger()
	assert.Equal(t, log.ErrorLevel, log.Log.(*log.Logger).Level)
}
