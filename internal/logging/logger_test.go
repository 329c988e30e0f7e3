// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"bytes"
	"os"
	"testing"

	clog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestSetDebugTogglesLevel(t *testing.T) {
	defer SetDebug(false)

	var buf bytes.Buffer
	L.SetOutput(&buf)
	defer L.SetOutput(os.Stderr)

	SetDebug(false)
	assert.Equal(t, clog.InfoLevel, L.GetLevel())
	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetDebug(true)
	assert.Equal(t, clog.DebugLevel, L.GetLevel())
	Debugf("visible %d", 2)
	assert.Contains(t, buf.String(), "visible 2")
}

func TestHelpersFormat(t *testing.T) {
	var buf bytes.Buffer
	L.SetOutput(&buf)
	defer L.SetOutput(os.Stderr)

	Infof("loaded %d profiles", 3)
	Warnf("skipping %s", "entry")
	Errorf("write failed: %v", os.ErrPermission)

	out := buf.String()
	assert.Contains(t, out, "loaded 3 profiles")
	assert.Contains(t, out, "skipping entry")
	assert.Contains(t, out, "write failed")
}
