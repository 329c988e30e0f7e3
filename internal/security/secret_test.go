// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecret_Redaction(t *testing.T) {
	s := FromString("hunter2")
	assert.Equal(t, "[SECRET]", s.String())
	assert.Equal(t, "[SECRET]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[SECRET]", fmt.Sprintf("%s", s))
	assert.NotContains(t, fmt.Sprintf("%#v", s), "hunter2")
}

func TestSecret_Reveal(t *testing.T) {
	s := FromString("hunter2")
	assert.Equal(t, "hunter2", s.Reveal())
}

func TestSecret_MarshalJSON(t *testing.T) {
	s := FromString("hunter2")
	data, err := json.Marshal(struct{ Password Secret }{Password: s})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.Contains(t, string(data), "[SECRET]")
}

func TestSecret_Zero(t *testing.T) {
	s := FromString("hunter2")
	s.Zero()
	assert.Equal(t, "\x00\x00\x00\x00\x00\x00\x00", s.Reveal())

	var nilSecret Secret
	nilSecret.Zero() // no panic
	assert.True(t, nilSecret.IsEmpty())
}
