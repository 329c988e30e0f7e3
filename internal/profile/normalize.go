// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/toeirei/querydeck/internal/dialect"
	"github.com/toeirei/querydeck/internal/model"
)

// legacy profile files were written by earlier releases with loose
// field names and driver-style dialect names. normalizeLegacy maps such
// an entry onto the canonical shape, synthesizing a deterministic id
// when the entry has none.
func normalizeLegacy(raw json.RawMessage) (model.ConnectionProfile, bool) {
	var entry map[string]any
	if err := json.Unmarshal(raw, &entry); err != nil {
		return model.ConnectionProfile{}, false
	}

	typeName := firstString(entry, "type", "driver", "dialect")
	d, err := dialect.Parse(typeName)
	if err != nil {
		return model.ConnectionProfile{}, false
	}

	connStr := firstString(entry, "connectionString", "connection_str", "connection_string", "url", "dsn")
	if connStr == "" {
		return model.ConnectionProfile{}, false
	}

	name := firstString(entry, "name", "label")
	if name == "" {
		name = fmt.Sprintf("%s connection", d)
	}

	id := firstString(entry, "id")
	if id == "" {
		id = DeterministicID(name, connStr)
	}

	return model.ConnectionProfile{
		ID:               id,
		Name:             name,
		Type:             d.String(),
		ConnectionString: connStr,
		CreatedAt:        firstTime(entry, "createdAt", "created_at"),
		UpdatedAt:        firstTime(entry, "updatedAt", "updated_at"),
	}, true
}

// DeterministicID hashes name and connection string so repeated loads
// of the same legacy entry resolve to the same id.
func DeterministicID(name, connStr string) string {
	sum := sha256.Sum256([]byte(name + connStr))
	return hex.EncodeToString(sum[:])[:16]
}

func firstString(entry map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := entry[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

func firstTime(entry map[string]any, keys ...string) time.Time {
	for _, k := range keys {
		v, ok := entry[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			if ts, err := time.Parse(time.RFC3339, t); err == nil {
				return ts
			}
		case float64:
			// epoch milliseconds, written by the oldest format
			return time.UnixMilli(int64(t)).UTC()
		}
	}
	return time.Time{}
}
