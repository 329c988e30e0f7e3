// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the core data structures shared across the
// querydeck persistence and query layers.
package model // import "github.com/toeirei/querydeck/internal/model"

import (
	"fmt"
	"time"
)

// ConnectionProfile is a saved database connection. The persisted copy
// always carries a masked connection string; the real password lives in
// EncryptedPassword (on disk) or in the in-memory active connection only.
type ConnectionProfile struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Type              string           `json:"type"` // dialect name: postgresql, mysql, sqlite
	ConnectionString  string           `json:"connectionString"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	EncryptedPassword *EncryptedSecret `json:"encryptedPassword,omitempty"`
}

// String returns the name and dialect, never the connection string.
func (p ConnectionProfile) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Type)
}

// EncryptedSecret is an AES-256-GCM envelope for a credential. All three
// fields are hex-encoded.
type EncryptedSecret struct {
	Encrypted string `json:"encrypted"`
	IV        string `json:"iv"`
	Tag       string `json:"tag"`
}

// QueryHistoryItem is one executed statement, append-only and capped by
// the history store.
type QueryHistoryItem struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connectionId"`
	Query        string    `json:"query"`
	ExecutedAt   time.Time `json:"executedAt"`
	DurationMs   int64     `json:"durationMs"`
	RowCount     int       `json:"rowCount"`
	Error        string    `json:"error,omitempty"`
}

// ColumnInfo is the dialect-normalized description of a table column.
type ColumnInfo struct {
	Name         string
	DataType     string
	Nullable     bool
	Default      string
	IsPrimaryKey bool
}

// TableInfo identifies a table, optionally schema-qualified.
type TableInfo struct {
	Schema string
	Name   string
}

// String returns schema.name when a schema is present.
func (t TableInfo) String() string {
	if t.Schema != "" {
		return t.Schema + "." + t.Name
	}
	return t.Name
}

// Row is one result row keyed by column name.
type Row map[string]any

// QueryResult is the uniform shape returned by every driver.
type QueryResult struct {
	Rows     []Row
	RowCount int
	Fields   []string
}

// SortDirection is the direction of an active column sort.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// SortConfig describes an active sort on a table view.
type SortConfig struct {
	Column    string
	Direction SortDirection
}
