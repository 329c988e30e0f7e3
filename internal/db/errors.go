// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db contains shared database errors and helpers.
package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ConfigurationError marks a fatal misconfiguration (unsupported
// dialect, unusable connection string) detected before any network
// activity. It is raised synchronously at factory-invocation time.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// ConnectionError marks an authentication or network failure. It is
// surfaced to the user and not auto-retried.
type ConnectionError struct {
	Code    string
	Message string
	err     error
}

func (e *ConnectionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("connection failed (%s): %s", e.Code, e.Message)
	}
	return "connection failed: " + e.Message
}

func (e *ConnectionError) Unwrap() error { return e.err }

// QueryTimeoutError marks a statement that exceeded its deadline.
// Surfaced, not retried.
type QueryTimeoutError struct {
	Message string
	err     error
}

func (e *QueryTimeoutError) Error() string { return "query timed out: " + e.Message }

func (e *QueryTimeoutError) Unwrap() error { return e.err }

// DatabaseError carries any other driver failure, preserving the
// original code and message for diagnostics.
type DatabaseError struct {
	Code    string
	Message string
	err     error
}

func (e *DatabaseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("database error (%s): %s", e.Code, e.Message)
	}
	return "database error: " + e.Message
}

func (e *DatabaseError) Unwrap() error { return e.err }

// sqlstateRe pulls a five-character SQLSTATE out of pgx error text;
// mysqlErrnoRe matches go-sql-driver's "Error NNNN:" prefix.
var (
	sqlstateRe   = regexp.MustCompile(`SQLSTATE (\w{5})`)
	mysqlErrnoRe = regexp.MustCompile(`Error (\d{4}):`)
)

// connectionHints are substrings that mark auth/network failures across
// the three engines. String matching keeps driver packages out of this
// file, the same trade the profile dedup makes: conservative, cheap to
// extend.
var connectionHints = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"password authentication failed",
	"access denied",
	"authentication failed",
	"bad connection",
	"unable to open database file",
	"too many connections",
	"28p01", // postgres invalid_password
	"28000", // invalid_authorization_specification
}

// Translate classifies a raw driver error into the shared taxonomy,
// preserving the native code and message. nil passes through.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var cfg *ConfigurationError
	var conn *ConnectionError
	var timeout *QueryTimeoutError
	var database *DatabaseError
	if errors.As(err, &cfg) || errors.As(err, &conn) || errors.As(err, &timeout) || errors.As(err, &database) {
		return err
	}

	msg := err.Error()
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(strings.ToLower(msg), "query execution was interrupted") {
		return &QueryTimeoutError{Message: msg, err: err}
	}

	code := extractCode(msg)
	lower := strings.ToLower(msg)
	for _, hint := range connectionHints {
		if strings.Contains(lower, hint) {
			return &ConnectionError{Code: code, Message: msg, err: err}
		}
	}
	return &DatabaseError{Code: code, Message: msg, err: err}
}

func extractCode(msg string) string {
	if m := sqlstateRe.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	if m := mysqlErrnoRe.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return ""
}
