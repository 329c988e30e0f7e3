// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package effects orchestrates the asynchronous database operations.
// Every externally-triggered operation follows one shape: dispatch a
// loading-start signal, open a connection scoped to the call, perform
// queries through the dialect builders, dispatch a result action, close
// the connection in a guaranteed-cleanup step, dispatch loading-stop.
// Failures are caught at this boundary, converted to a human-readable
// message and dispatched as an error action; they are returned as plain
// error values for CLI callers but never panic across the boundary.
package effects // import "github.com/toeirei/querydeck/internal/effects"

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/toeirei/querydeck/internal/db"
	"github.com/toeirei/querydeck/internal/history"
	"github.com/toeirei/querydeck/internal/keystore"
	"github.com/toeirei/querydeck/internal/logging"
	"github.com/toeirei/querydeck/internal/model"
	"github.com/toeirei/querydeck/internal/profile"
	"github.com/toeirei/querydeck/internal/state"
)

// refreshWindow suppresses redundant automatic refreshes of the same
// table key inside this window.
const refreshWindow = 2 * time.Second

// ErrNoActiveConnection is returned when an operation needs a session
// and none is connected.
var ErrNoActiveConnection = errors.New("no active connection")

// Runner wires the stores together and executes effects. Profile
// records held here carry real passwords (spliced on load); everything
// dispatched into state is masked.
type Runner struct {
	store    *state.Store
	factory  *db.Factory
	profiles *profile.Store
	history  *history.Store

	mu        sync.Mutex
	records   []model.ConnectionProfile
	activeID  string
	refreshAt map[string]time.Time
	gen       map[string]uint64
}

// NewRunner returns a Runner dispatching into store.
func NewRunner(store *state.Store, factory *db.Factory, profiles *profile.Store, hist *history.Store) *Runner {
	return &Runner{
		store:     store,
		factory:   factory,
		profiles:  profiles,
		history:   hist,
		refreshAt: map[string]time.Time{},
		gen:       map[string]uint64{},
	}
}

// Shutdown flushes all debounced writers, best-effort. A write
// scheduled in the final window may be lost if the process terminates
// first; that is the accepted data-loss window.
func (r *Runner) Shutdown() {
	if err := r.profiles.Flush(); err != nil {
		logging.Errorf("effects: profile flush on shutdown failed: %v", err)
	}
	if err := r.history.Flush(); err != nil {
		logging.Errorf("effects: history flush on shutdown failed: %v", err)
	}
}

// run is the effect boundary: loading signals around fn, errors
// converted to one dispatched message.
func (r *Runner) run(name string, fn func() error) error {
	r.store.Dispatch(state.SetLoading{Loading: true})
	r.store.Dispatch(state.ClearError{})
	err := fn()
	if err != nil {
		logging.Debugf("effects: %s failed: %v", name, err)
		r.store.Dispatch(state.SetError{Message: humanize(err)})
	}
	r.store.Dispatch(state.SetLoading{Loading: false})
	return err
}

// withConnection opens a connection scoped to the call and closes it in
// a guaranteed-cleanup step that swallows close errors. Each effect
// pays the per-call setup cost in exchange for isolation from stale
// transaction and lock state across calls.
func (r *Runner) withConnection(ctx context.Context, fn func(context.Context, *db.Handle) error) error {
	rec, ok := r.activeRecord()
	if !ok {
		return ErrNoActiveConnection
	}
	h, err := r.factory.Open(rec.Type, rec.ConnectionString)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := h.Close(); cerr != nil {
			logging.Warnf("effects: close failed: %v", cerr)
		}
	}()
	return fn(ctx, h)
}

func (r *Runner) activeRecord() (model.ConnectionProfile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == r.activeID && r.activeID != "" {
			return rec, true
		}
	}
	return model.ConnectionProfile{}, false
}

// shouldRefresh gates automatic refreshes of a table key. Forced
// refreshes always pass and stamp the window.
func (r *Runner) shouldRefresh(key string, force bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !force {
		if at, ok := r.refreshAt[key]; ok && time.Since(at) < refreshWindow {
			return false
		}
	}
	r.refreshAt[key] = time.Now()
	return true
}

// beginGeneration stamps a fetch for key. A stale result resolving
// after a newer fetch compares stamps and is discarded instead of
// overwriting fresher state.
func (r *Runner) beginGeneration(key string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen[key]++
	return r.gen[key]
}

func (r *Runner) isCurrentGeneration(key string, g uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen[key] == g
}

// humanize converts taxonomy errors into the single user-facing string
// the UI shows. Lower-level detail stays in the error chain for logs.
func humanize(err error) string {
	var cfg *db.ConfigurationError
	var conn *db.ConnectionError
	var timeout *db.QueryTimeoutError
	var database *db.DatabaseError
	switch {
	case errors.Is(err, ErrNoActiveConnection):
		return "No active connection. Connect to a database first."
	case errors.As(err, &cfg):
		return "Configuration error: " + cfg.Msg
	case errors.As(err, &conn):
		return "Could not connect to the database: " + conn.Message
	case errors.As(err, &timeout):
		return "The query timed out: " + timeout.Message
	case errors.As(err, &database):
		return "The database reported an error: " + database.Message
	case errors.Is(err, keystore.ErrDecryption):
		return "A stored credential could not be decrypted."
	default:
		return fmt.Sprintf("Operation failed: %v", err)
	}
}
