// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package effects

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/toeirei/querydeck/internal/db"
	"github.com/toeirei/querydeck/internal/dialect"
	"github.com/toeirei/querydeck/internal/logging"
	"github.com/toeirei/querydeck/internal/model"
	"github.com/toeirei/querydeck/internal/profile"
	"github.com/toeirei/querydeck/internal/state"
)

// LoadConnections reads the profile store and publishes the masked
// list. Normalized and skipped counts are logged, not surfaced; the
// data made it through.
func (r *Runner) LoadConnections() error {
	return r.run("loadConnections", func() error {
		result, err := r.profiles.Load()
		if err != nil {
			return err
		}
		if result.Normalized > 0 || result.Skipped > 0 {
			logging.Infof("profiles: loaded %d (normalized %d, skipped %d)", len(result.Records), result.Normalized, result.Skipped)
		}
		r.mu.Lock()
		r.records = result.Records
		r.mu.Unlock()
		r.store.Dispatch(state.SetConnections{Connections: r.maskedRecords()})
		return nil
	})
}

// AddConnection validates the dialect, persists the new profile
// synchronously so the caller observes write errors, and publishes the
// updated list.
func (r *Runner) AddConnection(name, dialectName, connStr string) (model.ConnectionProfile, error) {
	var rec model.ConnectionProfile
	err := r.run("addConnection", func() error {
		d, err := dialect.Parse(dialectName)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		rec = model.ConnectionProfile{
			ID:               uuid.NewString(),
			Name:             name,
			Type:             d.String(),
			ConnectionString: connStr,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		r.mu.Lock()
		r.records = append(r.records, rec)
		snapshot := append([]model.ConnectionProfile(nil), r.records...)
		r.mu.Unlock()
		if err := r.profiles.SaveNow(snapshot); err != nil {
			return err
		}
		r.store.Dispatch(state.SetConnections{Connections: r.maskedRecords()})
		return nil
	})
	return rec, err
}

// RemoveConnection deletes a profile by id along with its history.
func (r *Runner) RemoveConnection(id string) error {
	return r.run("removeConnection", func() error {
		r.mu.Lock()
		kept := r.records[:0:0]
		found := false
		for _, rec := range r.records {
			if rec.ID == id {
				found = true
				continue
			}
			kept = append(kept, rec)
		}
		if !found {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", profile.ErrNotFound, id)
		}
		r.records = kept
		wasActive := r.activeID == id
		if wasActive {
			r.activeID = ""
		}
		snapshot := append([]model.ConnectionProfile(nil), r.records...)
		r.mu.Unlock()

		if err := r.profiles.SaveNow(snapshot); err != nil {
			return err
		}
		r.history.ClearForConnection(id)
		if wasActive {
			r.store.Dispatch(state.ClearActiveConnection{})
		}
		r.store.Dispatch(state.SetConnections{Connections: r.maskedRecords()})
		return nil
	})
}

// UpdateConnection renames a profile and/or replaces its connection
// string. Updating the active profile re-establishes the session
// against the new string on the next effect, since connections are
// opened per call.
func (r *Runner) UpdateConnection(ctx context.Context, id, name, connStr string) error {
	return r.run("updateConnection", func() error {
		r.mu.Lock()
		idx := -1
		for i, rec := range r.records {
			if rec.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", profile.ErrNotFound, id)
		}
		if name != "" {
			r.records[idx].Name = name
		}
		if connStr != "" {
			r.records[idx].ConnectionString = connStr
			r.records[idx].EncryptedPassword = nil
		}
		r.records[idx].UpdatedAt = time.Now().UTC()
		isActive := r.activeID == id
		snapshot := append([]model.ConnectionProfile(nil), r.records...)
		r.mu.Unlock()

		if err := r.profiles.SaveNow(snapshot); err != nil {
			return err
		}
		r.store.Dispatch(state.SetConnections{Connections: r.maskedRecords()})
		if isActive && connStr != "" {
			// Verify the new string right away so a broken edit surfaces
			// here instead of on the next unrelated operation.
			return r.withConnection(ctx, func(ctx context.Context, h *db.Handle) error {
				return h.Connect(ctx)
			})
		}
		return nil
	})
}

// Connect pings the profile's database, marks it active and loads its
// table list in the same effect.
func (r *Runner) Connect(ctx context.Context, id string) error {
	return r.run("connect", func() error {
		r.mu.Lock()
		var rec *model.ConnectionProfile
		for i := range r.records {
			if r.records[i].ID == id {
				rec = &r.records[i]
				break
			}
		}
		if rec == nil {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", profile.ErrNotFound, id)
		}
		r.activeID = id
		r.mu.Unlock()

		return r.withConnection(ctx, func(ctx context.Context, h *db.Handle) error {
			if err := h.Connect(ctx); err != nil {
				r.mu.Lock()
				r.activeID = ""
				r.mu.Unlock()
				return err
			}
			tables, err := r.fetchTables(ctx, h)
			if err != nil {
				return err
			}
			r.store.Dispatch(state.SetActiveConnection{ID: id, Dialect: h.Dialect().String()})
			r.store.Dispatch(state.SetTables{Tables: tables})
			return nil
		})
	})
}

// Disconnect clears the active session. There is no live handle to
// tear down; per-call connections are already closed.
func (r *Runner) Disconnect() {
	r.mu.Lock()
	r.activeID = ""
	r.mu.Unlock()
	r.store.Dispatch(state.ClearActiveConnection{})
}

// maskedRecords returns the profile list safe for state and display:
// passwords replaced by the asterisk mask.
func (r *Runner) maskedRecords() []model.ConnectionProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ConnectionProfile, len(r.records))
	for i, rec := range r.records {
		rec.ConnectionString = profile.MaskConnectionString(rec.ConnectionString)
		rec.EncryptedPassword = nil
		out[i] = rec
	}
	return out
}
