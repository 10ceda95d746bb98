// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddversionrp

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/pfsdd/pkg/adapter/db/postgres"
	"github.com/momeni/pfsdd/pkg/core/model"
)

// VersionProperty is the name of the pfs_dd_properties row which holds
// the persisted performance_schema version.
const VersionProperty = "PS_VERSION"

// These statements are exported for the tests.
const (
	CreatePropertiesSQL = `CREATE TABLE IF NOT EXISTS pfs_dd_properties (name TEXT PRIMARY KEY, value BIGINT NOT NULL)`

	CreateTransitionsSQL = `CREATE TABLE IF NOT EXISTS pfs_dd_transitions (id UUID PRIMARY KEY, from_version BIGINT, to_version BIGINT NOT NULL, drift TEXT NOT NULL, action TEXT NOT NULL, applied_at TIMESTAMPTZ NOT NULL)`

	SelectVersionSQL = `SELECT value FROM pfs_dd_properties WHERE name = ?`

	LockPropertiesSQL = `LOCK TABLE pfs_dd_properties IN SHARE ROW EXCLUSIVE MODE`

	SelectVersionForUpdateSQL = SelectVersionSQL + ` FOR UPDATE`

	UpsertVersionSQL = `INSERT INTO pfs_dd_properties (name, value) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`

	InsertTransitionSQL = `INSERT INTO pfs_dd_transitions (id, from_version, to_version, drift, action, applied_at) VALUES (?, ?, ?, ?, ?, ?)`

	SelectTransitionsSQL = `SELECT id, from_version, to_version, drift, action, applied_at FROM pfs_dd_transitions ORDER BY applied_at DESC, id DESC LIMIT ?`
)

type gTransition struct {
	ID          uuid.UUID `gorm:"primaryKey;type:uuid;column:id"`
	FromVersion *int64
	ToVersion   int64
	Drift       string
	Action      string
	AppliedAt   time.Time
}

func (gt *gTransition) TableName() string {
	return "pfs_dd_transitions"
}

func (gt *gTransition) Model() (*model.Transition, error) {
	to, err := toDDVersion(gt.ToVersion)
	if err != nil {
		return nil, fmt.Errorf("to_version: %w", err)
	}
	t := &model.Transition{
		ID:        gt.ID,
		To:        to,
		Drift:     model.Drift(gt.Drift),
		Action:    model.Action(gt.Action),
		AppliedAt: gt.AppliedAt,
	}
	if gt.FromVersion != nil {
		from, err := toDDVersion(*gt.FromVersion)
		if err != nil {
			return nil, fmt.Errorf("from_version: %w", err)
		}
		t.From = &from
	}
	return t, nil
}

func toDDVersion(n int64) (model.DDVersion, error) {
	if n <= 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("out of range version: %d", n)
	}
	return model.DDVersion(n), nil
}

// CreateTables creates the pfs_dd_properties and pfs_dd_transitions
// tables if they do not exist.
func CreateTables[Q postgres.Queryer](ctx context.Context, q Q) error {
	for _, sql := range []string{CreatePropertiesSQL, CreateTransitionsSQL} {
		if _, err := q.Exec(ctx, sql); err != nil {
			return fmt.Errorf("exec(%q): %w", sql, err)
		}
	}
	return nil
}

// Persisted queries the persisted version. A missing row or a missing
// pfs_dd_properties table are reported with a false found value.
// Persisted values which do not fit in a DDVersion are reported as
// errors, but unregistered values are returned as is.
func Persisted[Q postgres.Queryer](ctx context.Context, q Q) (
	v model.DDVersion, found bool, err error,
) {
	return persisted(ctx, q, SelectVersionSQL)
}

// PersistedForUpdate is like Persisted, but it locks pfs_dd_properties
// against other writers and the persisted row against other lockers
// until the ongoing transaction finishes. Plain readers are not
// blocked. The table lock serializes concurrent upgrades even when no
// row is persisted yet. It must be called in a transaction.
func PersistedForUpdate[Q postgres.Queryer](ctx context.Context, q Q) (
	v model.DDVersion, found bool, err error,
) {
	if _, err = q.Exec(ctx, LockPropertiesSQL); err != nil {
		if postgres.HasCode(err, postgres.UndefinedTable) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("locking properties: %w", err)
	}
	return persisted(ctx, q, SelectVersionForUpdateSQL)
}

func persisted[Q postgres.Queryer](ctx context.Context, q Q, sql string) (
	v model.DDVersion, found bool, err error,
) {
	rows, err := q.Query(ctx, sql, VersionProperty)
	if err != nil {
		if postgres.HasCode(err, postgres.UndefinedTable) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return 0, false, fmt.Errorf("iterating rows: %w", err)
		}
		return 0, false, nil
	}
	var n int64
	if err = rows.Scan(&n); err != nil {
		return 0, false, fmt.Errorf("scanning version: %w", err)
	}
	if v, err = toDDVersion(n); err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// Persist upserts the t.To version as the persisted version and
// inserts the t Transition record. It should be called in a
// transaction, so both changes are applied atomically.
func Persist[Q postgres.Queryer](
	ctx context.Context, q Q, t *model.Transition,
) error {
	_, err := q.Exec(ctx, UpsertVersionSQL, VersionProperty, int64(t.To))
	if err != nil {
		return fmt.Errorf("upserting version: %w", err)
	}
	var from *int64
	if t.From != nil {
		f := int64(*t.From)
		from = &f
	}
	_, err = q.Exec(
		ctx, InsertTransitionSQL,
		t.ID, from, int64(t.To), string(t.Drift), string(t.Action),
		t.AppliedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting transition: %w", err)
	}
	return nil
}

// Transitions queries at most limit transitions, the most recently
// applied one first. Transitions with equal applied_at are ordered by
// their descending id. A missing pfs_dd_transitions table is reported
// as an empty list.
func Transitions[Q postgres.Queryer](
	ctx context.Context, q Q, limit int,
) ([]model.Transition, error) {
	var gts []gTransition
	gdb := q.GORM(ctx).Raw(SelectTransitionsSQL, limit).Scan(&gts)
	if err := gdb.Error; err != nil {
		if postgres.HasCode(err, postgres.UndefinedTable) {
			return nil, nil
		}
		return nil, fmt.Errorf("query: %w", err)
	}
	ts := make([]model.Transition, 0, len(gts))
	for i := range gts {
		t, err := gts[i].Model()
		if err != nil {
			return nil, fmt.Errorf("transition %s: %w", gts[i].ID, err)
		}
		ts = append(ts, *t)
	}
	return ts, nil
}
