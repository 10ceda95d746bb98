// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ddversionrp provides a reification of the repo.DDVersion
// interface, keeping the performance_schema data dictionary version
// in the pfs_dd_properties table and logging its transitions in the
// pfs_dd_transitions table.
package ddversionrp

import (
	"context"

	"github.com/momeni/pfsdd/pkg/adapter/db/postgres"
	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/momeni/pfsdd/pkg/core/repo"
)

// Repo represents the data dictionary version repository.
type Repo struct {
}

// New instantiates a data dictionary version Repo struct.
func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

// Conn unwraps the given repo.Conn instance, expecting to find an
// instance of *postgres.Conn as created by this adapter layer.
// Otherwise, it will panic.
func (ddv *Repo) Conn(c repo.Conn) repo.DDVersionConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) Persisted(ctx context.Context) (
	model.DDVersion, bool, error,
) {
	return Persisted(ctx, cq.Conn)
}

func (cq connQueryer) Transitions(
	ctx context.Context, limit int,
) ([]model.Transition, error) {
	return Transitions(ctx, cq.Conn, limit)
}

type txQueryer struct {
	*postgres.Tx
}

// Tx unwraps the given repo.Tx instance, expecting to find an instance
// of *postgres.Tx as created by this adapter layer. Otherwise, it will
// panic. The returned queryer may also create tables and persist
// transitions, which become visible when the transaction commits.
func (ddv *Repo) Tx(tx repo.Tx) repo.DDVersionTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) Persisted(ctx context.Context) (
	model.DDVersion, bool, error,
) {
	return PersistedForUpdate(ctx, tq.Tx)
}

func (tq txQueryer) Transitions(
	ctx context.Context, limit int,
) ([]model.Transition, error) {
	return Transitions(ctx, tq.Tx, limit)
}

func (tq txQueryer) CreateTables(ctx context.Context) error {
	return CreateTables(ctx, tq.Tx)
}

func (tq txQueryer) Persist(ctx context.Context, t *model.Transition) error {
	return Persist(ctx, tq.Tx, t)
}
