// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/momeni/pfsdd/pkg/core/model"
)

// DDVersion interface presents expectations from a repository which
// keeps the performance_schema version in the data dictionary
// properties and logs the applied version transitions.
type DDVersion interface {
	// Conn takes a Conn interface instance, unwraps it as required,
	// and returns a DDVersionConnQueryer interface which can read the
	// persisted version and transitions in auto-committed transactions.
	Conn(Conn) DDVersionConnQueryer

	// Tx takes a Tx interface instance, unwraps it as required,
	// and returns a DDVersionTxQueryer interface which can also create
	// the bookkeeping tables and persist transitions.
	Tx(Tx) DDVersionTxQueryer
}

// DDVersionConnQueryer lists the operations which may be taken with
// an open connection.
type DDVersionConnQueryer interface {
	DDVersionQueryer
}

// DDVersionTxQueryer lists the operations which may be taken in an
// ongoing transaction. Writing operations are only listed here, so the
// persisted version and its transition record are stored atomically.
//
// Persisted locks the persisted version in this case, so concurrent
// transactions which decide on the same persisted value are serialized
// until this transaction commits or rolls back.
type DDVersionTxQueryer interface {
	DDVersionQueryer

	// CreateTables creates the properties and transitions tables if
	// they do not exist.
	CreateTables(ctx context.Context) error

	// Persist stores t.To as the persisted version and appends the
	// t Transition record to the transitions log.
	Persist(ctx context.Context, t *model.Transition) error
}

// DDVersionQueryer lists the common operations which may be taken
// either with a connection or in a transaction.
type DDVersionQueryer interface {
	// Persisted returns the version which is stored in the data
	// dictionary. The found return value is false if no version is
	// stored, including the case that properties table is missing.
	Persisted(ctx context.Context) (v model.DDVersion, found bool, err error)

	// Transitions returns at most limit latest transitions, the most
	// recent one first. Ties are ordered deterministically.
	Transitions(ctx context.Context, limit int) ([]model.Transition, error)
}
