// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package repo contains the repository interfaces which are required
// by the use cases layer. They are implemented by the database adapters
// (see pkg/adapter/db/postgres), so the use cases can stay independent
// of GORM and PostgreSQL.
package repo

import "context"

// ConnHandler is a function which uses an acquired connection.
// The connection is released when the handler returns.
type ConnHandler func(context.Context, Conn) error

// Pool represents a database connection pool.
type Pool interface {
	Conn(ctx context.Context, handler ConnHandler) error
}
