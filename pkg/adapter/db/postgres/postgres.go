// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package postgres is the PostgreSQL database adapter. It implements
// the repo.Pool, repo.Conn, and repo.Tx interfaces over GORM, so the
// repository sub-packages (like ddversionrp) can run their queries
// while the use cases remain independent of GORM.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// These constants are the SQLSTATE codes which are handled by the
// repository packages. For the full list, read
// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	UndefinedTable   = "42P01"
	CannotConnectNow = "57P03"
)

// HasCode reports whether err wraps a PostgreSQL error with the given
// SQLSTATE code.
func HasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == code
}
