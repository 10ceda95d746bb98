// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"

	"github.com/momeni/pfsdd/pkg/core/repo"
	"gorm.io/gorm"
)

// Queryer is a type constraint which is satisfied by *Conn and *Tx.
// Generic query functions of the repository packages accept it, so one
// implementation serves both connections and transactions.
type Queryer interface {
	*Conn | *Tx
	repo.Queryer
	GORM(ctx context.Context) *gorm.DB
}
