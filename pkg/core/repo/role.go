// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

// Role is a string specifying a database connection role. Each role
// has a set of granted privileges which indicates which operations
// may be performed after using it for connecting to a database.
// The authentication information of roles are kept in pass files as
// indicated in the configuration file.
type Role string

// These constants specify the expected database roles. Both roles must
// exist beforehand since this tool does not manage database roles.
const (
	// AdminRole may create the bookkeeping tables and persist the
	// data dictionary version. It is used by the upgrade operation.
	AdminRole Role = "admin"

	// NormalRole is a read-only role which is used for checking the
	// persisted version and listing the transitions.
	NormalRole Role = "pfsdd"
)
