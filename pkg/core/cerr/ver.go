// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cerr

import (
	"fmt"

	"github.com/momeni/pfsdd/pkg/core/model"
)

// MismatchingDDVersionError indicates that the data dictionary holds
// a performance_schema version which may not be replaced by the
// compiled version. The Expected field is the compiled version and the
// Actual field is the persisted version.
type MismatchingDDVersionError struct {
	Expected model.DDVersion
	Actual   model.DDVersion
	Drift    model.Drift
}

// Error returns a string representation of `mde` error instance. This
// method causes *MismatchingDDVersionError to implement error interface.
func (mde *MismatchingDDVersionError) Error() string {
	return fmt.Sprintf(
		"refusing %s: expected performance_schema version %d (%s), but data dictionary has %d",
		mde.Drift, mde.Expected, mde.Expected.Release(), mde.Actual,
	)
}
