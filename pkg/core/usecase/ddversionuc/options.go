// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddversionuc

import (
	"errors"
	"fmt"
	"time"

	"github.com/momeni/pfsdd/pkg/core/model"
)

// Option is a functional option for the data dictionary version
// use case.
type Option func(uc *UseCase) error

// WithCurrent option replaces the compiled model.PFSDDVersion by the
// v version. It must be a registered version.
func WithCurrent(v model.DDVersion) Option {
	return func(uc *UseCase) error {
		if model.Position(v) < 0 {
			return model.UnregisteredError(v)
		}
		if uc.current != 0 {
			return errors.New("current version is already configured")
		}
		uc.current = v
		return nil
	}
}

// WithDowngrade option configures whether a persisted version which
// was published after the current version may be replaced.
func WithDowngrade(allow bool) Option {
	return func(uc *UseCase) error {
		uc.policy.AllowDowngrade = allow
		return nil
	}
}

// WithUnknown option configures whether a persisted version which is
// not registered (e.g., written by a fork) may be replaced.
func WithUnknown(allow bool) Option {
	return func(uc *UseCase) error {
		uc.policy.AllowUnknown = allow
		return nil
	}
}

// WithDefaultLimit option sets the number of transitions which are
// listed when no explicit limit is asked. It must be in the range of
// [1, MaxTransitionsLimit].
func WithDefaultLimit(n int) Option {
	return func(uc *UseCase) error {
		if n < 1 || n > MaxTransitionsLimit {
			return fmt.Errorf(
				"default limit (%d) is not in [1, %d]",
				n, MaxTransitionsLimit,
			)
		}
		uc.limit = n
		return nil
	}
}

// WithClock option replaces the time.Now function which timestamps
// the persisted transitions.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return fmt.Errorf("nil clock")
		}
		uc.now = now
		return nil
	}
}
