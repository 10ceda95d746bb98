// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settings provides the helpers which are shared by the config
// versions for normalizing individual settings. Optional settings are
// kept as pointers, so a missing YAML item can be told apart from its
// zero value and replaced by a default value.
package settings

import (
	"cmp"
	"fmt"
)

// Default makes (*t) point to a copy of def if it is nil.
func Default[T any](t **T, def T) {
	if *t != nil {
		return
	}
	*t = &def
}

// OutOfRangeError reports a setting which is not in its [Min, Max]
// range of acceptable values.
type OutOfRangeError[T cmp.Ordered] struct {
	Name     string
	Value    T
	Min, Max T
}

// Error implements the error interface.
func (e *OutOfRangeError[T]) Error() string {
	return fmt.Sprintf(
		"%s (%v) is not in [%v, %v]", e.Name, e.Value, e.Min, e.Max,
	)
}

// VerifyRange returns an OutOfRangeError if value is not nil and its
// pointed value is less than minb or greater than maxb.
func VerifyRange[T cmp.Ordered](
	name string, value *T, minb, maxb T,
) error {
	if value == nil {
		return nil
	}
	if v := *value; v < minb || v > maxb {
		return &OutOfRangeError[T]{
			Name: name, Value: v, Min: minb, Max: maxb,
		}
	}
	return nil
}
