// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// SemVer represents a released semantic version with the major, minor,
// and patch components. It versions the configuration file format.
// Incrementing the major version represents backward-incompatible
// changes, the minor version represents backward compatible additions,
// and the patch version represents invisible implementation changes.
//
// Data dictionary versions are not semantic versions and are kept as
// DDVersion values instead.
type SemVer [3]uint

// UnmarshalText deserializes text byte slice as a string consisting of
// one to three dot-separated numbers and fills the sv SemVer instance.
// Missing components are zero. In case of errors, sv will be left
// unchanged.
func (sv *SemVer) UnmarshalText(text []byte) error {
	p := strings.Split(string(text), ".")
	if len(p) > 3 {
		return fmt.Errorf("the %q has wrong number of components", text)
	}
	var v SemVer
	for i, c := range p {
		n, err := strconv.ParseUint(c, 10, 32)
		if err != nil {
			return fmt.Errorf("the %q component is not numeric", c)
		}
		v[i] = uint(n)
	}
	*sv = v
	return nil
}

// MarshalText implements encoding.TextMarshaler interface and
// serializes `sv` semantic version as its string representation.
func (sv SemVer) MarshalText() ([]byte, error) {
	return []byte(sv.String()), nil
}

// Compare returns -1, 0, or +1 if sv is less than, equal to, or greater
// than other respectively, comparing components from major to patch.
func (sv SemVer) Compare(other SemVer) int {
	for i := range sv {
		if c := cmp.Compare(sv[i], other[i]); c != 0 {
			return c
		}
	}
	return 0
}

// String returns the sv semantic version as a dot-separated string
// like major.minor.patch.
func (sv SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", sv[0], sv[1], sv[2])
}
