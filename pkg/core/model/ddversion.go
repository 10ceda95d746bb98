// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// DDVersion is the performance_schema data dictionary version number.
// It is stored on disk in the data dictionary and must change whenever
// the performance_schema structure changes.
//
// Version numbers form a name space which must be unique across all
// releases, even including forks. Instead of a naive 1, 2, 3, ... N
// numbering (which needs an authoritative registry), each number is the
// release version of the first release which published a given database
// schema, encoded as Mmmdd (M=Major, m=minor, d=dot), so release 8.0.4
// is encoded as 80004. A dash release like 8.12.34-56 is encoded as
// 8123456 and the vendor specific schema changes are appended as the
// last three digits, so the 22nd vendor change over 8.0.23 is encoded
// as 80023022.
//
// The numeric order of DDVersion values is not the publication order.
// See the History and Precedes for the comparison of two values.
type DDVersion uint32

// PFSDDVersion is the version of the current performance_schema
// database schema. Version published is now 80023-022, i.e. 8.0.23
// vendor schema change no. 22.
const PFSDDVersion DDVersion = 80023022

// These limits bound the number of decimal digits of each encoding.
const (
	maxLegacy    = 9999     // four digits, e.g. the abandoned 1
	maxPlain     = 99999    // Mmmdd
	maxDash      = 9999999  // Mmmdd followed by one or two dash digits
	maxVendor    = 99999999 // Mmmdd followed by three vendor digits
	plainDigits  = 5
	vendorDigits = 3
)

// ErrInvalidDDVersion is returned when a number or a string cannot be
// decoded as a data dictionary version.
var ErrInvalidDDVersion = errors.New("invalid data dictionary version")

// Release is the decoded form of a DDVersion.
// A Legacy release only has its Ordinal field set, otherwise Major,
// Minor, and Dot are set and at most one of Dash or Vendor is non-zero.
type Release struct {
	Major  uint `json:"major,omitempty"`
	Minor  uint `json:"minor,omitempty"`
	Dot    uint `json:"dot,omitempty"`
	Dash   uint `json:"dash,omitempty"`
	Vendor uint `json:"vendor,omitempty"`

	Legacy  bool `json:"legacy,omitempty"`
	Ordinal uint `json:"ordinal,omitempty"`
}

// Decode splits v into its release components based on its number of
// decimal digits. Zero and values with more than eight digits are not
// valid versions.
func (v DDVersion) Decode() (Release, error) {
	n := uint(v)
	var r Release
	switch {
	case n == 0:
		return r, fmt.Errorf("%w: zero", ErrInvalidDDVersion)
	case n <= maxLegacy:
		r.Legacy = true
		r.Ordinal = n
		return r, nil
	case n <= maxPlain:
	case n <= maxDash:
		var base uint
		base, r.Dash = splitBase(n)
		if r.Dash == 0 || (n > 999999 && r.Dash < 10) {
			return Release{}, fmt.Errorf(
				"%w: %d has a malformed dash suffix",
				ErrInvalidDDVersion, n,
			)
		}
		n = base
	case n <= maxVendor:
		r.Vendor = n % 1000
		if r.Vendor == 0 {
			return Release{}, fmt.Errorf(
				"%w: %d has a zero vendor suffix", ErrInvalidDDVersion, n,
			)
		}
		n /= 1000
	default:
		return r, fmt.Errorf("%w: %d has too many digits", ErrInvalidDDVersion, n)
	}
	r.Major = n / 10000
	r.Minor = (n / 100) % 100
	r.Dot = n % 100
	return r, nil
}

// splitBase separates the five leading Mmmdd digits of n from its
// trailing dash digits.
func splitBase(n uint) (base, dash uint) {
	div := uint(10)
	if n > 999999 {
		div = 100
	}
	return n / div, n % div
}

// Release decodes v and returns its components, or the zero Release if
// v is not a valid version.
func (v DDVersion) Release() Release {
	r, _ := v.Decode()
	return r
}

// Valid reports whether v can be decoded.
func (v DDVersion) Valid() bool {
	_, err := v.Decode()
	return err == nil
}

// String returns the decimal representation of v, as it is stored in
// the data dictionary.
func (v DDVersion) String() string {
	return strconv.FormatUint(uint64(v), 10)
}

// LogValue implements slog.LogValuer and logs v with its release.
func (v DDVersion) LogValue() slog.Value {
	r, err := v.Decode()
	if err != nil {
		return slog.StringValue(v.String())
	}
	return slog.GroupValue(
		slog.Uint64("number", uint64(v)),
		slog.String("release", r.String()),
	)
}

// MarshalText implements encoding.TextMarshaler interface.
func (v DDVersion) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText deserializes either the decimal or the release form of
// a version (see ParseDDVersion). In case of errors, v will be left
// unchanged.
func (v *DDVersion) UnmarshalText(text []byte) error {
	parsed, err := ParseDDVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Encode computes the DDVersion of r. It fails if any component does
// not fit in its digits or if both Dash and Vendor are present.
func (r Release) Encode() (DDVersion, error) {
	if r.Legacy {
		if r.Ordinal == 0 || r.Ordinal > maxLegacy {
			return 0, fmt.Errorf(
				"%w: legacy ordinal %d", ErrInvalidDDVersion, r.Ordinal,
			)
		}
		return DDVersion(r.Ordinal), nil
	}
	switch {
	case r.Major == 0 || r.Major > 9:
		return 0, fmt.Errorf("%w: major %d", ErrInvalidDDVersion, r.Major)
	case r.Minor > 99:
		return 0, fmt.Errorf("%w: minor %d", ErrInvalidDDVersion, r.Minor)
	case r.Dot > 99:
		return 0, fmt.Errorf("%w: dot %d", ErrInvalidDDVersion, r.Dot)
	case r.Dash > 0 && r.Vendor > 0:
		return 0, fmt.Errorf(
			"%w: both dash and vendor suffixes", ErrInvalidDDVersion,
		)
	case r.Dash > 99:
		return 0, fmt.Errorf("%w: dash %d", ErrInvalidDDVersion, r.Dash)
	case r.Vendor > 999:
		return 0, fmt.Errorf(
			"%w: vendor %d", ErrInvalidDDVersion, r.Vendor,
		)
	}
	n := r.Major*10000 + r.Minor*100 + r.Dot
	switch {
	case r.Dash > 9:
		n = n*100 + r.Dash
	case r.Dash > 0:
		n = n*10 + r.Dash
	case r.Vendor > 0:
		n = n*1000 + r.Vendor
	}
	return DDVersion(n), nil
}

// String renders r like 8.0.23, 8.0.17-1 (dash suffix), 8.0.23-022
// (three digits vendor suffix), or 1 (legacy ordinal).
func (r Release) String() string {
	if r.Legacy {
		return strconv.FormatUint(uint64(r.Ordinal), 10)
	}
	s := fmt.Sprintf("%d.%d.%d", r.Major, r.Minor, r.Dot)
	switch {
	case r.Vendor > 0:
		s += fmt.Sprintf("-%0*d", vendorDigits, r.Vendor)
	case r.Dash > 0:
		s += fmt.Sprintf("-%d", r.Dash)
	}
	return s
}

// ParseRelease parses the String form of a Release. The suffix after
// a dash is a vendor suffix if it has exactly three digits and a dash
// suffix if it has one or two digits. The Mmmdd-vvv form, like
// 80023-022, is also accepted for vendor releases.
func ParseRelease(text string) (Release, error) {
	var r Release
	base, suffix, hasSuffix := strings.Cut(text, "-")
	p := strings.Split(base, ".")
	if len(p) == 1 && len(base) == plainDigits &&
		len(suffix) == vendorDigits {
		if n, err := strconv.ParseUint(base, 10, 32); err == nil {
			p = []string{
				strconv.FormatUint(n/10000, 10),
				strconv.FormatUint(n/100%100, 10),
				strconv.FormatUint(n%100, 10),
			}
		}
	}
	if len(p) == 1 && !hasSuffix {
		o, err := strconv.ParseUint(p[0], 10, 32)
		if err != nil {
			return r, fmt.Errorf("%w: %q", ErrInvalidDDVersion, text)
		}
		r.Legacy, r.Ordinal = true, uint(o)
		if _, err = r.Encode(); err != nil {
			return Release{}, err
		}
		return r, nil
	}
	if len(p) != 3 {
		return r, fmt.Errorf(
			"%w: %q has wrong number of components",
			ErrInvalidDDVersion, text,
		)
	}
	var v [3]uint
	for i, c := range p {
		n, err := strconv.ParseUint(c, 10, 8)
		if err != nil {
			return r, fmt.Errorf(
				"%w: the %q component is not numeric",
				ErrInvalidDDVersion, c,
			)
		}
		v[i] = uint(n)
	}
	r.Major, r.Minor, r.Dot = v[0], v[1], v[2]
	if hasSuffix {
		n, err := strconv.ParseUint(suffix, 10, 16)
		if err != nil || n == 0 {
			return Release{}, fmt.Errorf(
				"%w: the %q suffix is not a positive number",
				ErrInvalidDDVersion, suffix,
			)
		}
		switch len(suffix) {
		case vendorDigits:
			r.Vendor = uint(n)
		case 1, 2:
			r.Dash = uint(n)
		default:
			return Release{}, fmt.Errorf(
				"%w: the %q suffix has wrong length",
				ErrInvalidDDVersion, suffix,
			)
		}
	}
	if _, err := r.Encode(); err != nil {
		return Release{}, err
	}
	return r, nil
}

// ParseDDVersion accepts the decimal DDVersion representation, like
// 80023022, or a release string, like 8.0.23-022, and returns their
// DDVersion. Dotted strings are always parsed as releases.
func ParseDDVersion(text string) (DDVersion, error) {
	text = strings.TrimSpace(text)
	if !strings.ContainsAny(text, ".-") {
		n, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDDVersion, text)
		}
		v := DDVersion(n)
		if _, err = v.Decode(); err != nil {
			return 0, err
		}
		return v, nil
	}
	r, err := ParseRelease(text)
	if err != nil {
		return 0, err
	}
	return r.Encode()
}
