// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Drift classifies the relation between the compiled DDVersion and the
// one which is persisted in the data dictionary.
type Drift string

// These constants list the possible Drift values.
const (
	DriftFresh     Drift = "fresh"     // nothing is persisted yet
	DriftMatch     Drift = "match"     // persisted equals compiled
	DriftUpgrade   Drift = "upgrade"   // persisted was published before
	DriftDowngrade Drift = "downgrade" // persisted was published after
	DriftUnknown   Drift = "unknown"   // persisted is not registered
)

// LogValue implements slog.LogValuer.
func (d Drift) LogValue() slog.Value {
	return slog.StringValue(string(d))
}

// Compare computes the Drift from the persisted version (if found is
// true) towards the current version. The current version must be
// registered, otherwise, an UnregisteredError is returned.
// Ordering is taken from the publication history, so an upgrade from
// 800171 to 80018 is detected correctly.
func Compare(current, persisted DDVersion, found bool) (Drift, error) {
	if Position(current) < 0 {
		return "", UnregisteredError(current)
	}
	switch {
	case !found:
		return DriftFresh, nil
	case persisted == current:
		return DriftMatch, nil
	case Position(persisted) < 0:
		return DriftUnknown, nil
	}
	older, err := Precedes(persisted, current)
	if err != nil {
		return "", err
	}
	if older {
		return DriftUpgrade, nil
	}
	return DriftDowngrade, nil
}

// Action is the decision which is taken for a given Drift.
type Action string

// These constants list the possible Action values.
const (
	ActionNone     Action = "none"     // catalog is up to date
	ActionCreate   Action = "create"   // catalog must be created
	ActionRecreate Action = "recreate" // catalog must be dropped & created
	ActionRefuse   Action = "refuse"   // start up must be refused
)

// Policy indicates which of the risky drifts are acceptable.
// Performance schema tables hold volatile data, so whenever a drift is
// accepted, the catalog is recreated for the current version.
type Policy struct {
	AllowDowngrade bool `json:"allow_downgrade"`
	AllowUnknown   bool `json:"allow_unknown"`
}

// Decide returns the Action which p prescribes for the d Drift.
func (p Policy) Decide(d Drift) Action {
	switch d {
	case DriftMatch:
		return ActionNone
	case DriftFresh:
		return ActionCreate
	case DriftUpgrade:
		return ActionRecreate
	case DriftDowngrade:
		if p.AllowDowngrade {
			return ActionRecreate
		}
	case DriftUnknown:
		if p.AllowUnknown {
			return ActionRecreate
		}
	}
	return ActionRefuse
}

// Report describes the comparison of the current and persisted data
// dictionary versions and the decided action.
type Report struct {
	Current          DDVersion  `json:"current"`
	CurrentRelease   string     `json:"current_release"`
	Persisted        *DDVersion `json:"persisted,omitempty"`
	PersistedRelease string     `json:"persisted_release,omitempty"`
	PersistedEntry   *Entry     `json:"persisted_entry,omitempty"`
	Drift            Drift      `json:"drift"`
	Action           Action     `json:"action"`
}

// NewReport compares current and persisted versions and prepares their
// Report using the p Policy.
func NewReport(
	current, persisted DDVersion, found bool, p Policy,
) (*Report, error) {
	d, err := Compare(current, persisted, found)
	if err != nil {
		return nil, fmt.Errorf("comparing versions: %w", err)
	}
	r := &Report{
		Current:        current,
		CurrentRelease: current.Release().String(),
		Drift:          d,
		Action:         p.Decide(d),
	}
	if found {
		pv := persisted
		r.Persisted = &pv
		if rel, err := persisted.Decode(); err == nil {
			r.PersistedRelease = rel.String()
		}
		if e, ok := Lookup(persisted); ok {
			r.PersistedEntry = &e
		}
	}
	return r, nil
}

// LogValue implements slog.LogValuer.
func (r *Report) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Any("current", r.Current),
		slog.Any("drift", r.Drift),
		slog.String("action", string(r.Action)),
	}
	if r.Persisted != nil {
		attrs = append(attrs, slog.Any("persisted", *r.Persisted))
	}
	return slog.GroupValue(attrs...)
}

// Transition is a persisted record of one applied data dictionary
// version change. From is nil when the catalog was created for the
// first time.
type Transition struct {
	ID        uuid.UUID  `json:"id"`
	From      *DDVersion `json:"from,omitempty"`
	To        DDVersion  `json:"to"`
	Drift     Drift      `json:"drift"`
	Action    Action     `json:"action"`
	AppliedAt time.Time  `json:"applied_at"`
}

// NewTransition creates a Transition with a fresh random ID, which
// moves the catalog as described by the r Report.
func NewTransition(r *Report, at time.Time) *Transition {
	t := &Transition{
		ID:        uuid.New(),
		To:        r.Current,
		Drift:     r.Drift,
		Action:    r.Action,
		AppliedAt: at,
	}
	if r.Persisted != nil {
		from := *r.Persisted
		t.From = &from
	}
	return t
}
