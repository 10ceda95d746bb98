// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ddversionuc contains the data dictionary version UseCase.
// Currently, these use cases are supported:
//  1. Describing a version, decoding it and finding its history entry,
//  2. Checking the persisted version against the compiled one,
//  3. Upgrading the data dictionary, i.e., persisting the compiled
//     version when it is missing or when its drift is acceptable,
//  4. Listing the applied transitions.
package ddversionuc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/momeni/pfsdd/pkg/core/cerr"
	"github.com/momeni/pfsdd/pkg/core/log"
	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/momeni/pfsdd/pkg/core/repo"
)

// Transitions limits.
const (
	DefaultTransitionsLimit = 20
	MaxTransitionsLimit     = 1000
)

// UseCase represents the data dictionary version use case. It holds
// a database connection pool, the version repository instance (to be
// guided with the DB pool), the compiled version, and the policy which
// decides about the risky drifts.
type UseCase struct {
	pool  repo.Pool
	ddvrp repo.DDVersion

	current model.DDVersion
	policy  model.Policy
	limit   int
	now     func() time.Time
}

// New instantiates a data dictionary version use case.
// Required parameters are passed individually, while the optional
// parameters are passed as a series of functional options.
func New(p repo.Pool, r repo.DDVersion, opts ...Option) (*UseCase, error) {
	uc := &UseCase{pool: p, ddvrp: r}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if uc.current == 0 {
		uc.current = model.PFSDDVersion
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	if uc.limit == 0 {
		uc.limit = DefaultTransitionsLimit
	}
	return uc, nil
}

// Current returns the registry entry of the compiled version.
func (ddv *UseCase) Current() model.Entry {
	e, _ := model.Lookup(ddv.current)
	return e
}

// Policy returns the configured drift acceptance policy.
func (ddv *UseCase) Policy() model.Policy {
	return ddv.policy
}

// Description is the result of the Describe use case. Entry is nil if
// the described version is not registered.
type Description struct {
	Version model.DDVersion `json:"version"`
	Release model.Release   `json:"release"`
	Display string          `json:"display"`
	Entry   *model.Entry    `json:"entry,omitempty"`
}

// Describe parses text as a version number or a release string and
// describes it. Unparsable text causes a BadRequest error.
func Describe(text string) (*Description, error) {
	v, err := model.ParseDDVersion(text)
	if err != nil {
		return nil, cerr.BadRequest(err)
	}
	r, _ := v.Decode()
	d := &Description{Version: v, Release: r, Display: r.String()}
	if e, ok := model.Lookup(v); ok {
		d.Entry = &e
	}
	return d, nil
}

// Check use case reads the persisted version with a connection and
// reports its drift from the compiled version. It does not modify the
// data dictionary.
func (ddv *UseCase) Check(ctx context.Context) (r *model.Report, err error) {
	err = ddv.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		v, found, err := ddv.ddvrp.Conn(c).Persisted(ctx)
		if err != nil {
			return fmt.Errorf("reading persisted version: %w", err)
		}
		r, err = model.NewReport(ddv.current, v, found, ddv.policy)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "checked data dictionary version", log.Valuer("report", r))
	return r, nil
}

// Upgrade use case creates the bookkeeping tables (if missing), reads
// the persisted version, and if the decided action is create or
// recreate, replaces it with the compiled version while recording the
// transition, all in one transaction. If the drift is refused, nothing
// is changed and a Conflict error wrapping a
// *cerr.MismatchingDDVersionError is returned alongside the report.
func (ddv *UseCase) Upgrade(ctx context.Context) (r *model.Report, err error) {
	err = ddv.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := ddv.ddvrp.Tx(tx)
			if err := q.CreateTables(ctx); err != nil {
				return fmt.Errorf("creating tables: %w", err)
			}
			v, found, err := q.Persisted(ctx)
			if err != nil {
				return fmt.Errorf("reading persisted version: %w", err)
			}
			r, err = model.NewReport(ddv.current, v, found, ddv.policy)
			if err != nil {
				return err
			}
			switch r.Action {
			case model.ActionNone:
				return nil
			case model.ActionRefuse:
				return cerr.Conflict(&cerr.MismatchingDDVersionError{
					Expected: ddv.current, Actual: v, Drift: r.Drift,
				})
			}
			t := model.NewTransition(r, ddv.now().UTC())
			if err = q.Persist(ctx, t); err != nil {
				return fmt.Errorf("persisting transition: %w", err)
			}
			return nil
		})
	})
	var mde *cerr.MismatchingDDVersionError
	switch {
	case errors.As(err, &mde):
		log.Warn(
			ctx, "refused data dictionary version drift",
			log.Valuer("report", r), log.Err("err", err),
		)
		return r, err
	case err != nil:
		return nil, err
	}
	log.Info(ctx, "upgraded data dictionary version", log.Valuer("report", r))
	return r, nil
}

// Transitions use case lists at most limit latest applied transitions.
// A zero limit selects the configured default limit.
func (ddv *UseCase) Transitions(
	ctx context.Context, limit int,
) (ts []model.Transition, err error) {
	switch {
	case limit == 0:
		limit = ddv.limit
	case limit < 0 || limit > MaxTransitionsLimit:
		return nil, cerr.BadRequest(fmt.Errorf(
			"limit (%d) is not in [1, %d]", limit, MaxTransitionsLimit,
		))
	}
	err = ddv.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		ts, err = ddv.ddvrp.Conn(c).Transitions(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Debug(
		ctx, "listed transitions",
		slog.Int("limit", limit), slog.Int("count", len(ts)),
	)
	return ts, nil
}
