// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddversionrp_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/momeni/pfsdd/pkg/adapter/db/postgres"
	"github.com/momeni/pfsdd/pkg/adapter/db/postgres/ddversionrp"
	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/momeni/pfsdd/pkg/core/repo"
	"github.com/stretchr/testify/require"
	gpostgres "gorm.io/driver/postgres"
)

// pgSQL converts the ? placeholders of sql to the numbered ones which
// GORM sends to PostgreSQL and quotes the result as a regexp.
func pgSQL(sql string) string {
	var b strings.Builder
	n := 0
	for _, c := range sql {
		if c == '?' {
			n++
			b.WriteString("$")
			b.WriteString(string(rune('0' + n)))
			continue
		}
		b.WriteRune(c)
	}
	return regexp.QuoteMeta(b.String())
}

func newPool(t *testing.T) (*postgres.Pool, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "creating sqlmock")
	p, err := postgres.Open(
		context.Background(), gpostgres.New(gpostgres.Config{Conn: db}),
	)
	require.NoError(t, err, "opening pool over sqlmock")
	t.Cleanup(func() {
		_ = p.Close()
	})
	return p, mock
}

func withConn(
	t *testing.T, p *postgres.Pool, f func(repo.DDVersionConnQueryer),
) {
	err := p.Conn(
		context.Background(), func(_ context.Context, c repo.Conn) error {
			f(ddversionrp.New().Conn(c))
			return nil
		},
	)
	require.NoError(t, err)
}

func TestPersisted(t *testing.T) {
	for _, tc := range []struct {
		name    string
		prepare func(*sqlmock.ExpectedQuery)
		version model.DDVersion
		found   bool
		errMsg  string
	}{
		{
			name: "stored",
			prepare: func(eq *sqlmock.ExpectedQuery) {
				eq.WillReturnRows(
					sqlmock.NewRows([]string{"value"}).AddRow(int64(800171)),
				)
			},
			version: 800171,
			found:   true,
		},
		{
			name: "missing row",
			prepare: func(eq *sqlmock.ExpectedQuery) {
				eq.WillReturnRows(sqlmock.NewRows([]string{"value"}))
			},
		},
		{
			name: "missing table",
			prepare: func(eq *sqlmock.ExpectedQuery) {
				eq.WillReturnError(&pgconn.PgError{
					Code:    postgres.UndefinedTable,
					Message: `relation "pfs_dd_properties" does not exist`,
				})
			},
		},
		{
			name: "out of range",
			prepare: func(eq *sqlmock.ExpectedQuery) {
				eq.WillReturnRows(
					sqlmock.NewRows([]string{"value"}).AddRow(int64(-3)),
				)
			},
			errMsg: "out of range version: -3",
		},
		{
			name: "connection failure",
			prepare: func(eq *sqlmock.ExpectedQuery) {
				eq.WillReturnError(errors.New("broken pipe"))
			},
			errMsg: "broken pipe",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, mock := newPool(t)
			tc.prepare(mock.ExpectQuery(
				pgSQL(ddversionrp.SelectVersionSQL),
			).WithArgs(ddversionrp.VersionProperty))
			withConn(t, p, func(q repo.DDVersionConnQueryer) {
				v, found, err := q.Persisted(context.Background())
				if tc.errMsg != "" {
					require.ErrorContains(t, err, tc.errMsg)
					return
				}
				require.NoError(t, err)
				require.Equal(t, tc.found, found)
				require.Equal(t, tc.version, v)
			})
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPersistedLocksInTx(t *testing.T) {
	for _, tc := range []struct {
		name    string
		prepare func(sqlmock.Sqlmock)
		version model.DDVersion
		found   bool
		errMsg  string
	}{
		{
			name: "stored",
			prepare: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(
					ddversionrp.LockPropertiesSQL,
				)).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(pgSQL(
					ddversionrp.SelectVersionForUpdateSQL,
				)).WithArgs(ddversionrp.VersionProperty).WillReturnRows(
					sqlmock.NewRows([]string{"value"}).AddRow(int64(80023)),
				)
			},
			version: 80023,
			found:   true,
		},
		{
			name: "missing table",
			prepare: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(
					ddversionrp.LockPropertiesSQL,
				)).WillReturnError(&pgconn.PgError{
					Code: postgres.UndefinedTable,
				})
			},
		},
		{
			name: "lock timeout",
			prepare: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta(
					ddversionrp.LockPropertiesSQL,
				)).WillReturnError(errors.New("lock timeout"))
			},
			errMsg: "locking properties: lock timeout",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, mock := newPool(t)
			mock.ExpectBegin()
			tc.prepare(mock)
			mock.ExpectCommit()

			err := p.Conn(context.Background(), func(
				ctx context.Context, c repo.Conn,
			) error {
				return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
					v, found, err := ddversionrp.New().Tx(tx).Persisted(ctx)
					if tc.errMsg != "" {
						require.ErrorContains(t, err, tc.errMsg)
						return nil
					}
					require.NoError(t, err)
					require.Equal(t, tc.found, found)
					require.Equal(t, tc.version, v)
					return nil
				})
			})
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPersistInTx(t *testing.T) {
	p, mock := newPool(t)
	from := model.DDVersion(80023021)
	tr := &model.Transition{
		ID:        uuid.New(),
		From:      &from,
		To:        model.PFSDDVersion,
		Drift:     model.DriftUpgrade,
		Action:    model.ActionRecreate,
		AppliedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(ddversionrp.CreatePropertiesSQL)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(ddversionrp.CreateTransitionsSQL)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(pgSQL(ddversionrp.UpsertVersionSQL)).
		WithArgs(ddversionrp.VersionProperty, int64(80023022)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(pgSQL(ddversionrp.InsertTransitionSQL)).
		WithArgs(
			tr.ID.String(), int64(80023021), int64(80023022),
			"upgrade", "recreate", tr.AppliedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.Conn(
		context.Background(), func(ctx context.Context, c repo.Conn) error {
			return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
				q := ddversionrp.New().Tx(tx)
				if err := q.CreateTables(ctx); err != nil {
					return err
				}
				return q.Persist(ctx, tr)
			})
		},
	)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistRollsBack(t *testing.T) {
	p, mock := newPool(t)
	tr := &model.Transition{
		ID:        uuid.New(),
		To:        model.PFSDDVersion,
		Drift:     model.DriftFresh,
		Action:    model.ActionCreate,
		AppliedAt: time.Now().UTC(),
	}
	mock.ExpectBegin()
	mock.ExpectExec(pgSQL(ddversionrp.UpsertVersionSQL)).
		WithArgs(ddversionrp.VersionProperty, int64(80023022)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(pgSQL(ddversionrp.InsertTransitionSQL)).
		WithArgs(
			tr.ID.String(), nil, int64(80023022), "fresh", "create",
			sqlmock.AnyArg(),
		).
		WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err := p.Conn(
		context.Background(), func(ctx context.Context, c repo.Conn) error {
			return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
				return ddversionrp.New().Tx(tx).Persist(ctx, tr)
			})
		},
	)
	require.ErrorContains(t, err, "inserting transition: duplicate key")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitions(t *testing.T) {
	p, mock := newPool(t)
	id1, id2 := uuid.New(), uuid.New()
	at1 := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	at2 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(pgSQL(ddversionrp.SelectTransitionsSQL)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "from_version", "to_version", "drift", "action",
			"applied_at",
		}).
			AddRow(id1.String(), int64(80023), int64(80023022), "upgrade", "recreate", at1).
			AddRow(id2.String(), nil, int64(80023), "fresh", "create", at2))

	withConn(t, p, func(q repo.DDVersionConnQueryer) {
		ts, err := q.Transitions(context.Background(), 5)
		require.NoError(t, err)
		require.Len(t, ts, 2)

		require.Equal(t, id1, ts[0].ID)
		require.NotNil(t, ts[0].From)
		require.Equal(t, model.DDVersion(80023), *ts[0].From)
		require.Equal(t, model.PFSDDVersion, ts[0].To)
		require.Equal(t, model.DriftUpgrade, ts[0].Drift)
		require.Equal(t, model.ActionRecreate, ts[0].Action)
		require.True(t, at1.Equal(ts[0].AppliedAt))

		require.Equal(t, id2, ts[1].ID)
		require.Nil(t, ts[1].From)
		require.Equal(t, model.ActionCreate, ts[1].Action)
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionsMissingTable(t *testing.T) {
	p, mock := newPool(t)
	mock.ExpectQuery(pgSQL(ddversionrp.SelectTransitionsSQL)).
		WithArgs(20).
		WillReturnError(&pgconn.PgError{Code: postgres.UndefinedTable})

	withConn(t, p, func(q repo.DDVersionConnQueryer) {
		ts, err := q.Transitions(context.Background(), 20)
		require.NoError(t, err)
		require.Empty(t, ts)
	})
	require.NoError(t, mock.ExpectationsWereMet())
}
