// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dbcontainer is an internal helper for the test packages.
// It starts a temporary postgres:16 podman container and connects to
// it using a *postgres.Pool connection pool, so integration-level test
// suites may run against a real PostgreSQL DBMS server.
package dbcontainer

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/momeni/pfsdd/pkg/adapter/db/postgres"
	"github.com/stretchr/testify/require"
)

// DBMSVersion is the tag of the postgres container image.
const DBMSVersion = "16"

// New creates and starts up a postgres podman container.
// The podman.service needs to be started and the DOCKER_HOST
// environment variable needs to be initialized beforehand like
// DOCKER_HOST=unix://$XDG_RUNTIME_DIR/podman/podman.sock
// and otherwise, the t test is skipped.
// The timeout is only considered during the start up phase. The pool
// is closed and the container is shut down when t finishes.
func New(ctx context.Context, timeout time.Duration, t testing.TB) (
	*sqltestutil.PostgresContainer, *postgres.Pool,
) {
	t.Helper()
	if os.Getenv("DOCKER_HOST") == "" {
		t.Skip("DOCKER_HOST is not set, skipping the integration tests")
	}
	ctx2, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	pg, err := sqltestutil.StartPostgresContainer(ctx2, DBMSVersion)
	require.NoError(t, err, "failed to set up a test database")
	t.Cleanup(func() {
		if err := pg.Shutdown(ctx); err != nil {
			t.Errorf("failed to shutdown test database: %v", err)
		}
	})
	u := pg.ConnectionString()
	var pool *postgres.Pool
	for pool == nil {
		pool, err = postgres.NewPool(ctx2, u)
		if postgres.HasCode(err, postgres.CannotConnectNow) {
			continue // the database system is starting up
		}
		var netErr net.Error
		if ctx2.Err() == nil && errors.As(err, &netErr) {
			continue // tolerate network errors until a timeout
		}
		require.NoError(t, err, "cannot connect to test database")
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("failed to close the connections pool: %v", err)
		}
	})
	return pg, pool
}
