// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gin_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/goccy/go-json"
	"github.com/momeni/pfsdd/pkg/adapter/config"
	"github.com/momeni/pfsdd/pkg/adapter/db/postgres"
	"github.com/momeni/pfsdd/pkg/adapter/db/postgres/ddversionrp"
	"github.com/momeni/pfsdd/pkg/adapter/restful/gin"
	"github.com/momeni/pfsdd/pkg/adapter/restful/gin/routes"
	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/stretchr/testify/suite"
	gpostgres "gorm.io/driver/postgres"
)

const configYAML = `
database:
  host: localhost
  port: 5432
  name: pfsdd
  pass-dir: /nonexistent
usecases:
  ddversion:
    transitions-limit: 7
versions:
  config: 1.0.0
`

type GinTestSuite struct {
	suite.Suite

	Mock sqlmock.Sqlmock
	Pool *postgres.Pool
	Gin  *gin.Engine
}

func TestGinTestSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, &GinTestSuite{})
}

func (gts *GinTestSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	gts.Require().NoError(err, "creating sqlmock")
	gts.Mock = mock
	gts.Pool, err = postgres.Open(
		context.Background(), gpostgres.New(gpostgres.Config{Conn: db}),
	)
	gts.Require().NoError(err, "opening pool over sqlmock")

	c, err := config.Parse([]byte(configYAML))
	gts.Require().NoError(err, "parsing config")
	gts.Gin = c.Gin.NewEngine()
	gts.Require().NotNil(gts.Gin, "cannot instantiate Gin engine")
	err = routes.Register(gts.Gin, gts.Pool, c)
	gts.Require().NoError(err, "failed to register Gin routes")
}

func (gts *GinTestSuite) TearDownTest() {
	gts.NoError(gts.Mock.ExpectationsWereMet())
	_ = gts.Pool.Close()
}

// get sends a GET request to the path (relative to the API prefix),
// checks its status code, and decodes its JSON body into res.
func (gts *GinTestSuite) get(path string, code int, res any) {
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, routes.Prefix+path, nil)
	gts.Require().NoError(err, "cannot create GET request")
	gts.Gin.ServeHTTP(w, req)
	gts.Require().Equal(code, w.Code, "body: %s", w.Body.String())
	gts.Require().NoError(json.Unmarshal(w.Body.Bytes(), res),
		"body is not json",
	)
}

type detailResp struct {
	Detail string
}

func (gts *GinTestSuite) TestVersion() {
	res := &struct {
		Version string
		Release string
		Entry   struct {
			PublishedBy string `json:"published_by"`
			Status      string
		}
	}{}
	gts.get("/version", http.StatusOK, res)
	gts.Equal("80023022", res.Version)
	gts.Equal("8.0.23-022", res.Release)
	gts.Equal("8.0.23-022", res.Entry.PublishedBy)
	gts.Equal("published", res.Entry.Status)
}

func (gts *GinTestSuite) TestHistory() {
	res := &struct {
		Current string
		Entries []model.Entry
	}{}
	gts.get("/history", http.StatusOK, res)
	gts.Equal("80023022", res.Current)
	gts.Equal(model.History(), res.Entries)
}

func (gts *GinTestSuite) TestEntry() {
	for _, tc := range []struct {
		path    string
		version model.DDVersion
		status  model.EntryStatus
	}{
		{"80017", 80017, model.StatusMisassigned},
		{"8.0.17-1", 800171, model.StatusPublished},
		{"1", 1, model.StatusAbandoned},
		{"80023-022", 80023022, model.StatusPublished},
	} {
		gts.Run(tc.path, func() {
			res := &struct {
				Version model.DDVersion
				Display string
				Entry   *model.Entry
			}{}
			gts.get("/history/"+tc.path, http.StatusOK, res)
			gts.Equal(tc.version, res.Version)
			gts.Equal(tc.version.Release().String(), res.Display)
			gts.Require().NotNil(res.Entry)
			gts.Equal(tc.status, res.Entry.Status)
		})
	}

	res := &detailResp{}
	gts.get("/history/80016", http.StatusNotFound, res)
	gts.Equal("version 80016 is not registered", res.Detail)

	res = &detailResp{}
	gts.get("/history/8.x.1", http.StatusBadRequest, res)
	gts.Contains(res.Detail, "invalid data dictionary version")
}

func (gts *GinTestSuite) TestCheck() {
	gts.Mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT value FROM pfs_dd_properties WHERE name = $1",
	)).WithArgs(ddversionrp.VersionProperty).WillReturnRows(
		sqlmock.NewRows([]string{"value"}).AddRow(int64(80023)),
	)
	res := &model.Report{}
	gts.get("/check", http.StatusOK, res)
	gts.Equal(model.PFSDDVersion, res.Current)
	gts.Require().NotNil(res.Persisted)
	gts.Equal(model.DDVersion(80023), *res.Persisted)
	gts.Equal("8.0.23", res.PersistedRelease)
	gts.Equal(model.DriftUpgrade, res.Drift)
	gts.Equal(model.ActionRecreate, res.Action)
}

func (gts *GinTestSuite) TestCheckFailure() {
	gts.Mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT value FROM pfs_dd_properties",
	)).WillReturnError(context.DeadlineExceeded)
	res := &detailResp{}
	gts.get("/check", http.StatusInternalServerError, res)
	gts.Contains(res.Detail, "reading persisted version")
}

func (gts *GinTestSuite) TestTransitions() {
	gts.Mock.ExpectQuery(regexp.QuoteMeta(
		"FROM pfs_dd_transitions ORDER BY applied_at DESC LIMIT $1",
	)).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{
		"id", "from_version", "to_version", "drift", "action",
		"applied_at",
	}))
	res := &struct {
		Transitions []model.Transition
	}{}
	gts.get("/transitions", http.StatusOK, res)
	gts.Empty(res.Transitions)
}

func (gts *GinTestSuite) TestTransitionsBadLimit() {
	res := map[string][]string{}
	gts.get("/transitions?limit=1001", http.StatusBadRequest, &res)
	gts.Require().Len(res["Limit"], 1)
	gts.Contains(res["Limit"][0], "failed on the 'max' tag")

	res = map[string][]string{}
	gts.get("/transitions?limit=-2", http.StatusBadRequest, &res)
	gts.Require().Len(res["Limit"], 1)
	gts.Contains(res["Limit"][0], "failed on the 'min' tag")

	d := &detailResp{}
	gts.get("/transitions?limit=many", http.StatusBadRequest, d)
	gts.NotEmpty(d.Detail)
}
