// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ddversionrs realizes the data dictionary version resource,
// allowing the version inspection REST APIs to be accepted and
// delegated to the ddversionuc use cases respectively.
package ddversionrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/pfsdd/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/pfsdd/pkg/core/cerr"
	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/momeni/pfsdd/pkg/core/usecase/ddversionuc"
)

type resource struct {
	ddv *ddversionuc.UseCase
}

// Register instantiates a resource adapting the ddv use case instance
// with the relevant REST APIs including:
//  1. GET version, describing the compiled version,
//  2. GET history, listing all registered versions,
//  3. GET history/:version, describing one version number or release,
//  4. GET check, reporting the drift of the persisted version,
//  5. GET transitions?limit=N, listing the latest applied transitions.
func Register(r *gin.RouterGroup, ddv *ddversionuc.UseCase) {
	rs := &resource{ddv: ddv}
	r.GET("version", rs.Version)
	r.GET("history", rs.History)
	r.GET("history/:version", rs.Entry)
	r.GET("check", rs.Check)
	r.GET("transitions", rs.Transitions)
}

func (rs *resource) Version(c *gin.Context) {
	e := rs.ddv.Current()
	c.JSON(http.StatusOK, &versionResp{
		Version: e.Version,
		Release: e.Release().String(),
		Entry:   e,
		Policy:  rs.ddv.Policy(),
	})
}

func (rs *resource) History(c *gin.Context) {
	c.JSON(http.StatusOK, &historyResp{
		Current: rs.ddv.Current().Version,
		Entries: model.History(),
	})
}

func (rs *resource) Entry(c *gin.Context) {
	req := &entryReq{}
	if !serdser.BindURI(c, req) {
		return
	}
	d, err := ddversionuc.Describe(req.Version)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	if d.Entry == nil {
		serdser.SerErr(c, cerr.NotFound(model.UnregisteredError(d.Version)))
		return
	}
	c.JSON(http.StatusOK, d)
}

func (rs *resource) Check(c *gin.Context) {
	r, err := rs.ddv.Check(c)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (rs *resource) Transitions(c *gin.Context) {
	req := rs.DserTransitionsReq(c)
	if req == nil {
		return
	}
	ts, err := rs.ddv.Transitions(c, req.Limit)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	if ts == nil {
		ts = []model.Transition{}
	}
	c.JSON(http.StatusOK, &transitionsResp{Transitions: ts})
}
