// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ddversionrs

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/momeni/pfsdd/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/pfsdd/pkg/core/model"
)

type versionResp struct {
	Version model.DDVersion `json:"version"`
	Release string          `json:"release"`
	Entry   model.Entry     `json:"entry"`
	Policy  model.Policy    `json:"policy"`
}

type historyResp struct {
	Current model.DDVersion `json:"current"`
	Entries []model.Entry   `json:"entries"`
}

type transitionsResp struct {
	Transitions []model.Transition `json:"transitions"`
}

// entryReq.Version may be a number like 800171 or a release like
// 8.0.17-1, so it is parsed by the use case.
type entryReq struct {
	Version string `uri:"version" binding:"required"`
}

// transitionsReq.Limit is zero when it is missing, asking for the
// default limit of the use case. Its maximum is
// ddversionuc.MaxTransitionsLimit.
type transitionsReq struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

func (rs *resource) DserTransitionsReq(c *gin.Context) *transitionsReq {
	req := &transitionsReq{}
	if !serdser.Bind(c, req, binding.Query) {
		return nil
	}
	return req
}
