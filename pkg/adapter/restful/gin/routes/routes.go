// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// instantiation and registration of all repo, use case, and resource
// packages based on the user provided configuration settings.
package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/momeni/pfsdd/pkg/adapter/config/cfg1"
	"github.com/momeni/pfsdd/pkg/adapter/db/postgres/ddversionrp"
	"github.com/momeni/pfsdd/pkg/adapter/restful/gin/ddversionrs"
	"github.com/momeni/pfsdd/pkg/core/repo"
)

// Prefix is the path of the REST APIs group.
const Prefix = "/api/pfsdd/v1"

// Register instantiates relevant repositories and use cases based on
// the c configuration settings. The p connections pool is passed to
// the use case instances, so they may acquire/release connections
// and transactions on demand. These connections/transactions will be
// passed to the repositories later in order to run relevant queries on
// them and accomplish those use cases. Each use case package is named
// like ddversionuc and each repository package is named like
// ddversionrp. Register instantiates the "resource" structs, from
// packages which are named like ddversionrs, in order to adapt the use
// cases interfaces with the REST APIs. These resources are registered
// as request handlers using the e gin-gonic engine instance.
func Register(e *gin.Engine, p repo.Pool, c *cfg1.Config) error {
	ddvRepo := ddversionrp.New()
	ddvUseCase, err := c.Usecases.DDVersion.NewUseCase(p, ddvRepo)
	if err != nil {
		return fmt.Errorf("creating ddversion use case: %w", err)
	}
	r := e.Group(Prefix)
	ddversionrs.Register(r, ddvUseCase)
	return nil
}
