// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package gin wraps the gin-gonic engine, so the config and command
// packages can instantiate it without depending on gin directly.
// Resources are kept in sub-packages (like ddversionrs) and are
// registered by the routes package.
package gin

import "github.com/gin-gonic/gin"

type (
	HandlerFunc = gin.HandlerFunc
	Engine      = gin.Engine
)

// New creates a gin engine without any default middleware and then
// registers the given middlewares in order.
func New(middlewares ...HandlerFunc) *Engine {
	e := gin.New()
	e.Use(middlewares...)
	return e
}

// Logger returns the request logging middleware.
func Logger() HandlerFunc {
	return gin.Logger()
}

// Recovery returns the middleware which turns panics into 500 errors.
func Recovery() HandlerFunc {
	return gin.Recovery()
}

// These constants are the acceptable SetMode arguments.
const (
	DebugMode   = gin.DebugMode
	ReleaseMode = gin.ReleaseMode
	TestMode    = gin.TestMode
)

// SetMode sets the gin mode.
func SetMode(mode string) {
	gin.SetMode(mode)
}
