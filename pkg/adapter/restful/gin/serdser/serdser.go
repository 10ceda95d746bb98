// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package serdser contains the serialization and deserialization
// helpers which are shared by the gin resources.
package serdser

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/momeni/pfsdd/pkg/core/cerr"
)

// Bind deserializes the request into req using the b binding and
// reports whether it succeeded. Otherwise, an error response is
// written already.
func Bind(c *gin.Context, req any, b binding.Binding) bool {
	return bindErr(c, c.ShouldBindWith(req, b))
}

// BindURI is like Bind, but fills req from the path parameters.
func BindURI(c *gin.Context, req any) bool {
	return bindErr(c, c.ShouldBindUri(req))
}

func bindErr(c *gin.Context, err error) bool {
	var verr validator.ValidationErrors
	var ierr *validator.InvalidValidationError
	switch {
	case err == nil:
		return true
	case errors.As(err, &ierr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": err.Error(),
		})
	case errors.As(err, &verr):
		var nameToErrs map[string][]string
		for _, ferr := range verr {
			AddErr(&nameToErrs, ferr.Field(), ferr.Error())
		}
		c.JSON(http.StatusBadRequest, nameToErrs)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": err.Error(),
		})
	}
	return false
}

// AddErr appends msgs to the name errors list, allocating the errs map
// if it is nil.
func AddErr(errs *map[string][]string, name string, msgs ...string) {
	if (*errs) == nil {
		*errs = make(map[string][]string)
	}
	(*errs)[name] = append((*errs)[name], msgs...)
}

// SerErr writes err as a JSON response with a detail field. A
// cerr.Error chooses its HTTP status code, otherwise, 500 is used.
func SerErr(c *gin.Context, err error) {
	var ce *cerr.Error
	if errors.As(err, &ce) {
		c.JSON(ce.HTTPStatusCode, gin.H{
			"detail": ce.Err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"detail": err.Error(),
	})
}
