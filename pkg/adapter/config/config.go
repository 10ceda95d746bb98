// Copyright (c) 2023-2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files from its users and allows the pfsdd to instantiate different
// components, from the adapter or use cases layers, using those loaded
// configuration settings.
// The settings format is versioned and maintained by sub-packages.
// Parsed settings are passed to their ultimate components as a series
// of individual params (for the mandatory items) and a series of
// functional options (for the optional items).
package config

import (
	"fmt"
	"os"

	"github.com/momeni/pfsdd/pkg/adapter/config/cfg1"
	"github.com/momeni/pfsdd/pkg/adapter/config/vers"
)

// Load function loads, validates, and normalizes the configuration
// file and returns its settings as an instance of the Config struct.
// Given path must belong to a configuration file which conforms with
// the latest known configuration settings format.
func Load(path string) (*cfg1.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is like Load, but takes the configuration file contents.
func Parse(data []byte) (*cfg1.Config, error) {
	v, err := vers.Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading versions: %w", err)
	}
	if vc := v.Versions.Config; vc != cfg1.Version {
		return nil, fmt.Errorf(
			"unexpected config version: %s", vc.String(),
		)
	}
	c, err := cfg1.Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading cfg1.Config: %w", err)
	}
	return c, nil
}
