// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package vers parses the versions section of configuration files.
// It is parsed before everything else, so the format of the remaining
// items can be known before their deserialization and an old or newer
// file can be reported instead of being half parsed.
package vers

import (
	"fmt"

	"github.com/momeni/pfsdd/pkg/core/model"
	"gopkg.in/yaml.v3"
)

// Config may be embedded inline in the config structs in order to
// carry their versions.
type Config struct {
	Versions Versions `yaml:"versions"`
}

// Versions contains the configuration file format version. The data
// dictionary version is compiled in the binary and is not configured.
type Versions struct {
	Config model.SemVer `yaml:"config"`
}

// Load deserializes data into a new Config instance, ignoring all
// other items which may be present in data.
func Load(data []byte) (*Config, error) {
	vc := &Config{}
	if err := yaml.Unmarshal(data, vc); err != nil {
		return nil, err
	}
	return vc, nil
}

// Validate returns an error if the stored config version is not in
// the major.x range or if its minor version is newer than the given
// minor version.
func (vc *Config) Validate(major, minor uint) error {
	v := vc.Versions.Config
	if v[0] != major {
		return fmt.Errorf("incompatible major version: %d", v[0])
	}
	if v[1] > minor {
		return fmt.Errorf("unsupported minor version: %d", v[1])
	}
	return nil
}
