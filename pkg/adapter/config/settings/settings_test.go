// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settings_test

import (
	"testing"
	"time"

	"github.com/momeni/pfsdd/pkg/adapter/config/settings"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	var p *int
	settings.Default(&p, 20)
	require.NotNil(t, p)
	require.Equal(t, 20, *p)

	settings.Default(&p, 30)
	require.Equal(t, 20, *p, "existing value is kept")
}

func TestVerifyRange(t *testing.T) {
	require.NoError(t, settings.VerifyRange[int]("n", nil, 1, 10))
	n := 10
	require.NoError(t, settings.VerifyRange("n", &n, 1, 10))
	n = 11
	err := settings.VerifyRange("n", &n, 1, 10)
	require.EqualError(t, err, "n (11) is not in [1, 10]")
	var oore *settings.OutOfRangeError[int]
	require.ErrorAs(t, err, &oore)
	require.Equal(t, 11, oore.Value)
}

func TestDuration(t *testing.T) {
	for s, expected := range map[string]string{
		"2h":     "2h",
		"2h3m":   "2h3m",
		"90s":    "1m30s",
		"1m":     "1m",
		"0s":     "0s",
		"1h0m5s": "1h0m5s",
	} {
		var d settings.Duration
		require.NoError(t, d.UnmarshalText([]byte(s)))
		require.Equal(t, expected, d.String(), "parsing %q", s)
	}

	var c struct {
		Timeout settings.Duration `yaml:"timeout"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("timeout: 5s\n"), &c))
	require.Equal(t, settings.Duration(5*time.Second), c.Timeout)
	require.Error(t, yaml.Unmarshal([]byte("timeout: soon\n"), &c))
	require.Equal(t, settings.Duration(5*time.Second), c.Timeout)

	b, err := yaml.Marshal(c)
	require.NoError(t, err)
	require.Equal(t, "timeout: 5s\n", string(b))
}
