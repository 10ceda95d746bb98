// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/stretchr/testify/require"
)

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	jsonOutput, logLimit = false, 0
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "80023022 (8.0.23-022)\n"), out)
	require.Contains(t, out, "SQL_FINDINGS.QUERY_TEXT")

	out, err = run(t, "version", "--json")
	require.NoError(t, err)
	var e model.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	require.Equal(t, model.PFSDDVersion, e.Version)
}

func TestHistory(t *testing.T) {
	out, err := run(t, "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Greater(t, len(lines), len(model.History()), "one line per entry")
	require.Contains(t, out, "8.0.3")
	require.Contains(t, lines[len(lines)-1], "80023022")

	out, err = run(t, "history", "--json")
	require.NoError(t, err)
	var h []model.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	require.Equal(t, model.History(), h)
}

func TestDecode(t *testing.T) {
	out, err := run(t, "decode", "800171", "8.0.23-022", "80099")
	require.NoError(t, err)
	require.Contains(t, out, "8.0.17-1")
	require.Contains(t, out, "80023022")
	require.Contains(t, out, "unregistered")

	out, err = run(t, "decode", "80017", "8.0.x")
	require.ErrorContains(t, err, `decoding "8.0.x"`)
	require.Contains(t, out, "misassigned")
	require.Contains(t, out, "invalid")

	_, err = run(t, "decode")
	require.Error(t, err)
}

func TestCompare(t *testing.T) {
	out, err := run(t, "compare", "800171", "80018")
	require.NoError(t, err)
	require.Contains(t, out,
		"800171 (8.0.17-1) was published before 80018 (8.0.18)",
	)

	out, err = run(t, "compare", "8.0.23-022", "8.0.23")
	require.NoError(t, err)
	require.Contains(t, out, "was published after")

	out, err = run(t, "compare", "80019", "8.0.19")
	require.NoError(t, err)
	require.Contains(t, out, "is the same as")

	_, err = run(t, "compare", "80016", "80018")
	require.ErrorContains(t, err, "version 80016 is not registered")
}

func TestCheckWithoutPassFile(t *testing.T) {
	cfgPath = filepath.Join("..", "..", "..", "configs",
		"sample-config.yaml",
	)
	defer func() { cfgPath = "" }()
	_, err := run(t, "db", "check", "-c", cfgPath)
	require.ErrorContains(t, err, "reading pass-file")
}
