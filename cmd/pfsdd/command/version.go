// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"fmt"
	"strings"

	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/spf13/cobra"
)

var jsonOutput bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the compiled data dictionary version",
	Long: `Print the performance_schema data dictionary version which is
compiled in this binary, its decoded release, and the changes which it
introduced. No configuration file or database is needed.`,
	RunE: printVersion,
	Args: cobra.NoArgs,
}

func printVersion(cmd *cobra.Command, _ []string) error {
	e, ok := model.Lookup(model.PFSDDVersion)
	if !ok {
		return model.UnregisteredError(model.PFSDDVersion)
	}
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), e)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d (%s)\n", e.Version, e.Release())
	fmt.Fprintf(w, "published by %s (%s)\n", e.PublishedBy, e.Status)
	for _, c := range e.Changes {
		fmt.Fprintf(w, "  - %s\n", c)
	}
	return nil
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List all registered data dictionary versions",
	Long: `List all registered performance_schema data dictionary
versions in their publication order. This order is used for detecting
upgrades and downgrades, since the numeric order of versions is not
reliable (e.g., 800171 was published before 80018).`,
	RunE: printHistory,
	Args: cobra.NoArgs,
}

func printHistory(cmd *cobra.Command, _ []string) error {
	h := model.History()
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), h)
	}
	t := newTable(cmd)
	t.AddHeader("#", "VERSION", "RELEASE", "PUBLISHED BY", "STATUS", "CHANGES")
	for i, e := range h {
		t.AddLine(
			i, e.Version, e.Release(), e.PublishedBy, e.Status,
			strings.Join(e.Changes, "; "),
		)
	}
	t.Print()
	return nil
}

func init() {
	for _, c := range []*cobra.Command{versionCmd, historyCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "print as JSON")
		rootCmd.AddCommand(c)
	}
}
