// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"errors"
	"fmt"

	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/momeni/pfsdd/pkg/core/usecase/ddversionuc"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode VALUE...",
	Short: "Decode data dictionary version numbers or releases",
	Long: `Decode each VALUE which may be a version number like 80023022
or a release like 8.0.23-022 and print its number, release, and history
entry (if it is registered). All values are printed, but the command
fails if any of them cannot be decoded.`,
	RunE: decode,
	Args: cobra.MinimumNArgs(1),
}

func decode(cmd *cobra.Command, args []string) error {
	t := newTable(cmd)
	t.AddHeader("INPUT", "VERSION", "RELEASE", "PUBLISHED BY", "STATUS")
	var errs []error
	for _, a := range args {
		d, err := ddversionuc.Describe(a)
		if err != nil {
			t.AddLine(a, "-", "-", "-", "invalid")
			errs = append(errs, fmt.Errorf("decoding %q: %w", a, err))
			continue
		}
		by, status := "-", "unregistered"
		if d.Entry != nil {
			by, status = d.Entry.PublishedBy, string(d.Entry.Status)
		}
		t.AddLine(a, d.Version, d.Display, by, status)
	}
	t.Print()
	return errors.Join(errs...)
}

var compareCmd = &cobra.Command{
	Use:   "compare A B",
	Short: "Order two data dictionary versions by publication",
	Long: `Compare two registered data dictionary versions (numbers or
releases) and print which one was published first. This is the order
which is used for detecting upgrades, and it differs from the numeric
order, e.g., 800171 (8.0.17) precedes 80018 (8.0.18).`,
	RunE: compare,
	Args: cobra.ExactArgs(2),
}

func compare(cmd *cobra.Command, args []string) error {
	var vs [2]model.DDVersion
	for i, a := range args {
		v, err := model.ParseDDVersion(a)
		if err != nil {
			return fmt.Errorf("decoding %q: %w", a, err)
		}
		vs[i] = v
	}
	a, b := vs[0], vs[1]
	rel := "is the same as"
	if a != b {
		before, err := model.Precedes(a, b)
		if err != nil {
			return err
		}
		rel = "was published after"
		if before {
			rel = "was published before"
		}
	}
	fmt.Fprintf(
		cmd.OutOrStdout(), "%d (%s) %s %d (%s)\n",
		a, a.Release(), rel, b, b.Release(),
	)
	return nil
}

func init() {
	rootCmd.AddCommand(decodeCmd, compareCmd)
}
