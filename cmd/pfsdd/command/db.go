// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/momeni/pfsdd/pkg/adapter/db/postgres/ddversionrp"
	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/momeni/pfsdd/pkg/core/repo"
	"github.com/momeni/pfsdd/pkg/core/usecase/ddversionuc"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Data dictionary management actions",
	Long: `Data dictionary management actions can be chosen by
sub-commands. The check and log actions only read the data dictionary
using the normal role, while the upgrade action uses the admin role for
creating the bookkeeping tables and persisting the compiled version.`,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare the persisted version with the compiled version",
	Long: `Read the persisted performance_schema data dictionary version
and print its drift from the compiled version and the action which the
configured policy decides. Nothing is modified. The command fails if
the decided action is refuse, so it may be used as a start up check.`,
	RunE: check,
	Args: cobra.NoArgs,
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Persist the compiled version in the data dictionary",
	Long: `Create the bookkeeping tables (if missing), compare the persisted
version with the compiled version, and if the configured policy accepts
their drift, persist the compiled version and record the transition.
All steps run in one transaction. Refused drifts leave the database
intact and fail the command.`,
	RunE: upgrade,
	Args: cobra.NoArgs,
}

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List the latest applied version transitions",
	RunE:  listTransitions,
	Args:  cobra.NoArgs,
}

// withUseCase loads the config file, connects to its database using
// the r role, and passes the ddversion use case to f.
func withUseCase(
	ctx context.Context, r repo.Role,
	f func(*ddversionuc.UseCase) error,
) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := c.ConnectionPool(ctx, r)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	uc, err := c.Usecases.DDVersion.NewUseCase(p, ddversionrp.New())
	if err != nil {
		return fmt.Errorf("creating ddversion use case: %w", err)
	}
	return f(uc)
}

func check(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	return withUseCase(ctx, repo.NormalRole, func(
		uc *ddversionuc.UseCase,
	) error {
		r, err := uc.Check(ctx)
		if err != nil {
			return fmt.Errorf("checking version: %w", err)
		}
		if err = printReport(cmd, r); err != nil {
			return err
		}
		if r.Action == model.ActionRefuse {
			return fmt.Errorf("%s drift is refused", r.Drift)
		}
		return nil
	})
}

func upgrade(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	return withUseCase(ctx, repo.AdminRole, func(
		uc *ddversionuc.UseCase,
	) error {
		r, err := uc.Upgrade(ctx)
		if r != nil {
			if perr := printReport(cmd, r); perr != nil {
				return perr
			}
		}
		if err != nil {
			return fmt.Errorf("upgrading version: %w", err)
		}
		return nil
	})
}

func printReport(cmd *cobra.Command, r *model.Report) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), r)
	}
	persisted, release := "-", "-"
	if r.Persisted != nil {
		persisted = r.Persisted.String()
		if r.PersistedRelease != "" {
			release = r.PersistedRelease
		}
	}
	t := newTable(cmd)
	t.AddHeader("CURRENT", "RELEASE", "PERSISTED", "RELEASE", "DRIFT", "ACTION")
	t.AddLine(
		r.Current, r.CurrentRelease, persisted, release, r.Drift, r.Action,
	)
	t.Print()
	return nil
}

func listTransitions(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	return withUseCase(ctx, repo.NormalRole, func(
		uc *ddversionuc.UseCase,
	) error {
		ts, err := uc.Transitions(ctx, logLimit)
		if err != nil {
			return fmt.Errorf("listing transitions: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), ts)
		}
		t := newTable(cmd)
		t.AddHeader("APPLIED AT", "FROM", "TO", "DRIFT", "ACTION", "ID")
		for _, tr := range ts {
			from := "-"
			if tr.From != nil {
				from = tr.From.String()
			}
			t.AddLine(
				tr.AppliedAt.Format("2006-01-02 15:04:05Z07:00"),
				from, tr.To, tr.Drift, tr.Action, tr.ID,
			)
		}
		t.Print()
		return nil
	})
}

func init() {
	checkCmd.Flags().BoolVar(&jsonOutput, "json", false, "print as JSON")
	upgradeCmd.Flags().BoolVar(&jsonOutput, "json", false, "print as JSON")
	logCmd.Flags().BoolVar(&jsonOutput, "json", false, "print as JSON")
	logCmd.Flags().IntVarP(
		&logLimit, "number", "n", 0,
		"number of transitions (zero selects the configured default)",
	)
	dbCmd.AddCommand(checkCmd, upgradeCmd, logCmd)
	rootCmd.AddCommand(dbCmd)
}
