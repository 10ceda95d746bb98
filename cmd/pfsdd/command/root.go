// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands for the pfsdd
// project. Commands are organized using the cobra library.
// The root command starts the REST server while other sub-commands
// inspect the compiled performance_schema data dictionary version
// offline or compare it with the version which is persisted in the
// database.
//
//	./pfsdd [-c /path/of/config.yaml]        # start REST server
//	./pfsdd version [--json]
//	./pfsdd history [--json]
//	./pfsdd decode 80023022 8.0.17-1 ...
//	./pfsdd compare 800171 80018
//	./pfsdd db check [--json] [-c /path/of/config.yaml]
//	./pfsdd db upgrade [-c /path/of/config.yaml]
//	./pfsdd db log [-n 20] [--json] [-c /path/of/config.yaml]
package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/cheynewallace/tabby"
	"github.com/goccy/go-json"
	"github.com/momeni/pfsdd/pkg/adapter/config"
	"github.com/momeni/pfsdd/pkg/adapter/config/cfg1"
	"github.com/momeni/pfsdd/pkg/adapter/restful/gin"
	"github.com/momeni/pfsdd/pkg/adapter/restful/gin/routes"
	"github.com/momeni/pfsdd/pkg/core/log"
	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/momeni/pfsdd/pkg/core/repo"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "pfsdd",
	Short: "Performance schema data dictionary version inspector",
	Long: `Performance schema data dictionary version inspector which
knows the compiled performance_schema version (80023022, i.e., 8.0.23
vendor schema change no. 22) and the history of all published versions.
It can decode version numbers, order them by their publication history
(which differs from their numeric order), and compare the compiled one
with the version which is persisted in a PostgreSQL hosted data
dictionary, deciding whether the catalog may be upgraded.
Without a sub-command, it serves the same information as REST APIs.`,
	RunE: startWebServer,
	Args: cobra.NoArgs,
}

func startWebServer(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	c, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := c.ConnectionPool(ctx, repo.NormalRole)
	if err != nil {
		return fmt.Errorf("creating DB pool: %w", err)
	}
	defer p.Close()
	gin.SetMode(gin.ReleaseMode)
	var e *gin.Engine = c.Gin.NewEngine()
	if err = routes.Register(e, p, c); err != nil {
		return fmt.Errorf("registering routes: %w", err)
	}
	log.Info(
		ctx, "starting REST server",
		slog.String("address", c.Gin.Address),
		log.Version("ddversion", model.PFSDDVersion),
	)
	if err = e.Run(c.Gin.Address); err != nil {
		return fmt.Errorf("running Gin engine: %w", err)
	}
	return nil
}

// loadConfig loads the cfgPath config file and configures the default
// logger based on it.
func loadConfig() (*cfg1.Config, error) {
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	if err = c.Logger.Setup(os.Stderr); err != nil {
		return nil, fmt.Errorf("setting up logger: %w", err)
	}
	return c, nil
}

// newTable creates a tabby table which writes to the cmd output.
func newTable(cmd *cobra.Command) *tabby.Tabby {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	return tabby.NewCustom(w)
}

// printJSON writes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// Execute runs the rootCmd which in turn parses CLI arguments and
// flags and runs the most specific cobra command. The exit code is
// zero for success and one for all failures.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		// the default path should usually be in the /etc directory
		cfgPath = "configs/sample-config.yaml"
	}
}
