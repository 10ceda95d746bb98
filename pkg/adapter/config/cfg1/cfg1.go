// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cfg1 makes it possible to load configuration settings with
// version 1.x.y since all minor and patch versions (which are known)
// with the same major version, can be loaded with one implementation.
package cfg1

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/momeni/pfsdd/pkg/adapter/config/settings"
	"github.com/momeni/pfsdd/pkg/adapter/config/vers"
	"github.com/momeni/pfsdd/pkg/adapter/db/postgres"
	"github.com/momeni/pfsdd/pkg/adapter/restful/gin"
	"github.com/momeni/pfsdd/pkg/core/log"
	"github.com/momeni/pfsdd/pkg/core/model"
	"github.com/momeni/pfsdd/pkg/core/repo"
	"github.com/momeni/pfsdd/pkg/core/usecase/ddversionuc"
	"gopkg.in/yaml.v3"
)

// These constants define the major, minor, and patch version of the
// configuration settings which are supported by the Config struct.
const (
	Major = 1
	Minor = 0
	Patch = 0
)

// Version is the semantic version of Config struct.
var Version = model.SemVer{Major, Minor, Patch}

// These constants are the defaults of the missing optional settings.
const (
	DefaultAddress        = "127.0.0.1:8080"
	DefaultConnectTimeout = settings.Duration(10 * time.Second)
)

// Config contains all settings which are required by different parts
// of the project. Its fields only use types which are defined in this
// package (or primitive types), so the configuration format can be kept
// intact while other layers change freely.
type Config struct {
	Database Database // PostgreSQL database connection settings
	Gin      Gin      // Gin-Gonic instantiation settings
	Logger   Logger   // default slog.Logger settings
	Usecases Usecases // Configuration settings for supported use cases

	// Vers contains the configuration file version.
	Vers vers.Config `yaml:",inline"`
}

// Database contains the database related configuration settings.
// The Host, Port, and Name identify the database and the pgpass lines
// of its roles are looked up in the PassDir directory.
type Database struct {
	Host    string `validate:"required"`
	Port    int    `validate:"required,min=1,max=65535"`
	Name    string `validate:"required"`
	PassDir string `yaml:"pass-dir" validate:"required"`

	// RoleSuffix specifies a possibly empty suffix for the database
	// role names. Normally, repo.AdminRole and repo.NormalRole roles
	// are used. It allows multiple deployments (or parallel tests) to
	// share a database cluster with non-colliding roles.
	RoleSuffix repo.Role `yaml:"role-suffix,omitempty"`

	// ConnectTimeout bounds the time which may be spent for
	// establishing and testing the first connection of a pool.
	ConnectTimeout *settings.Duration `yaml:"connect-timeout,omitempty"`
}

// ConnectionPool creates a database connection pool for the r role
// using the connection information which are kept in c.
func (c *Config) ConnectionPool(
	ctx context.Context, r repo.Role,
) (*postgres.Pool, error) {
	p, err := c.Database.ConnectionPool(ctx, r)
	if err != nil {
		return nil, fmt.Errorf(
			"connecting to %s as %q: %w", c.Database.URLHost(), r, err,
		)
	}
	return p, nil
}

// ConnectionPool creates a database connection pool using the
// connection information which are kept in the `d` settings.
// Initially, the .pgpass file in the d.PassDir folder is checked
// which should conform with the pgpass format with lines like this:
//
//	host:port:dbname:role:password
//
// If a database connection could be established, created pool and nil
// error will be returned. Otherwise, passwords might have been rotated
// by the database administrators and the new passwords may be found in
// the .pgpass.new file in the same d.PassDir folder. If a connection
// could be established using it, the .pgpass.new will be moved to the
// .pgpass file.
//
// The `d.RoleSuffix` will be appended to the given `r` role name too.
func (d Database) ConnectionPool(
	ctx context.Context, r repo.Role,
) (*postgres.Pool, error) {
	if d.ConnectTimeout != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(
			ctx, time.Duration(*d.ConnectTimeout),
		)
		defer cancel()
	}
	path := filepath.Join(d.PassDir, ".pgpass")
	u, err := d.ConnectionURL(r, path)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", path, err)
	}
	p, err := postgres.NewPool(ctx, u)
	if err == nil {
		return p, nil
	}
	newPath := filepath.Join(d.PassDir, ".pgpass.new")
	log.Warn(
		ctx, "failed to connect, trying the new pass-file",
		slog.String("path", path), log.Err("err", err),
		slog.String("new-path", newPath),
	)
	u, err = d.ConnectionURL(r, newPath)
	if err != nil {
		return nil, fmt.Errorf("using %q pass-file: %w", newPath, err)
	}
	p, err = postgres.NewPool(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("can use neither pass-file: %w", err)
	}
	if err = os.Rename(newPath, path); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("os.Rename: %w", err)
	}
	return p, nil
}

// ConnectionURL returns the database connection URL embedding the host,
// port, role name, database name, and password value. These items are
// directly taken from the `d` settings, but the role name which is
// specified by the `r` argument (and suffixed by d.RoleSuffix) and the
// password value which is read from the given `path` file.
// The `path` file may contain empty or `#`-commented lines in addition
// to the pgpass formatted lines.
func (d Database) ConnectionURL(
	r repo.Role, path string,
) (string, error) {
	passLines, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading pass-file: %w", err)
	}
	r = r + d.RoleSuffix
	prfx := fmt.Sprintf("%s:%d:%s:%s:", d.Host, d.Port, d.Name, r)
	var pass string
	for _, line := range strings.Split(string(passLines), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, prfx) {
			pass = line[len(prfx):]
			break
		}
	}
	if pass == "" {
		return "", fmt.Errorf("no matching password line for %q", r)
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(string(r), pass),
		Host:   d.URLHost(),
		Path:   d.Name,
	}
	return u.String(), nil
}

// URLHost returns the host:port address of the database server.
func (d Database) URLHost() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// Gin contains the gin-gonic related configuration settings.
// Fields are defined as pointers, so missing items can be detected
// and filled with their default values.
type Gin struct {
	Logger   *bool // Whether to register the gin.Logger() middleware
	Recovery *bool // Whether to register the gin.Recovery() middleware

	// Address is the host:port which the REST server listens on.
	Address string `validate:"omitempty,hostname_port"`
}

// NewEngine instantiates a new gin-gonic engine instance based on
// the `g` settings.
func (g Gin) NewEngine() *gin.Engine {
	middlewares := make([]gin.HandlerFunc, 0, 2)
	if *g.Logger {
		middlewares = append(middlewares, gin.Logger())
	}
	if *g.Recovery {
		middlewares = append(middlewares, gin.Recovery())
	}
	return gin.New(middlewares...)
}

// Logger contains the structured logging settings.
type Logger struct {
	Level  string `validate:"omitempty,oneof=debug info warn error"`
	Format string `validate:"omitempty,oneof=text json"`
}

// Setup configures the default slog.Logger so it writes to w.
func (l Logger) Setup(w io.Writer) error {
	return log.Setup(w, l.Level, l.Format)
}

// Usecases contains the configuration settings for all use cases.
type Usecases struct {
	DDVersion DDVersion `yaml:"ddversion"` // data dictionary use cases
}

// DDVersion contains the configuration settings of the data dictionary
// version use cases. Missing items take the use cases defaults.
type DDVersion struct {
	// AllowDowngrade permits replacing a persisted version which was
	// published after the compiled version.
	AllowDowngrade *bool `yaml:"allow-downgrade,omitempty"`

	// AllowUnknown permits replacing a persisted version which is not
	// registered, e.g., a version which was written by a fork.
	AllowUnknown *bool `yaml:"allow-unknown,omitempty"`

	// TransitionsLimit is the number of transitions which are listed
	// when the client does not ask for a specific limit.
	TransitionsLimit *int `yaml:"transitions-limit,omitempty"`
}

// NewUseCase instantiates a new data dictionary version use case based
// on the settings in the `d` struct.
func (d DDVersion) NewUseCase(
	p repo.Pool, r repo.DDVersion,
) (*ddversionuc.UseCase, error) {
	opts := make([]ddversionuc.Option, 0, 3)
	if d.AllowDowngrade != nil {
		opts = append(opts, ddversionuc.WithDowngrade(*d.AllowDowngrade))
	}
	if d.AllowUnknown != nil {
		opts = append(opts, ddversionuc.WithUnknown(*d.AllowUnknown))
	}
	if d.TransitionsLimit != nil {
		opts = append(
			opts, ddversionuc.WithDefaultLimit(*d.TransitionsLimit),
		)
	}
	return ddversionuc.New(p, r, opts...)
}

// Load unmarshals the data byte slice and loads a Config instance
// assuming that it contains the Config settings. Extra items in the
// data will be ignored and missing items will take their default
// values. Thereafter, loaded Config will be validated and normalized.
func Load(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if err := c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings and
// returns an error if they were not acceptable. It also replaces the
// missing optional items with their default values.
func (c *Config) ValidateAndNormalize() error {
	if err := c.Vers.Validate(Major, Minor); err != nil {
		return fmt.Errorf(
			"expecting version v%d.%d: %w", Major, Minor, err,
		)
	}
	settings.Default(&c.Gin.Logger, false)
	settings.Default(&c.Gin.Recovery, true)
	if c.Gin.Address == "" {
		c.Gin.Address = DefaultAddress
	}
	settings.Default(&c.Database.ConnectTimeout, DefaultConnectTimeout)
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if *c.Database.ConnectTimeout <= 0 {
		return fmt.Errorf(
			"non-positive connect-timeout: %s", *c.Database.ConnectTimeout,
		)
	}
	if err := settings.VerifyRange(
		"transitions-limit", c.Usecases.DDVersion.TransitionsLimit,
		1, ddversionuc.MaxTransitionsLimit,
	); err != nil {
		return err
	}
	return nil
}

// Version returns the semantic version of this Config struct format.
func (c *Config) Version() model.SemVer {
	return Version
}
