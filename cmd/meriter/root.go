// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meriter/meriter/internal/config"
	"github.com/meriter/meriter/internal/decision"
	"github.com/meriter/meriter/internal/decision/facts"
	"github.com/meriter/meriter/internal/fixture"
	"github.com/meriter/meriter/internal/logging"
	"github.com/meriter/meriter/internal/store"
	"github.com/meriter/meriter/internal/xdg"
)

// app holds state shared by every subcommand once flags are parsed.
type app struct {
	configFile string
	cfg        config.Config
	logger     *slog.Logger
	deps       *Deps
}

// NewRootCmd creates the root command for the meriter CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults(), logger: slog.Default()}

	cmd := &cobra.Command{
		Use:   "meriter",
		Short: "Meriter permission and currency decision engine",
		Long: `Meriter decides whether a user may act in a community and which
merit currency the action draws on. This tool inspects rule tables and
evaluates decisions against YAML fixtures or the platform database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/meriter/config.yaml)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newRulesCmd(a))
	cmd.AddCommand(newCheckCmd(a))
	cmd.AddCommand(newValidateFixtureCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newInvalidateCmd(a))

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	path := a.configFile
	if path == "" {
		var err error
		if path, err = xdg.ConfigFile(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(logging.Options{
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	})
	return nil
}

// factSource loads facts from fixturePath when set, otherwise from the
// configured database. The returned func releases the source.
func (a *app) factSource(ctx context.Context, fixturePath string) (facts.Sources, facts.Options, func(), error) {
	if fixturePath != "" {
		f, err := fixture.LoadFile(fixturePath)
		if err != nil {
			return facts.Sources{}, facts.Options{}, nil, err
		}
		opts := f.FactsOptions()
		opts.CommentVotingEnabled = opts.CommentVotingEnabled || a.cfg.Engine.CommentVotingEnabled
		opts.Logger = a.logger
		a.logger.DebugContext(ctx, "loaded fixture", "path", fixturePath, "name", f.Name)
		return f.Store.Sources(), opts, func() {}, nil
	}

	if a.cfg.Database.URL == "" {
		return facts.Sources{}, facts.Options{}, nil, oops.Code(config.ErrCodeInvalid).
			Errorf("either --fixture or a database url ($%s) is required", config.DatabaseURLEnv)
	}
	pool, err := a.deps.ConnectDB(ctx, a.cfg.Database.URL, a.cfg.Database.ConnectTimeout, a.logger)
	if err != nil {
		return facts.Sources{}, facts.Options{}, nil, err
	}
	opts := facts.Options{CommentVotingEnabled: a.cfg.Engine.CommentVotingEnabled, Logger: a.logger}
	return store.NewFactStore(pool).Sources(), opts, pool.Close, nil
}

func (a *app) newEngine(src facts.Sources, opts facts.Options) *decision.Engine {
	return decision.NewEngine(src, opts,
		decision.WithLogger(a.logger),
		decision.WithBatchConcurrency(a.cfg.Engine.BatchConcurrency),
	)
}

// writeYAML encodes v as a YAML document on the command's output.
func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return oops.In("cli").Wrapf(err, "encode output")
	}
	if err := enc.Close(); err != nil {
		return oops.In("cli").Wrapf(err, "flush output")
	}
	return nil
}
