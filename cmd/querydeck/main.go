// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for querydeck using the
// Cobra library. It defines the root command, subcommands for managing
// saved connections and running queries, and the main entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/toeirei/querydeck/internal/config"
	"github.com/toeirei/querydeck/internal/db"
	"github.com/toeirei/querydeck/internal/effects"
	"github.com/toeirei/querydeck/internal/history"
	"github.com/toeirei/querydeck/internal/keystore"
	"github.com/toeirei/querydeck/internal/logging"
	"github.com/toeirei/querydeck/internal/profile"
	"github.com/toeirei/querydeck/internal/state"
)

var version = "dev" // this will be set by the linker

var (
	cfgFile string
	cfg     config.Config
	runner  *effects.Runner
	store   *state.Store
)

// main is the entry point of the application.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

// newRootCmd creates and configures a new root cobra command. Tests
// create fresh instances for isolation.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "querydeck",
		Short: "querydeck is a terminal browser for PostgreSQL, MySQL and SQLite.",
		Long: `querydeck keeps your saved database connections in one encrypted
profile store and gives every engine the same query surface. Passwords
never touch disk in cleartext; profile writes are debounced; the query
history is capped and searchable.`,
		SilenceUsage:      true,
		PersistentPreRunE: initRuntime,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if runner != nil {
				runner.Shutdown()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newConnectionsCmd())
	cmd.AddCommand(newTablesCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newHistoryCmd())

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <data-dir>/querydeck.yaml)")
	cmd.PersistentFlags().String("data-dir", "", "data directory for profiles, key and history")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging and query tracing")
	cmd.PersistentFlags().String("log-file", "", "write logs to a rotated file instead of stderr")

	return cmd
}

// initRuntime loads configuration and wires the stores and effect
// runner. It runs before every subcommand.
func initRuntime(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cmd.Root(), cfgFile)
	if err != nil {
		return err
	}
	if v, _ := cmd.Root().PersistentFlags().GetString("data-dir"); v != "" {
		c.DataDir = v
	}
	if v, _ := cmd.Root().PersistentFlags().GetBool("debug"); v {
		c.Debug = true
	}
	if v, _ := cmd.Root().PersistentFlags().GetString("log-file"); v != "" {
		c.LogFile = v
	}
	cfg = c

	logging.SetDebug(cfg.Debug)
	if cfg.LogFile != "" {
		logging.UseFile(cfg.LogFile)
	}

	keys := keystore.New(cfg.KeyPath())
	profiles := profile.NewStore(cfg.ProfilesPath(), keys, cfg.DebounceDelay())
	hist := history.NewStore(cfg.HistoryPath(), cfg.DebounceDelay())
	factory := db.NewFactory(db.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: secondsToDuration(cfg.Database.ConnMaxLifetimeSeconds),
		CloseGrace:      secondsToDuration(cfg.Database.CloseGraceSeconds),
		Debug:           cfg.Debug,
	})

	store = state.NewStore()
	runner = effects.NewRunner(store, factory, profiles, hist)
	return runner.LoadConnections()
}
