// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/querydeck/internal/model"
	"github.com/toeirei/querydeck/internal/profile"
	"github.com/toeirei/querydeck/internal/security"
	"golang.org/x/term"
)

func newConnectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Manage saved connection profiles.",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved connections (passwords masked).",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, rec := range store.State().Connections {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %-20s %s\n", rec.ID, rec.Type, rec.Name, rec.ConnectionString)
			}
			return nil
		},
	}

	var addPassword bool
	add := &cobra.Command{
		Use:   "add <name> <dialect> <connection-string>",
		Short: "Save a new connection profile.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			connStr := args[2]
			if addPassword {
				pw, err := promptPassword()
				if err != nil {
					return err
				}
				connStr = insertPassword(connStr, pw)
				pw.Zero()
			}
			rec, err := runner.AddConnection(args[0], args[1], connStr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", rec.Name, rec.ID)
			return nil
		},
	}
	add.Flags().BoolVar(&addPassword, "prompt-password", false, "prompt for the password instead of embedding it in the argument")

	remove := &cobra.Command{
		Use:   "remove <id-or-name>",
		Short: "Delete a saved connection and its history.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := resolveConnection(args[0])
			if err != nil {
				return err
			}
			return runner.RemoveConnection(rec.ID)
		},
	}

	rename := &cobra.Command{
		Use:   "rename <id-or-name> <new-name>",
		Short: "Rename a saved connection.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := resolveConnection(args[0])
			if err != nil {
				return err
			}
			return runner.UpdateConnection(cmd.Context(), rec.ID, args[1], "")
		},
	}

	cmd.AddCommand(list, add, remove, rename)
	return cmd
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables <id-or-name>",
		Short: "List the tables of a saved connection.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := resolveConnection(args[0])
			if err != nil {
				return err
			}
			if err := runner.Connect(cmd.Context(), rec.ID); err != nil {
				return err
			}
			for _, t := range store.State().Tables {
				fmt.Fprintln(cmd.OutOrStdout(), t.String())
			}
			return nil
		},
	}
}

func newQueryCmd() *cobra.Command {
	var timeoutSec int
	cmd := &cobra.Command{
		Use:   "query <id-or-name> <sql>",
		Short: "Run a SQL statement against a saved connection.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := resolveConnection(args[0])
			if err != nil {
				return err
			}
			if err := runner.Connect(cmd.Context(), rec.ID); err != nil {
				return err
			}
			ctx := cmd.Context()
			if timeoutSec > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSec)*time.Second)
				defer cancel()
			}
			res, err := runner.RunQuery(ctx, args[1])
			if err != nil {
				return err
			}
			printResult(cmd, res)
			return nil
		},
	}
	cmd.Flags().IntVar(&timeoutSec, "timeout", 0, "statement timeout in seconds (0 = none)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export <id-or-name> <table>",
		Short: "Export a table as gzip-compressed JSON.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := resolveConnection(args[0])
			if err != nil {
				return err
			}
			if err := runner.Connect(cmd.Context(), rec.ID); err != nil {
				return err
			}
			dir := outDir
			if dir == "" {
				dir = cfg.ExportDir
			}
			if dir == "" {
				dir = "."
			}
			path, err := runner.ExportTableData(cmd.Context(), parseTable(args[1]), dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default: export_dir from config, else .)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the query history, newest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner.LoadHistory()
			for _, item := range store.State().History {
				status := fmt.Sprintf("%d rows", item.RowCount)
				if item.Error != "" {
					status = "error: " + item.Error
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %6dms  %-20s %s\n",
					item.ExecutedAt.Format(time.RFC3339), item.DurationMs, status, item.Query)
			}
			return nil
		},
	}
}

// resolveConnection finds a saved profile by id or, failing that, by
// exact name.
func resolveConnection(idOrName string) (model.ConnectionProfile, error) {
	conns := store.State().Connections
	for _, rec := range conns {
		if rec.ID == idOrName {
			return rec, nil
		}
	}
	for _, rec := range conns {
		if rec.Name == idOrName {
			return rec, nil
		}
	}
	return model.ConnectionProfile{}, fmt.Errorf("%w: %s", profile.ErrNotFound, idOrName)
}

// parseTable splits an optionally schema-qualified table argument.
func parseTable(arg string) model.TableInfo {
	if schema, name, ok := strings.Cut(arg, "."); ok {
		return model.TableInfo{Schema: schema, Name: name}
	}
	return model.TableInfo{Name: arg}
}

// insertPassword adds a prompted password to a connection string that
// was given without one. URL userinfo gets user:pass; anything else
// falls back to the key/value form.
func insertPassword(connStr string, password security.Secret) string {
	if i := strings.Index(connStr, "://"); i >= 0 {
		rest := connStr[i+3:]
		if at := strings.IndexByte(rest, '@'); at >= 0 && !strings.Contains(rest[:at], ":") {
			return connStr[:i+3] + rest[:at] + ":" + password.Reveal() + rest[at:]
		}
	}
	return connStr + " password=" + password.Reveal()
}

func promptPassword() (security.Secret, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return security.Secret(pw), nil
}

func printResult(cmd *cobra.Command, res *model.QueryResult) {
	if res == nil {
		return
	}
	out := cmd.OutOrStdout()
	if len(res.Fields) > 0 {
		fmt.Fprintln(out, strings.Join(res.Fields, "\t"))
	}
	for _, row := range res.Rows {
		cells := make([]string, len(res.Fields))
		for i, f := range res.Fields {
			cells[i] = fmt.Sprintf("%v", row[f])
		}
		fmt.Fprintln(out, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(out, "(%d rows)\n", res.RowCount)
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
