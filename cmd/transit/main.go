// Command transit is a thin CLI front end over package session: run a DSL
// script file (or stdin) against an in-memory or file-backed store and
// print each search's result set. No pack repo's retrieved source
// demonstrates `cobra` usage directly (it surfaces only in go.mod
// dependency graphs), so this follows cobra's own documented
// Command/RunE convention.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/transitdb/transit/config"
	"github.com/transitdb/transit/logging"
)

func main() {
	root, code := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(int(*code))
}

// newRootCmd builds the root command. The returned *exitCode is written by
// the "run" subcommand once it has executed a script (a query failure is
// reported through this out-of-band code, for differentiated exit
// statuses, rather than through cobra's own RunE error, which would
// collapse every failure to exit 1).
func newRootCmd() (*cobra.Command, *exitCode) {
	var configPath string
	code := exitOK

	root := &cobra.Command{
		Use:   "transit",
		Short: "transit is a bitemporal proposition store with a query/mutation DSL",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (TOML/YAML/JSON)")

	root.AddCommand(newRunCmd(&configPath, &code))
	return root, &code
}

func newRunCmd(configPath *string, code *exitCode) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "run [script-file]",
		Short: "execute a DSL script file (or stdin, with '-' or no argument) against a store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DB = dbPath
			}

			log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			script, err := readScript(args)
			if err != nil {
				return err
			}

			*code = runScript(cmd, cfg, log, script)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "persistence target: a file path, or \":memory:\" (default from config)")
	return cmd
}

func readScript(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := os.ReadFile("/dev/stdin")
		if err != nil {
			return "", fmt.Errorf("reading script from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading script file %s: %w", args[0], err)
	}
	return string(data), nil
}
