package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/controlplane-com/questions-sqlgen/pkg/config"
	"github.com/controlplane-com/questions-sqlgen/pkg/convert"
	"github.com/controlplane-com/questions-sqlgen/pkg/loader"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// app holds state shared by the commands of one invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	open   func(ctx context.Context, dsn string) (*loader.Loader, error)
}

func newApp() *app {
	return &app{open: loader.Open}
}

func (a *app) options() convert.Options {
	return convert.Options{
		Table:     a.cfg.Table,
		Column:    a.cfg.Column,
		BatchSize: a.cfg.BatchSize,
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "questions-sqlgen",
		Short: "Generate a questions INSERT statement from a CSV file",
		Long: `questions-sqlgen reads questions.csv, escapes the first column of every row
and writes a single INSERT INTO questions (question) statement to questions.sql.

Paths, table, column and batching can be changed with flags, QSQL_* environment
variables or a questions-sqlgen.yaml file.`,
		Version: version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}

			flags := cmd.Root().PersistentFlags()
			cfgFile, _ := flags.GetString("config")
			cfg, err := config.Load(cfgFile, flags)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			slog.SetDefault(a.logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := convert.ConvertFile(a.cfg.Input, a.cfg.Output, a.options(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			a.logger.Debug("generated SQL",
				"input", a.cfg.Input, "output", a.cfg.Output,
				"rows", res.Rows, "statements", res.Statements)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("questions-sqlgen version {{.Version}}\n")
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newLoadCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newLogger builds the stderr text logger, tagged with a per-run ID.
func newLogger(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler).With("run_id", uuid.NewString())
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.cfg.WriteYAML(cmd.OutOrStdout())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "questions-sqlgen version %s\n", version)
		},
	}
}
