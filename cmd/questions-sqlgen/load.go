package main

import (
	"fmt"

	"github.com/controlplane-com/questions-sqlgen/pkg/convert"
	"github.com/spf13/cobra"
)

func newLoadCmd(a *app) *cobra.Command {
	var createTable bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Insert the questions from the CSV file into MySQL",
		Long: `Parses the CSV file exactly like the default command, then executes the
generated statements against MySQL in one transaction.

Connection settings come from the database section of the config file or the
RDS_HOSTNAME, RDS_PORT, RDS_USERNAME, RDS_PASSWORD and RDS_DATABASE variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			rows, err := convert.ReadFile(a.cfg.Input)
			if err != nil {
				return err
			}
			stmts, err := convert.Statements(rows, a.options())
			if err != nil {
				return &convert.InputError{Path: a.cfg.Input, Err: err}
			}
			_, _ = fmt.Fprintf(out, "Parsed %d questions\n", len(rows))

			// An empty VALUES list is not executable
			if len(rows) == 0 {
				_, _ = fmt.Fprintln(out, "Nothing to load")
				return nil
			}

			l, err := a.open(ctx, a.cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", a.cfg.Database.Name, err)
			}
			defer func() {
				_ = l.Close()
			}()

			if createTable {
				if err := l.EnsureTable(ctx, a.cfg.Table, a.cfg.Column); err != nil {
					return err
				}
			}

			n, err := l.Load(ctx, stmts)
			if err != nil {
				return fmt.Errorf("loading questions: %w", err)
			}

			a.logger.Info("loaded questions", "table", a.cfg.Table, "rows", n, "statements", len(stmts))
			_, _ = fmt.Fprintf(out, "Loaded %d questions into %s\n", n, a.cfg.Table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&createTable, "create-table", false, "Create the table if it does not exist")

	return cmd
}
