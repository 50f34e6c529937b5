package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"inspire-orcid/internal/db"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}

			conn, err := db.NewPostgres(cfg.DB, opts.Log)
			if err != nil {
				return err
			}
			defer db.Close(conn)

			applied, err := db.Migrate(conn, opts.Log)
			if err != nil {
				return err
			}

			line := "no pending migrations"
			if len(applied) > 0 {
				line = fmt.Sprintf("applied %d migrations: %s", len(applied), strings.Join(applied, ", "))
			}
			return printResult(cmd.OutOrStdout(), opts.Format, map[string]interface{}{"applied": applied}, line)
		},
	}
}
