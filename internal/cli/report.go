package cli

import (
	"github.com/spf13/cobra"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/report"
)

func newReportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report <run-id>",
		Short: "Print the performance report of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return errs.ErrDatabaseError
			}
			stats, err := app.Store.GetStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return report.Generate(cmd.OutOrStdout(), stats)
		},
	}
}
