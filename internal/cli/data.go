package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/store"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Candle data management",
	}

	var timeframe string

	importCmd := &cobra.Command{
		Use:   "import <symbol> <csv-file>",
		Short: "Import candle history from a CSV file",
		Long: `Import candle history into the local store.

The CSV layout is timestamp,open,high,low,close,volume[,spread]; timestamps
may be unix seconds or RFC 3339. A header row is detected and skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return errs.ErrDatabaseError
			}
			symbol, path := args[0], args[1]

			candles, err := store.LoadCandlesCSV(path)
			if err != nil {
				return err
			}
			if err := app.Store.SaveCandles(cmd.Context(), symbol, timeframe, candles); err != nil {
				return err
			}

			app.Logger.Info().
				Str("symbol", symbol).
				Str("timeframe", timeframe).
				Int("count", len(candles)).
				Msg("Candles imported")
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d candles for %s %s\n", len(candles), symbol, timeframe)
			return nil
		},
	}
	importCmd.Flags().StringVar(&timeframe, "timeframe", "1h", "candle timeframe label")

	rangeCmd := &cobra.Command{
		Use:   "range <symbol>",
		Short: "Show the stored candle range for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Store == nil {
				return errs.ErrDatabaseError
			}
			first, last, err := app.Store.CandleRange(cmd.Context(), args[0], timeframe)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s .. %s\n", args[0], timeframe,
				first.Format("2006-01-02 15:04"), last.Format("2006-01-02 15:04"))
			return nil
		},
	}
	rangeCmd.Flags().StringVar(&timeframe, "timeframe", "1h", "candle timeframe label")

	cmd.AddCommand(importCmd)
	cmd.AddCommand(rangeCmd)
	return cmd
}
