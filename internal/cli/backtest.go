package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"neat-trader/internal/engine"
	errs "neat-trader/internal/errors"
	"neat-trader/internal/indicators"
	"neat-trader/internal/models"
	"neat-trader/internal/report"
	"neat-trader/internal/store"
	"neat-trader/internal/trading"
)

func newBacktestCmd(app *App) *cobra.Command {
	var (
		csvPath   string
		timeframe string
		runID     string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a backtest over stored or CSV candle history",
		Long: `Run the configured strategy parameters over historical candles.

Candles come from the local store for the configured symbol, or from a CSV
file when --csv is given. The built-in crossover baseline supplies the
decisions; results are printed as a performance report and, when --run-id
is set, persisted to the store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			candles, err := loadHistory(cmd, app, csvPath, timeframe)
			if err != nil {
				return err
			}

			inds, err := configuredIndicators(app)
			if err != nil {
				return err
			}
			kinds, err := app.Config.PositionInfoKinds()
			if err != nil {
				return err
			}

			actions := trading.EnabledActions(
				app.Config.Trader.CanOpenLong,
				app.Config.Trader.CanOpenShort,
				app.Config.Trader.CanClose,
			)
			decider := engine.NewCrossoverDecider(actions, sideScalarIndex(len(inds), kinds))
			trader, err := buildTrader(app, decider)
			if err != nil {
				return err
			}

			pool := engine.NewWorkerPool(workers)
			pool.Start()
			defer pool.Stop()

			runner := engine.NewRunner(pool, app.Logger, inds, kinds, 1)

			start := time.Now()
			results := runner.Run(cmd.Context(), candles, []*trading.Trader{trader})
			res := results[0]
			if res.Err != nil {
				return res.Err
			}

			app.Logger.Info().
				Int("candles", len(candles)).
				Int("trades", res.Stats.TotalTrades).
				Dur("elapsed", time.Since(start)).
				Msg("Backtest finished")

			if err := report.Generate(cmd.OutOrStdout(), res.Stats); err != nil {
				return err
			}

			if runID != "" && app.Store != nil {
				ctx := cmd.Context()
				if err := app.Store.SaveTrades(ctx, runID, res.Trader.Trades()); err != nil {
					return err
				}
				if err := app.Store.SaveStats(ctx, runID, res.Stats); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %q saved\n", runID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "load candles from a CSV file instead of the store")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1h", "candle timeframe label")
	cmd.Flags().StringVar(&runID, "run-id", "", "persist trades and stats under this run id")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker pool size (0 = number of CPUs)")

	return cmd
}

func loadHistory(cmd *cobra.Command, app *App, csvPath, timeframe string) ([]models.Candle, error) {
	if csvPath != "" {
		return store.LoadCandlesCSV(csvPath)
	}
	if app.Store == nil {
		return nil, errs.ErrDatabaseError
	}
	symbol := app.Config.Trader.Symbol
	first, last, err := app.Store.CandleRange(cmd.Context(), symbol, timeframe)
	if err != nil {
		return nil, err
	}
	return app.Store.GetCandles(cmd.Context(), symbol, timeframe, first, last)
}

// configuredIndicators builds the vision indicators; with nothing
// configured the crossover baseline gets a fast and a slow moving average.
func configuredIndicators(app *App) ([]indicators.Indicator, error) {
	if len(app.Config.Indicators) == 0 {
		fast, err := indicators.New("SMA", 10)
		if err != nil {
			return nil, err
		}
		slow, err := indicators.New("SMA", 50)
		if err != nil {
			return nil, err
		}
		return []indicators.Indicator{fast, slow}, nil
	}

	inds := make([]indicators.Indicator, 0, len(app.Config.Indicators))
	for _, ic := range app.Config.Indicators {
		ind, err := indicators.New(ic.Name, ic.Period)
		if err != nil {
			return nil, err
		}
		inds = append(inds, ind)
	}
	return inds, nil
}

// sideScalarIndex locates the side scalar inside the vision vector, or -1.
func sideScalarIndex(indicatorCount int, kinds []models.PositionInfoKind) int {
	for i, k := range kinds {
		if k == models.PositionInfoSide {
			return indicatorCount + i
		}
	}
	return -1
}

func buildTrader(app *App, decider trading.DecisionProvider) (*trading.Trader, error) {
	cfg := app.Config

	symbol, err := models.LookupSymbol(cfg.Trader.Symbol)
	if err != nil {
		return nil, err
	}
	schedule, err := cfg.Schedule.ToModel()
	if err != nil {
		return nil, err
	}
	tpsl, err := cfg.TakeProfitStopLoss()
	if err != nil {
		return nil, err
	}
	trailing, err := cfg.TrailingStopLoss()
	if err != nil {
		return nil, err
	}

	return trading.NewTrader(trading.Params{
		Symbol:                  symbol,
		Schedule:                schedule,
		TakeProfitStopLoss:      tpsl,
		Trailing:                trailing,
		InitialBalance:          cfg.Trader.InitialBalance,
		Leverage:                cfg.Trader.Leverage,
		RiskPercent:             cfg.Trader.RiskPercent,
		MaxSpread:               cfg.Trader.MaxSpread,
		Cooldown:                cfg.Trader.Cooldown,
		MinHold:                 cfg.Trader.MinHold,
		MaxTradeDuration:        cfg.Trader.MaxTradeDuration,
		BadTraderThreshold:      cfg.Trader.BadTraderThreshold,
		InactiveTraderThreshold: cfg.Trader.InactiveTraderThreshold,
		MaxDailyTrades:          cfg.Trader.MaxDailyTrades,
		CanOpenLong:             cfg.Trader.CanOpenLong,
		CanOpenShort:            cfg.Trader.CanOpenShort,
		CanClose:                cfg.Trader.CanClose,
	}, decider, app.Logger)
}
