// Package config provides configuration management for the simulation engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	errs "neat-trader/internal/errors"
	"neat-trader/internal/models"
)

// Config holds all engine configuration.
type Config struct {
	Trader     TraderConfig      `mapstructure:"trader"`
	TakeProfit DistanceConfig    `mapstructure:"take_profit"`
	StopLoss   DistanceConfig    `mapstructure:"stop_loss"`
	Trailing   TrailingConfig    `mapstructure:"trailing"`
	Schedule   ScheduleConfig    `mapstructure:"schedule"`
	Indicators []IndicatorConfig `mapstructure:"indicators"`
}

// TraderConfig holds the per-trader simulation parameters.
type TraderConfig struct {
	Symbol                  string  `mapstructure:"symbol"`
	InitialBalance          float64 `mapstructure:"initial_balance"`
	Leverage                float64 `mapstructure:"leverage"`
	RiskPercent             float64 `mapstructure:"risk_percent"`
	MaxSpread               float64 `mapstructure:"max_spread"` // points; 0 disables the gate
	Cooldown                int     `mapstructure:"cooldown"`   // steps since last trade before a new entry
	MinHold                 int     `mapstructure:"min_hold"`   // steps a position must age before a close decision is honored
	MaxTradeDuration        int     `mapstructure:"max_trade_duration"` // steps; 0 disables the force-close
	BadTraderThreshold      float64 `mapstructure:"bad_trader_threshold"`
	InactiveTraderThreshold int     `mapstructure:"inactive_trader_threshold"`
	MaxDailyTrades          int     `mapstructure:"max_daily_trades"` // 0 disables the cap
	CanOpenLong             bool    `mapstructure:"can_open_long"`
	CanOpenShort            bool    `mapstructure:"can_open_short"`
	CanClose                bool    `mapstructure:"can_close"`
	PositionInfo            []string `mapstructure:"position_info"` // side, pnl, duration
}

// DistanceConfig mirrors models.DistanceConfig for deserialization.
type DistanceConfig struct {
	Type          string  `mapstructure:"type"`
	Points        float64 `mapstructure:"points"`
	Percent       float64 `mapstructure:"percent"`
	Window        int     `mapstructure:"window"`
	ATRPeriod     int     `mapstructure:"atr_period"`
	ATRMultiplier float64 `mapstructure:"atr_multiplier"`
}

// TrailingConfig holds the trailing-stop configuration.
type TrailingConfig struct {
	Enabled    bool           `mapstructure:"enabled"`
	Activation float64        `mapstructure:"activation"` // price distance from entry
	Distance   DistanceConfig `mapstructure:"distance"`
}

// ScheduleConfig lists the tradable local hours per weekday.
type ScheduleConfig struct {
	Sunday    []int `mapstructure:"sunday"`
	Monday    []int `mapstructure:"monday"`
	Tuesday   []int `mapstructure:"tuesday"`
	Wednesday []int `mapstructure:"wednesday"`
	Thursday  []int `mapstructure:"thursday"`
	Friday    []int `mapstructure:"friday"`
	Saturday  []int `mapstructure:"saturday"`
}

// IndicatorConfig names one (timeframe, indicator) pair of the vision vector.
type IndicatorConfig struct {
	Name      string `mapstructure:"name"`
	Period    int    `mapstructure:"period"`
	Timeframe string `mapstructure:"timeframe"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/neat-trader"
	}
	return filepath.Join(home, ".config", "neat-trader")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trader.symbol", "EURUSD")
	v.SetDefault("trader.initial_balance", 10000.0)
	v.SetDefault("trader.leverage", 100.0)
	v.SetDefault("trader.risk_percent", 0.02)
	v.SetDefault("trader.bad_trader_threshold", 0.5)
	v.SetDefault("trader.inactive_trader_threshold", 500)
	v.SetDefault("trader.can_open_long", true)
	v.SetDefault("trader.can_open_short", true)
	v.SetDefault("trader.can_close", true)
	v.SetDefault("trader.position_info", []string{"side", "pnl", "duration"})
	v.SetDefault("take_profit.type", "POINTS")
	v.SetDefault("take_profit.points", 200.0)
	v.SetDefault("stop_loss.type", "POINTS")
	v.SetDefault("stop_loss.points", 100.0)
}

// Validate validates the configuration, failing fast on anything the engine
// would otherwise have to guess at.
func (c *Config) Validate() error {
	if _, err := models.LookupSymbol(c.Trader.Symbol); err != nil {
		return err
	}
	if c.Trader.InitialBalance <= 0 {
		return errs.NewConfigurationError("trader.initial_balance", c.Trader.InitialBalance, "must be positive")
	}
	if c.Trader.Leverage <= 0 {
		return errs.NewConfigurationError("trader.leverage", c.Trader.Leverage, "must be positive")
	}
	if c.Trader.RiskPercent <= 0 || c.Trader.RiskPercent > 1 {
		return errs.NewConfigurationError("trader.risk_percent", c.Trader.RiskPercent, "must be in (0, 1]")
	}
	if c.Trader.BadTraderThreshold < 0 || c.Trader.BadTraderThreshold >= 1 {
		return errs.NewConfigurationError("trader.bad_trader_threshold", c.Trader.BadTraderThreshold, "must be in [0, 1)")
	}
	if !c.Trader.CanOpenLong && !c.Trader.CanOpenShort {
		return errs.NewConfigurationError("trader", nil, "at least one entry action must be enabled")
	}
	if _, err := c.TakeProfit.ToModel(); err != nil {
		return errs.Wrap(err, "take_profit")
	}
	if _, err := c.StopLoss.ToModel(); err != nil {
		return errs.Wrap(err, "stop_loss")
	}
	if c.Trailing.Enabled {
		if c.Trailing.Activation <= 0 {
			return errs.NewConfigurationError("trailing.activation", c.Trailing.Activation, "must be positive when trailing is enabled")
		}
		if _, err := c.Trailing.Distance.ToModel(); err != nil {
			return errs.Wrap(err, "trailing.distance")
		}
	}
	if _, err := c.Schedule.ToModel(); err != nil {
		return err
	}
	for _, ic := range c.Indicators {
		if ic.Period <= 0 {
			return errs.NewConfigurationError("indicators.period", ic.Period, fmt.Sprintf("indicator %s needs a positive period", ic.Name))
		}
	}
	return nil
}

// PositionInfoKinds converts the configured position-info names to domain
// kinds, preserving order.
func (c *Config) PositionInfoKinds() ([]models.PositionInfoKind, error) {
	kinds := make([]models.PositionInfoKind, 0, len(c.Trader.PositionInfo))
	for _, name := range c.Trader.PositionInfo {
		switch strings.ToLower(name) {
		case "side":
			kinds = append(kinds, models.PositionInfoSide)
		case "pnl":
			kinds = append(kinds, models.PositionInfoPnL)
		case "duration":
			kinds = append(kinds, models.PositionInfoDuration)
		default:
			return nil, errs.NewConfigurationError("trader.position_info", name, "unknown position info kind")
		}
	}
	return kinds, nil
}

// ToModel converts the serialized distance config to the domain type.
func (d DistanceConfig) ToModel() (models.DistanceConfig, error) {
	t := models.DistanceType(strings.ToUpper(d.Type))
	switch t {
	case models.DistancePoints, models.DistancePercent, models.DistanceExtremum, models.DistanceATR:
	default:
		return models.DistanceConfig{}, errs.NewConfigurationError("type", d.Type, "unknown distance type")
	}
	return models.DistanceConfig{
		Type:          t,
		Points:        d.Points,
		Percent:       d.Percent,
		Window:        d.Window,
		ATRPeriod:     d.ATRPeriod,
		ATRMultiplier: d.ATRMultiplier,
	}, nil
}

// TakeProfitStopLoss assembles the domain TP/SL pair config.
func (c *Config) TakeProfitStopLoss() (models.TakeProfitStopLossConfig, error) {
	tp, err := c.TakeProfit.ToModel()
	if err != nil {
		return models.TakeProfitStopLossConfig{}, err
	}
	sl, err := c.StopLoss.ToModel()
	if err != nil {
		return models.TakeProfitStopLossConfig{}, err
	}
	return models.TakeProfitStopLossConfig{TakeProfit: tp, StopLoss: sl}, nil
}

// TrailingStopLoss assembles the domain trailing config, or nil when
// trailing is disabled.
func (c *Config) TrailingStopLoss() (*models.TrailingStopLossConfig, error) {
	if !c.Trailing.Enabled {
		return nil, nil
	}
	dist, err := c.Trailing.Distance.ToModel()
	if err != nil {
		return nil, err
	}
	return &models.TrailingStopLossConfig{
		Distance:   dist,
		Activation: c.Trailing.Activation,
	}, nil
}

// ToModel converts the hour lists to a weekly schedule mask. An empty
// config yields a weekdays-only schedule.
func (s ScheduleConfig) ToModel() (models.Schedule, error) {
	days := [7][]int{s.Sunday, s.Monday, s.Tuesday, s.Wednesday, s.Thursday, s.Friday, s.Saturday}

	empty := true
	for _, hours := range days {
		if len(hours) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return models.WeekdaysOnly(), nil
	}

	var schedule models.Schedule
	for d, hours := range days {
		for _, h := range hours {
			if h < 0 || h >= models.HoursPerDay {
				return models.Schedule{}, errs.NewConfigurationError("schedule", h, "hour out of range")
			}
			schedule[d][h] = true
		}
	}
	return schedule, nil
}
