package models

import (
	"fmt"

	errs "neat-trader/internal/errors"
)

// SymbolInfo holds static metadata for a trading symbol. The table is loaded
// once and read-only thereafter; instances may be shared by reference across
// concurrently evaluated traders.
type SymbolInfo struct {
	Symbol             string
	AssetCurrency      string
	BaseCurrency       string
	Digits             int
	PointValue         float64
	ContractSize       float64
	MinLot             float64
	MaxLot             float64
	LotStep            float64
	CommissionPerLot   float64
	CommissionCurrency string
}

var symbolTable = map[string]SymbolInfo{
	"EURUSD": {
		Symbol:             "EURUSD",
		AssetCurrency:      "EUR",
		BaseCurrency:       "USD",
		Digits:             5,
		PointValue:         0.0001,
		ContractSize:       100000,
		MinLot:             0.01,
		MaxLot:             500,
		LotStep:            0.01,
		CommissionPerLot:   3.5,
		CommissionCurrency: "USD",
	},
	"GBPUSD": {
		Symbol:             "GBPUSD",
		AssetCurrency:      "GBP",
		BaseCurrency:       "USD",
		Digits:             5,
		PointValue:         0.0001,
		ContractSize:       100000,
		MinLot:             0.01,
		MaxLot:             500,
		LotStep:            0.01,
		CommissionPerLot:   3.5,
		CommissionCurrency: "USD",
	},
	"USDJPY": {
		Symbol:             "USDJPY",
		AssetCurrency:      "USD",
		BaseCurrency:       "JPY",
		Digits:             3,
		PointValue:         0.01,
		ContractSize:       100000,
		MinLot:             0.01,
		MaxLot:             500,
		LotStep:            0.01,
		CommissionPerLot:   3.5,
		CommissionCurrency: "USD",
	},
	"XAUUSD": {
		Symbol:             "XAUUSD",
		AssetCurrency:      "XAU",
		BaseCurrency:       "USD",
		Digits:             2,
		PointValue:         0.01,
		ContractSize:       100,
		MinLot:             0.01,
		MaxLot:             100,
		LotStep:            0.01,
		CommissionPerLot:   4.0,
		CommissionCurrency: "USD",
	},
	"BTCUSD": {
		Symbol:             "BTCUSD",
		AssetCurrency:      "BTC",
		BaseCurrency:       "USD",
		Digits:             2,
		PointValue:         0.01,
		ContractSize:       1,
		MinLot:             0.01,
		MaxLot:             50,
		LotStep:            0.01,
		CommissionPerLot:   5.0,
		CommissionCurrency: "USD",
	},
}

// LookupSymbol returns the static metadata for a symbol.
func LookupSymbol(symbol string) (*SymbolInfo, error) {
	info, ok := symbolTable[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrSymbolNotFound, symbol)
	}
	return &info, nil
}

// Symbols returns the names of all known symbols.
func Symbols() []string {
	names := make([]string, 0, len(symbolTable))
	for name := range symbolTable {
		names = append(names, name)
	}
	return names
}
