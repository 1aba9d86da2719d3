// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrSymbolNotFound    = errors.New("symbol not found")
	ErrTraderDead        = errors.New("trader is dead")
	ErrNoPosition        = errors.New("no open position")
	ErrPositionOpen      = errors.New("position already open")
	ErrNotTradable       = errors.New("outside trading schedule")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrDataNotFound      = errors.New("data not found")
	ErrDatabaseError     = errors.New("database error")
)

// ConfigurationError represents a fatal misconfiguration: a tag-dependent
// field required by a selected distance type is absent, the decision vector
// length does not match the enabled action set, or a weekday index is out of
// range. These are never silently defaulted.
type ConfigurationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewConfigurationError creates a new ConfigurationError.
func NewConfigurationError(field string, value interface{}, message string) *ConfigurationError {
	return &ConfigurationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// StatsReprError represents a fatal error while deserializing a stats
// payload: a required key is missing. This is a data-integrity failure, not
// a recoverable one; fields are never default-filled.
type StatsReprError struct {
	Key string
}

func (e *StatsReprError) Error() string {
	return fmt.Sprintf("stats repr error: missing required key %q", e.Key)
}

// NewStatsReprError creates a new StatsReprError.
func NewStatsReprError(key string) *StatsReprError {
	return &StatsReprError{Key: key}
}

// OrderError represents an error related to order handling.
type OrderError struct {
	Symbol string
	Kind   string
	Reason string
	Err    error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error [%s] %s: %s: %v", e.Kind, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error [%s] %s: %s", e.Kind, e.Symbol, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(symbol, kind, reason string, err error) *OrderError {
	return &OrderError{
		Symbol: symbol,
		Kind:   kind,
		Reason: reason,
		Err:    err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
