// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPortfolioFull     = errors.New("portfolio full")
	ErrPositionNotFound  = errors.New("position not found")
	ErrSymbolNotFound    = errors.New("symbol not found")
	ErrInvalidPhase      = errors.New("operation not allowed in current phase")
	ErrQuarterAlreadyRun = errors.New("quarterly draft already opened for this day")
	ErrSeasonOver        = errors.New("trading year is over")
	ErrDataNotFound      = errors.New("data not found")
	ErrEmptyCatalog      = errors.New("no catalog entries available")
	ErrInvalidSpeed      = errors.New("speed multiplier must be between 1 and 5")
	ErrDatabaseError     = errors.New("database error")
)

// DataError represents a failure resolving a price series.
type DataError struct {
	Symbol  string
	Year    int
	Message string
	Err     error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s/%d]: %s: %v", e.Symbol, e.Year, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s/%d]: %s", e.Symbol, e.Year, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(symbol string, year int, message string, err error) *DataError {
	return &DataError{Symbol: symbol, Year: year, Message: message, Err: err}
}

// DraftError represents a failure generating or pricing a card pack.
type DraftError struct {
	Tier    string
	Year    int
	Message string
	Err     error
}

func (e *DraftError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("draft error [%s/%d]: %s: %v", e.Tier, e.Year, e.Message, e.Err)
	}
	return fmt.Sprintf("draft error [%s/%d]: %s", e.Tier, e.Year, e.Message)
}

func (e *DraftError) Unwrap() error {
	return e.Err
}

// NewDraftError creates a new DraftError.
func NewDraftError(tier string, year int, message string, err error) *DraftError {
	return &DraftError{Tier: tier, Year: year, Message: message, Err: err}
}

// LedgerError represents a rejected ledger operation.
type LedgerError struct {
	Operation string
	Reason    string
	Err       error
}

func (e *LedgerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ledger error [%s]: %s: %v", e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("ledger error [%s]: %s", e.Operation, e.Reason)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new LedgerError.
func NewLedgerError(operation, reason string, err error) *LedgerError {
	return &LedgerError{Operation: operation, Reason: reason, Err: err}
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
