package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrSnapshotNotFound = fmt.Errorf("%w: snapshot", ErrNotFound)
	ErrArtifactNotFound = fmt.Errorf("%w: artifact", ErrNotFound)
	ErrColumnNotFound   = errors.New("column not found")

	// Dataset shape errors
	ErrNoColumns       = errors.New("no columns given")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrRowLength       = errors.New("row length does not match column count")
	ErrEmptyHeader     = errors.New("empty column name in header")

	// Analysis errors
	ErrUnknownMethod    = errors.New("unsupported correlation method")
	ErrColumnNotBinary  = errors.New("column is not binary")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrDegenerate       = errors.New("degenerate statistic")
	ErrConstantColumn   = errors.New("column has zero variance")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: column '%s'", ErrColumnNotFound, column)
}

func NewNotBinaryError(column string) error {
	return fmt.Errorf("%w: column '%s' must take exactly two values", ErrColumnNotBinary, column)
}

func NewUnknownMethodError(method string) error {
	return fmt.Errorf("%w: '%s' (expected pearson or spearman)", ErrUnknownMethod, method)
}

func NewInsufficientDataError(need, got int) error {
	return fmt.Errorf("%w: need at least %d complete rows, got %d", ErrInsufficientData, need, got)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrColumnNotFound)
}

func IsShapeError(err error) bool {
	return errors.Is(err, ErrNoColumns) ||
		errors.Is(err, ErrDuplicateColumn) ||
		errors.Is(err, ErrRowLength) ||
		errors.Is(err, ErrEmptyHeader)
}

func IsAnalysisError(err error) bool {
	return errors.Is(err, ErrUnknownMethod) ||
		errors.Is(err, ErrColumnNotBinary) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrDegenerate) ||
		errors.Is(err, ErrConstantColumn)
}
