package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnNotFound indicates the selected column is not part of the dataset.
	ErrColumnNotFound = errors.New("column not found")
	// ErrNotNumeric indicates an operation needed a numeric column.
	ErrNotNumeric = errors.New("column is not numeric")
	// ErrNotCategorical indicates an operation needed a categorical (text) column.
	ErrNotCategorical = errors.New("column is not categorical")
	// ErrAlreadyEncoded indicates the column already holds one-hot integer codes.
	ErrAlreadyEncoded = errors.New("column is already one-hot encoded")
	// ErrColumnExists indicates a derived column would overwrite an existing one.
	ErrColumnExists = errors.New("column already exists")
	// ErrEmpty indicates the input had no header row.
	ErrEmpty = errors.New("empty dataset")
	// ErrUnsupported indicates the file format is not supported.
	ErrUnsupported = errors.New("unsupported file format")
)

// KindError reports a column whose kind does not satisfy an operation.
type KindError struct {
	Column string
	Want   Kind
	Got    Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("column %q is %s, want %s", e.Column, e.Got, e.Want)
}

// Unwrap maps the mismatch onto ErrNotNumeric or ErrNotCategorical so callers
// can match with errors.Is.
func (e *KindError) Unwrap() error {
	switch e.Want {
	case KindNumeric:
		return ErrNotNumeric
	case KindCategorical:
		return ErrNotCategorical
	default:
		return nil
	}
}
