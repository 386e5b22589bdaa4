package repperiods

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema reports a required column missing from a table.
	ErrSchema = errors.New("schema error")
	// ErrInvalidArgument reports an argument outside its valid range.
	ErrInvalidArgument = errors.New("invalid argument")
)

func schemaErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

func invalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
