package wrap

import (
	"errors"
	"fmt"
)

var ErrFull = errors.New("full")

var errHidden = errors.New("hidden")

func Wrapped() error {
	return fmt.Errorf("%d tickets: %w", 2, ErrFull)
}

func Formatted() error {
	return fmt.Errorf("%d tickets: %v", 2, ErrFull) // want "sentinel ErrFull formatted with %v instead of %w"
}

func Unexported() error {
	return fmt.Errorf("failed: %v", errHidden)
}

func Local() error {
	ErrLocal := errors.New("local")

	return fmt.Errorf("failed: %v", ErrLocal)
}
