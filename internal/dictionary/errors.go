package dictionary

import (
	"errors"
	"fmt"
)

var (
	// ErrDictionary matches every error raised by a dictionary operation
	ErrDictionary = errors.New("dictionary error")

	// ErrNoConnection is returned when neither a manager nor a factory is given
	ErrNoConnection = errors.New("dictionary requires an entity manager or a factory")
)

// Error wraps a provider failure of one dictionary operation
type Error struct {
	Op     string
	Entity string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dictionary %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every *Error match ErrDictionary
func (e *Error) Is(target error) bool {
	return target == ErrDictionary
}
