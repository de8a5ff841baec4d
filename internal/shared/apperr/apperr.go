package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindInput         Kind = "input"
	KindExtraction    Kind = "extraction"
	KindPersistence   Kind = "persistence"
	KindReaggregation Kind = "reaggregation"
)

// Sentinels for errors.Is matching against a Kind.
var (
	ErrInput         = errors.New("input error")
	ErrExtraction    = errors.New("extraction error")
	ErrPersistence   = errors.New("persistence error")
	ErrReaggregation = errors.New("reaggregation error")
)

// Error carries a Kind, the failing operation and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the Kind sentinel so callers can write errors.Is(err, apperr.ErrInput).
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

func sentinel(k Kind) error {
	switch k {
	case KindInput:
		return ErrInput
	case KindExtraction:
		return ErrExtraction
	case KindPersistence:
		return ErrPersistence
	case KindReaggregation:
		return ErrReaggregation
	default:
		return nil
	}
}

func newError(k Kind, op string, err error) error {
	return &Error{Kind: k, Op: op, Err: err}
}

// Input wraps err as an InputError.
func Input(op string, err error) error { return newError(KindInput, op, err) }

// Extraction wraps err as an ExtractionError.
func Extraction(op string, err error) error { return newError(KindExtraction, op, err) }

// Persistence wraps err as a PersistenceError.
func Persistence(op string, err error) error { return newError(KindPersistence, op, err) }

// Reaggregation wraps err as a ReaggregationError.
func Reaggregation(op string, err error) error { return newError(KindReaggregation, op, err) }

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
