// Package fp carries request validation and fallible lookups as fp-go
// Either values so several failures can be gathered before a caller decides.
package fp

import (
	"errors"

	"github.com/IBM/fp-go/either"
)

// ErrNoCandidates is the failure of FirstOk without arguments.
var ErrNoCandidates = errors.New("no candidates")

// Result is Either[error, T].
type Result[T any] = either.Either[error, T]

// Ok wraps value.
func Ok[T any](value T) Result[T] {
	return either.Right[error](value)
}

// Fail wraps err.
func Fail[T any](err error) Result[T] {
	return either.Left[T](err)
}

// Try runs f and captures its outcome.
func Try[T any](f func() (T, error)) Result[T] {
	v, err := f()
	if err != nil {
		return Fail[T](err)
	}
	return Ok(v)
}

// Unwrap converts r back to Go's value, error pair.
func Unwrap[T any](r Result[T]) (T, error) {
	var zero T
	if err := Err(r); err != nil {
		return zero, err
	}
	return either.GetOrElse(func(error) T { return zero })(r), nil
}

// Err returns the failure of r, or nil.
func Err[T any](r Result[T]) error {
	return either.Fold(
		func(err error) error { return err },
		func(T) error { return nil },
	)(r)
}

// FirstOk returns the first successful candidate. When every candidate
// fails the failures are joined in order.
func FirstOk[T any](candidates ...Result[T]) Result[T] {
	if len(candidates) == 0 {
		return Fail[T](ErrNoCandidates)
	}
	var errs []error
	for _, c := range candidates {
		if either.IsRight(c) {
			return c
		}
		errs = append(errs, Err(c))
	}
	return Fail[T](errors.Join(errs...))
}
