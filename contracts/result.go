package contracts

import (
	"errors"
	"fmt"
	"log"
)

// Status tags the outcome of a read.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusTransportError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is what every read-model function returns. On NotFound and
// TransportError, Value holds the type's safe empty value so callers that
// only look at Value still get something renderable.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

func (r Result[T]) OK() bool { return r.Status == StatusOK }

// Unwrap returns the value and an error for non-OK results. NotFound wraps
// ErrNotFound.
func (r Result[T]) Unwrap() (T, error) {
	switch r.Status {
	case StatusOK:
		return r.Value, nil
	case StatusNotFound:
		if r.Err != nil {
			return r.Value, fmt.Errorf("%w: %v", ErrNotFound, r.Err)
		}
		return r.Value, ErrNotFound
	default:
		return r.Value, r.Err
	}
}

// ErrNotFound means the object is missing, deleted or not decodable.
var ErrNotFound = errors.New("not found")

func found[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

// notFound logs the reason (if any) and returns the empty value.
func notFound[T any](empty T, what string, reason error) Result[T] {
	if reason != nil {
		log.Printf("%s: not found: %v", what, reason)
	}
	return Result[T]{Value: empty, Status: StatusNotFound, Err: reason}
}

// failed logs the transport error once and returns the empty value.
func failed[T any](empty T, what string, err error) Result[T] {
	log.Printf("%s: %v", what, err)
	return Result[T]{Value: empty, Status: StatusTransportError, Err: err}
}

// fromError classifies err as NotFound (decode or missing object) or
// TransportError.
func fromError[T any](empty T, what string, err error) Result[T] {
	var te *TransportError
	if errors.As(err, &te) {
		return failed(empty, what, err)
	}
	return notFound(empty, what, err)
}
