package portscan

import (
	"errors"
	"fmt"
)

// Errors
var (
	// ErrMissingHost is returned when no target host is given.
	ErrMissingHost = errors.New("missing target host")
	// ErrInvalidPortRange is returned for ranges outside 1..65535 or with start > end.
	ErrInvalidPortRange = errors.New("invalid port range")
	// ErrInvalidWorkers is returned for worker counts outside 1..MaxWorkers.
	ErrInvalidWorkers = errors.New("invalid worker count")
	// ErrInvalidTimeout is returned for negative probe timeouts.
	ErrInvalidTimeout = errors.New("invalid timeout")
)

// ValidationError reports an invalid argument. It is fatal and raised before
// any name resolution or probing.
type ValidationError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s=%v", e.Err, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ResolutionError reports that a host could not be mapped to an address.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve host %q: %v", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
