// Package errs holds the error kinds shared by the remote clients and
// the pipeline, so callers can decide with errors.Is/As whether to keep going.
package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a database has no record for a query.
// It is not fatal: the pipeline skips the species.
var ErrNotFound = errors.New("no matching record")

// ErrPollLimit is returned when a remote job does not reach a terminal
// state within the configured number of status queries.
var ErrPollLimit = errors.New("poll limit reached before job finished")

// TransportError is a network or HTTP level failure talking to a service.
type TransportError struct {
	// Op names the request, ex: "esearch", "clustal status"
	Op string

	// StatusCode is the HTTP status, zero if no response was received
	StatusCode int

	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError is a remote job that the service itself reported as failed.
type ServiceError struct {
	Service string
	Job     string
	Msg     string
}

func (e *ServiceError) Error() string {
	if e.Job == "" {
		return fmt.Sprintf("%s: %s", e.Service, e.Msg)
	}
	return fmt.Sprintf("%s job %s: %s", e.Service, e.Job, e.Msg)
}

// ParseError is malformed FASTA or XML. Path is the offending file, if any.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse: %v", e.Err)
	}
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
