// Package session defines the contract between the monitor and a page
// rendering engine: open a session, navigate, read an element's text, and
// dispose of it.
//
// Engines report two kinds of failure. ErrNotFound means the page loaded but
// the selector matched nothing in time; the session is still usable. A
// *SessionError means the session itself is gone (crashed browser, dropped
// connection, hung navigation) and must be rebuilt.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("element not found")

type Engine interface {
	Name() string
	Open(ctx context.Context) (Session, error)
}

type Session interface {
	ID() string
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Locate(ctx context.Context, selector string, timeout time.Duration) (string, error)
	// Close releases every resource held by the session. It is idempotent and
	// safe on a session whose engine already died.
	Close() error
}

type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

func Failure(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *SessionError
	if errors.As(err, &se) {
		return err
	}
	return &SessionError{Op: op, Err: err}
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsSessionFailure(err error) bool {
	var se *SessionError
	return errors.As(err, &se)
}
