package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSeatConflict         = errors.New("seat no longer available")
	ErrIncompleteAssignment = errors.New("not every passenger has a seat")
	ErrAllSeated            = errors.New("all passengers already have seats")
	ErrSubmitInProgress     = errors.New("a purchase is already being submitted")
	ErrNotReady             = errors.New("booking is not ready for purchase")
	ErrStaleResponse        = errors.New("response no longer matches the current selection")
	ErrSelectionComplete    = errors.New("flight selection is already complete")
	ErrNoResults            = errors.New("no flight results loaded")
	ErrDayUnavailable       = errors.New("day is not available for booking")

	ErrNoCriteria         = errors.New("search criteria not set")
	ErrPassengerCount     = errors.New("passenger count does not match search criteria")
	ErrInvalidIndex       = errors.New("passenger index out of range")
	ErrLegLocked          = errors.New("leg is not reachable yet")
	ErrNoFlight           = errors.New("no flight selected for leg")
	ErrInventoryNotLoaded = errors.New("seat map not loaded for leg")
	ErrUnknownSeat        = errors.New("seat is not part of the flight")
)

// FieldError is one rejected input. Passenger is -1 for fields outside the roster.
type FieldError struct {
	Passenger int
	Field     string
	Message   string
}

func (f FieldError) String() string {
	if f.Passenger < 0 {
		return fmt.Sprintf("%s %s", f.Field, f.Message)
	}
	return fmt.Sprintf("passenger %d %s %s", f.Passenger+1, f.Field, f.Message)
}

// ValidationError collects local input errors. It never reaches the backend.
type ValidationError struct {
	Step   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Step + ": invalid input"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return e.Step + ": " + strings.Join(parts, "; ")
}

// Field returns the error reported for one field of one passenger.
func (e *ValidationError) Field(passenger int, field string) (FieldError, bool) {
	for _, f := range e.Fields {
		if f.Passenger == passenger && f.Field == field {
			return f, true
		}
	}
	return FieldError{}, false
}

func (e *ValidationError) ForPassenger(passenger int) []FieldError {
	var out []FieldError
	for _, f := range e.Fields {
		if f.Passenger == passenger {
			out = append(out, f)
		}
	}
	return out
}

// SeatConflictError reports a seat that is booked or held by another passenger.
type SeatConflictError struct {
	Leg        Leg
	SeatNumber string
	Reason     string
	Err        error
}

func (e *SeatConflictError) Error() string {
	var b strings.Builder
	b.WriteString(ErrSeatConflict.Error())
	if e.SeatNumber != "" {
		fmt.Fprintf(&b, ": seat %s on %s leg", e.SeatNumber, e.Leg)
	}
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	return b.String()
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}

func (e *SeatConflictError) Unwrap() error {
	return e.Err
}

// GatewayError wraps a failed backend call with the operation that issued it.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Retryable reports whether asking again may succeed. Cancelled calls are not retried.
func (e *GatewayError) Retryable() bool {
	return !errors.Is(e.Err, context.Canceled)
}

// InvariantViolation marks a mutation that the screens should never be able to issue.
type InvariantViolation struct {
	Action string
	Err    error
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %v", e.Action, e.Err)
}

func (e *InvariantViolation) Unwrap() error {
	return e.Err
}

func IsInvariantViolation(err error) bool {
	var v *InvariantViolation
	return errors.As(err, &v)
}

func violation(err error) error {
	return &InvariantViolation{Err: err}
}

// conflicter is satisfied by gateway errors that can tell a seat conflict apart.
type conflicter interface {
	IsConflict() bool
}

func isConflict(err error) bool {
	var c conflicter
	return errors.As(err, &c) && c.IsConflict()
}

// messager is satisfied by gateway errors carrying a backend message.
type messager interface {
	Message() string
}

func gatewayMessage(err error) string {
	var m messager
	if errors.As(err, &m) {
		return m.Message()
	}
	return err.Error()
}
