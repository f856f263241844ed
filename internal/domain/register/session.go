// Package register implements the till session state machine: a register is
// Closed until an operator opens it with an opening float, accepts sale
// commits while Open, and returns to Closed on an explicit close. The cycle
// is re-enterable.
package register

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/pos-register/internal/domain/money"
)

var (
	// ErrRegisterClosed is returned when an operation requires an open
	// session. It is a hard precondition, not a retryable condition.
	ErrRegisterClosed = errors.New("register is closed")
	// ErrAlreadyOpen is returned when opening a session that is already open.
	ErrAlreadyOpen = errors.New("register is already open")
)

// Status is the session lifecycle state.
type Status string

const (
	StatusClosed Status = "closed"
	StatusOpen   Status = "open"
)

// Session tracks the open/closed lifecycle of one physical till. The zero
// value is a closed session. Session is not safe for concurrent use; the
// till manager serializes access per register.
type Session struct {
	status       Status
	openingFloat decimal.Decimal
	openedAt     time.Time

	now func() time.Time
}

// NewSession returns a closed session using the wall clock.
func NewSession() *Session {
	return &Session{status: StatusClosed, now: time.Now}
}

// NewSessionWithClock returns a closed session with an injectable clock.
func NewSessionWithClock(now func() time.Time) *Session {
	return &Session{status: StatusClosed, now: now}
}

// Open transitions Closed -> Open, recording the opening float and the
// opening time. The float must be a well-formed, non-negative amount.
func (s *Session) Open(openingFloat decimal.Decimal) error {
	if s.status == StatusOpen {
		return ErrAlreadyOpen
	}
	f, err := money.ValidateNonNegative(openingFloat)
	if err != nil {
		return err
	}
	s.status = StatusOpen
	s.openingFloat = f
	s.openedAt = s.now()
	return nil
}

// Close transitions Open -> Closed. No cash reconciliation happens here;
// expected-vs-counted comparison belongs to the reporting side.
func (s *Session) Close() error {
	if s.status != StatusOpen {
		return ErrRegisterClosed
	}
	s.status = StatusClosed
	s.openingFloat = decimal.Zero
	s.openedAt = time.Time{}
	return nil
}

// IsOpen reports whether the session accepts sale commits.
func (s *Session) IsOpen() bool {
	return s.status == StatusOpen
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	return s.status
}

// OpeningFloat returns the float supplied at open time. Zero while closed.
func (s *Session) OpeningFloat() decimal.Decimal {
	return s.openingFloat
}

// OpenedAt returns when the session was opened. Zero while closed.
func (s *Session) OpenedAt() time.Time {
	return s.openedAt
}
