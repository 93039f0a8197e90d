// Package errs holds the failure taxonomy shared by every domain package.
// Domain sentinels carry a Kind so callers can branch either on the precise
// sentinel (fridge.ErrInviteCodeNotFound) or on the kind (errs.ErrNotFound).
package errs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindInvalidInput              Kind = "invalid_input"
	KindNotFound                  Kind = "not_found"
	KindForbidden                 Kind = "forbidden"
	KindAlreadyMember             Kind = "already_member"
	KindNotMember                 Kind = "not_member"
	KindOwnershipTransferRequired Kind = "ownership_transfer_required"
	KindInsufficientStock         Kind = "insufficient_stock"
	KindExpiryRequired            Kind = "expiry_required"
	KindCodeGenerationExhausted   Kind = "code_generation_exhausted"
	KindNoValidSelection          Kind = "no_valid_selection"
	KindTransient                 Kind = "transient"
)

var (
	ErrInvalidInput              = &Error{Kind: KindInvalidInput}
	ErrNotFound                  = &Error{Kind: KindNotFound}
	ErrForbidden                 = &Error{Kind: KindForbidden}
	ErrAlreadyMember             = &Error{Kind: KindAlreadyMember}
	ErrNotMember                 = &Error{Kind: KindNotMember}
	ErrOwnershipTransferRequired = &Error{Kind: KindOwnershipTransferRequired}
	ErrInsufficientStock         = &Error{Kind: KindInsufficientStock}
	ErrExpiryRequired            = &Error{Kind: KindExpiryRequired}
	ErrCodeGenerationExhausted   = &Error{Kind: KindCodeGenerationExhausted}
	ErrNoValidSelection          = &Error{Kind: KindNoValidSelection}
	ErrTransient                 = &Error{Kind: KindTransient}
)

type Error struct {
	Kind    Kind
	Message string
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" {
		return strings.ReplaceAll(string(e.Kind), "_", " ")
	}
	return e.Message
}

// Is matches the bare kind sentinels, so errors.Is(fridge.ErrFridgeNotFound, ErrNotFound) holds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// KindOf reports the kind of err. Anything outside the taxonomy is a store or
// infrastructure failure and classifies as transient.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var stock *InsufficientStockError
	if errors.As(err, &stock) {
		return KindInsufficientStock
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransient
}

type transientError struct {
	err error
}

func (t *transientError) Error() string { return t.err.Error() }
func (t *transientError) Unwrap() error { return t.err }
func (t *transientError) Is(target error) bool {
	return target == ErrTransient
}

// Transient marks err as a retryable store failure while keeping it unwrappable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Classify leaves taxonomy errors untouched and marks everything else transient.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindTransient || errors.Is(err, ErrTransient) {
		return err
	}
	return Transient(err)
}

type Shortfall struct {
	GroupID   string          `json:"group_id"`
	Name      string          `json:"name"`
	Available decimal.Decimal `json:"available"`
	Requested decimal.Decimal `json:"requested"`
}

type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s: requested %s, available %s", s.Name, s.Requested.String(), s.Available.String()))
	}
	return "not enough stock (" + strings.Join(parts, "; ") + ")"
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
