package services

import (
	"errors"
	"fmt"

	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

// Validation
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrEmptyReason        = errors.New("deletion reason is required")
	ErrInvalidPaymentMode = errors.New("invalid payment mode")
	ErrPortionMismatch    = errors.New("portion does not belong to dish")
	ErrChoiceMismatch     = errors.New("add-on choice does not belong to dish")
	ErrDishUnavailable    = errors.New("dish is not available")
)

// Authorization
var (
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidCredentials = errors.New("invalid phone or password")
)

// State conflicts
var (
	ErrNoActiveSession      = errors.New("table has no active session")
	ErrSessionAlreadyActive = errors.New("table already has an active session")
	ErrItemAlreadyDeleted   = models.ErrAlreadyDeleted
	ErrKOTCompleted         = errors.New("kot is already completed")
	ErrPendingBillExists    = errors.New("a pending bill already exists for this session")
	ErrBillAlreadySettled   = errors.New("bill is already settled")
	ErrUnbilledKOTs         = errors.New("session has kots not covered by the bill, regenerate it first")
	ErrStaleBill            = errors.New("bill amounts no longer match its kots, open the bill again")
)

// ErrNotFound matches every *NotFoundError through errors.Is.
var ErrNotFound = errors.New("not found")

type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// notFound turns gorm.ErrRecordNotFound into a *NotFoundError and wraps
// anything else.
func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return fmt.Errorf("load %s %d: %w", entity, id, err)
}
