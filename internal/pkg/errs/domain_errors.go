package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	// Reservation errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrNotReservationOwner = errors.New("reservation belongs to another user")
	ErrReservationConflict = errors.New("reservation conflict")

	// Wallet errors
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	// Fixed-slot template errors
	ErrTemplateNotFound  = errors.New("fixed-slot template not found")
	ErrNotTemplateOwner  = errors.New("fixed-slot template belongs to another user")
	ErrTemplateNotActive = errors.New("fixed-slot template is not active")

	// Validation errors
	ErrDomainValidation = errors.New("domain validation error")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
