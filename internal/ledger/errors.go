package ledger

import "errors"

var (
	ErrAlreadyRegistered = errors.New("organization already registered")
	ErrNotRegistered     = errors.New("organization not registered")
	ErrInvalidName       = errors.New("organization name is required")
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrInvalidProject    = errors.New("project type is required")
	ErrCreditNotFound    = errors.New("credit not found")
	ErrCreditRetired     = errors.New("credit already retired")
	ErrNotOwner          = errors.New("caller does not own the credit")

	// ErrStale means the journal holds commits the ledger has not applied.
	ErrStale = errors.New("ledger is behind its journal")

	// ErrCorruptSnapshot is returned by Restore and Verify when state breaks a ledger invariant.
	ErrCorruptSnapshot = errors.New("ledger state violates invariant")
)
