package auth

import "errors"

var (
	ErrIdentitySecretRequired = errors.New("Identity and secret are required")
	ErrInvalidIdentity        = errors.New("Invalid Identity")
	ErrIncorrectSecret        = errors.New("Incorrect Secret")
	ErrWeakSecret             = errors.New("Secret must be at least 8 characters and contain a letter, a number and a symbol")
	ErrCredentialExists       = errors.New("Credential already exists")
	ErrNotAuthenticated       = errors.New("Not authenticated")
)
