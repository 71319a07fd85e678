package service

import "errors"

var (
	ErrNotAuthenticated     = errors.New("Please login to continue")
	ErrVerificationRequired = errors.New("Please verify your email address before logging in")
	ErrInvalidAuthResponse  = errors.New("Login failed. Please try again.")
	ErrOwnerScopeRequired   = errors.New("This operation needs the owner portal (--scope owner)")
)
