package errors

import (
	"errors"
	"fmt"
)

// Common error types for the portal session SDK
var (
	// Session errors
	ErrUnauthenticated = errors.New("not authenticated")
	ErrSessionExpired  = errors.New("session expired")

	// Transport errors
	ErrRateLimited = errors.New("rate limited")
	ErrNotFound    = errors.New("not found")

	// Tenant errors
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrTenantAccessDenied = errors.New("no access to tenant")
	ErrNoTenants          = errors.New("user has no tenants")

	// General errors
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
