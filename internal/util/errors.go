// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrInvalidInput       = errors.New("invalid input provided")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrSameWalletTransfer = errors.New("cannot transfer to the same wallet")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrForbidden          = errors.New("not allowed to access this wallet")
	ErrUnauthorized       = errors.New("unauthorized request")
	ErrConflict           = errors.New("resource already exists")
	ErrWalletSuspended    = errors.New("wallet is suspended")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrVersionConflict signals that a wallet changed between read and write.
	// It is consumed by the balance retry loop and never reaches a client.
	ErrVersionConflict = errors.New("wallet version conflict")
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
