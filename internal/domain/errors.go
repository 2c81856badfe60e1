package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCode      = errors.New("invalid referral code")
	ErrAlreadyReferred  = errors.New("user already referred")
	ErrSelfReferral     = errors.New("cannot use own referral code")
	ErrInvalidState     = errors.New("referral is not in a payable state")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrPermission       = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidSettings  = errors.New("invalid referral settings")
	ErrCodeExhausted    = errors.New("failed to generate a unique referral code after retries")
	ErrBadPageToken     = errors.New("invalid page token")
	// ErrCodeTaken is returned by stores when a generated code already exists.
	ErrCodeTaken = errors.New("referral code already taken")
)

// PersistenceError wraps a failure of the backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError unless it is nil or already a
// ledger error that callers are expected to match.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) || isLedgerErr(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func isLedgerErr(err error) bool {
	for _, target := range []error{
		ErrInvalidCode, ErrAlreadyReferred, ErrSelfReferral, ErrInvalidState,
		ErrNotAuthenticated, ErrPermission, ErrNotFound, ErrUserNotFound,
		ErrInvalidSettings, ErrCodeExhausted, ErrCodeTaken, ErrBadPageToken,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
