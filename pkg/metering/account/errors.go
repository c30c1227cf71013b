package account

import "errors"

// Error taxonomy for the accounting path. All of these are returned
// synchronously to the caller; persistence-path failures are never surfaced
// through them.
var (
	// ErrInsufficientBalance is returned when a consumption request exceeds
	// the capacity of all eligible, non-expired buckets. Recoverable: the
	// caller may retry a smaller amount or top up.
	ErrInsufficientBalance = errors.New("insufficient balance for this transaction")

	// ErrAccountInactive is returned when consumption is attempted on a
	// disabled account. Not retryable without external reactivation.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrLocked is returned while the device lock is engaged. Retryable
	// after unlock.
	ErrLocked = errors.New("device is locked")

	// ErrInvalidCommand is returned for malformed textual or allotment
	// input, rejected before any mutation.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInternal indicates an unexpected decode failure of persisted rows.
	// At load time the policy is "trust nothing": callers fall back to a
	// default account instead of failing.
	ErrInternal = errors.New("internal error")
)
