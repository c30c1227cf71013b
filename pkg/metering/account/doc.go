// Package account defines the data-quota account model and the pure
// deduction engine that computes consumption against it.
//
// The package is deliberately free of I/O and synchronization: an Account is
// a plain value, Consume is a pure function from one account state to the
// next, and all concurrency and persistence concerns live in the surrounding
// metering packages. Everything here can be exercised with nothing but a
// clock value.
//
// # Invariants
//
// BalanceBytes always equals the sum of RemainingBytes across all buckets
// after any operation in this package. Deductions never underflow a bucket,
// and a consumption either succeeds in full or leaves the input account
// untouched (Consume operates on a deep copy and discards it on failure).
package account
