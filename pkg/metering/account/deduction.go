package account

import "time"

// Consume computes the account state that results from consuming amount
// bytes under the given category at time now.
//
// The deduction order is category-first: a General request drains only
// General buckets, any other request drains its own category's buckets
// first and falls back to the General pool. Within a priority class,
// buckets are scanned in storage order; expired buckets are skipped even
// when they still hold capacity.
//
// Consume is all-or-nothing. It works on a deep copy of the account and
// only returns a mutated state when the full amount was satisfied; on
// ErrAccountInactive or ErrInsufficientBalance the input account is
// untouched and the zero Account is returned. On success BalanceBytes is
// recomputed and every other field carries over unchanged.
func Consume(acct Account, amount uint64, category Category, now time.Time) (Account, error) {
	if !acct.IsActive {
		return Account{}, ErrAccountInactive
	}

	next := acct.Clone()
	needed := amount

	priorities := []Category{category}
	if category != CategoryGeneral {
		priorities = []Category{category, CategoryGeneral}
	}

	for _, p := range priorities {
		for i := range next.Buckets {
			b := &next.Buckets[i]
			if b.Category != p || b.Expired(now) {
				continue
			}
			deduction := min(b.RemainingBytes, needed)
			b.RemainingBytes -= deduction
			needed -= deduction
			if needed == 0 {
				break
			}
		}
		if needed == 0 {
			break
		}
	}

	if needed > 0 {
		return Account{}, ErrInsufficientBalance
	}

	next.RecomputeBalance()
	return next, nil
}
