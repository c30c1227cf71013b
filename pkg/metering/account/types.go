package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies a quota bucket by the kind of traffic it covers.
type Category string

const (
	// CategoryGeneral is the fallback pool. General buckets are drained for
	// General requests and as the second-priority pool for every other
	// category.
	CategoryGeneral Category = "General"

	// CategorySocial covers social-media traffic.
	CategorySocial Category = "Social"

	// CategoryVideo covers video-streaming traffic.
	CategoryVideo Category = "Video"
)

// Categories lists all valid categories.
var Categories = []Category{CategoryGeneral, CategorySocial, CategoryVideo}

// ParseCategory parses a category name. It accepts the canonical names
// case-insensitively. Returns false for anything else.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// CategoryOrGeneral maps a stored category string to a Category, falling
// back to General for unrecognized values. Used when decoding persisted
// rows, where bad data must not fail the load.
func CategoryOrGeneral(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return CategoryGeneral
}

// Unit is a byte-amount multiplier for allotment purchases.
type Unit string

const (
	// UnitMB multiplies by 1024^2.
	UnitMB Unit = "MB"

	// UnitGB multiplies by 1024^3.
	UnitGB Unit = "GB"
)

// ParseUnit parses a unit name case-insensitively.
func ParseUnit(s string) (Unit, bool) {
	switch {
	case strings.EqualFold(string(UnitMB), s):
		return UnitMB, true
	case strings.EqualFold(string(UnitGB), s):
		return UnitGB, true
	}
	return "", false
}

// Bytes converts an amount in this unit to bytes.
func (u Unit) Bytes(amount uint64) uint64 {
	switch u {
	case UnitGB:
		return amount * 1024 * 1024 * 1024
	default:
		return amount * 1024 * 1024
	}
}

// AllotmentTTL is the fixed expiry horizon applied to new buckets.
const AllotmentTTL = 30 * 24 * time.Hour

// DefaultLatencyMS is the initial value of the cosmetic latency field.
const DefaultLatencyMS = 46

// Bucket is a capped, categorized, time-bounded pool of consumable bytes.
type Bucket struct {
	// ID uniquely identifies the bucket. Names carry no uniqueness
	// constraint, so rows need their own identity for persistence.
	ID string

	// Name is a descriptive label, e.g. "2 GB Topping".
	Name string

	// RemainingBytes is the unconsumed capacity. Monotonically
	// non-increasing for the lifetime of the bucket.
	RemainingBytes uint64

	// Category restricts which consumption requests may drain this bucket.
	Category Category

	// Expiry is an absolute Unix timestamp in seconds. A bucket whose
	// expiry has passed is inert: visible in the account, ineligible for
	// deduction, and its remaining bytes are never reclaimed.
	Expiry int64
}

// Expired reports whether the bucket is ineligible for deduction at now.
func (b Bucket) Expired(now time.Time) bool {
	return b.Expiry <= now.Unix()
}

// NewTopping builds a freshly purchased bucket for the given category and
// amount, expiring AllotmentTTL after now.
func NewTopping(category Category, amount uint64, unit Unit, now time.Time) Bucket {
	return Bucket{
		ID:             uuid.New().String(),
		Name:           fmt.Sprintf("%d %s Topping", amount, unit),
		RemainingBytes: unit.Bytes(amount),
		Category:       category,
		Expiry:         now.Add(AllotmentTTL).Unix(),
	}
}

// Account is the authoritative state of a single metered account.
//
// Account is a value type: the state store hands out deep copies, and every
// component outside the store operates on its own snapshot.
type Account struct {
	// ID is an opaque identifier, immutable after creation.
	ID string

	// IsActive gates consumption. An inactive account rejects all
	// consumption but still accepts allotments and unlock.
	IsActive bool

	// Locked gates every operation except unlock.
	Locked bool

	// Buckets holds the account's allotments in storage order. Iteration
	// order only matters through the category filter; ties within a
	// category break by storage order.
	Buckets []Bucket

	// LastTrafficBytes is the last raw interface byte counter recorded by
	// the external sensor. Not otherwise interpreted by the engine.
	LastTrafficBytes uint64

	// BalanceBytes is derived: always the sum of RemainingBytes over all
	// buckets, expired ones included. Recomputed on every mutation.
	BalanceBytes uint64

	// LatencyMS is a cosmetic demo field.
	LatencyMS uint32
}

// New returns a default-initialized account: active, unlocked, no buckets.
func New(id string) Account {
	return Account{
		ID:        id,
		IsActive:  true,
		LatencyMS: DefaultLatencyMS,
	}
}

// Clone returns a deep copy of the account, safe to mutate independently.
func (a Account) Clone() Account {
	out := a
	if a.Buckets != nil {
		out.Buckets = make([]Bucket, len(a.Buckets))
		copy(out.Buckets, a.Buckets)
	}
	return out
}

// RecomputeBalance restores the BalanceBytes invariant from the buckets.
func (a *Account) RecomputeBalance() {
	var total uint64
	for _, b := range a.Buckets {
		total += b.RemainingBytes
	}
	a.BalanceBytes = total
}

// UsageRecord is one successful consumption event. Records are append-only
// and live in durable storage only; the engine never holds them in memory
// as a collection.
type UsageRecord struct {
	// Timestamp is the consumption time as a Unix timestamp in seconds.
	Timestamp int64

	// Amount is the number of bytes consumed.
	Amount uint64

	// Category is the category the consumption was requested under.
	Category Category
}
