package types

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Amount is an unsigned 128-bit-safe quantity of base FRA units. The spec
// requires unsigned 128-bit integer arithmetic for every amount field with
// floor rounding and no floating point; uint256 gives us checked add/sub/mul
// with overflow detection instead of unchecked big.Int arithmetic, and the
// zero value is a valid zero amount.
type Amount struct {
	v uint256.Int
}

// ZeroAmount returns the additive identity.
func ZeroAmount() Amount { return Amount{} }

// NewAmount constructs an Amount from a uint64 base-unit value.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// AmountFromString parses a base-10 string into an Amount.
func AmountFromString(s string) (Amount, error) {
	var a Amount
	if _, ok := a.v.SetFromDecimal(s); ok != nil {
		return Amount{}, fmt.Errorf("types: invalid amount %q: %w", s, ok)
	}
	return a, nil
}

// Sign returns -1, 0, or 1; Amount is unsigned so only 0/1 are reachable.
func (a Amount) Sign() int {
	if a.v.IsZero() {
		return 0
	}
	return 1
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// Add returns a+b, panicking on overflow: amount overflow is an invariant
// violation (spec §7 Fatal: "arithmetic overflow"), never a recoverable
// per-operation failure.
func (a Amount) Add(b Amount) Amount {
	var out Amount
	if out.v.AddOverflow(&a.v, &b.v) {
		panic("types: amount overflow")
	}
	return out
}

// Sub returns a-b and ok=false if b > a (floor at zero is never silent;
// callers must check ok and reject the operation instead).
func (a Amount) Sub(b Amount) (Amount, bool) {
	if a.v.Lt(&b.v) {
		return Amount{}, false
	}
	var out Amount
	out.v.Sub(&a.v, &b.v)
	return out, true
}

// Cmp compares two amounts: -1, 0, 1.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.v.Lt(&b.v) }

// MulFrac computes floor(a * numerator / denominator) using 256-bit
// intermediate precision so a*numerator never silently wraps, matching the
// spec's "all computations ... floor. No floating point" rule.
func (a Amount) MulFrac(numerator, denominator uint64) Amount {
	if denominator == 0 {
		panic("types: MulFrac by zero denominator")
	}
	var num, den, product uint256.Int
	num.SetUint64(numerator)
	den.SetUint64(denominator)
	if _, overflow := product.MulOverflow(&a.v, &num); overflow {
		panic("types: amount*fraction overflow")
	}
	var result Amount
	result.v.Div(&product, &den)
	return result
}

// String renders the amount in base-10, the canonical serialization used
// by canonical hashing and events.
func (a Amount) String() string { return a.v.Dec() }

// Uint64 returns the value as a uint64, saturating at the maximum uint64
// when it does not fit in 64 bits, used only for voting power
// published to the consensus driver (spec §6.1), which is inherently a
// 64-bit quantity in most BFT drivers.
func (a Amount) Uint64() uint64 {
	if !a.v.IsUint64() {
		return ^uint64(0)
	}
	return a.v.Uint64()
}

// Bytes32 returns the big-endian 32-byte encoding used in canonical hashing.
func (a Amount) Bytes32() [32]byte { return a.v.Bytes32() }

// MarshalJSON renders the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.v.Dec() + `"`), nil
}

// UnmarshalJSON parses a decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		a.v = uint256.Int{}
		return nil
	}
	parsed, err := AmountFromString(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
