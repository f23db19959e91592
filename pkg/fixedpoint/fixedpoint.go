// Package fixedpoint implements the signed, 10^18-scaled integer arithmetic
// used throughout the inventory core for percentages and allocations.
package fixedpoint

import "math/big"

// Scalar is the implicit fixed-point base: a "percentage" of 0.25 is stored
// as the integer 0.25 * Scalar.
var Scalar = big.NewInt(1_000_000_000_000_000_000)

// Pct is a signed fixed-point value scaled by Scalar. The zero value is 0.
type Pct struct {
	v *big.Int
}

// Zero returns the fixed-point zero value.
func Zero() Pct { return Pct{v: big.NewInt(0)} }

// FromInt builds a Pct directly from a raw scaled integer (already
// multiplied by Scalar). Used when a value is read off an RPC/ABI response
// that is itself already scaled by 10^18.
func FromInt(raw *big.Int) Pct {
	if raw == nil {
		return Zero()
	}
	return Pct{v: new(big.Int).Set(raw)}
}

// FromFraction builds a Pct representing num/den, e.g. FromFraction(1, 4)
// for 0.25.
func FromFraction(num, den int64) Pct {
	if den == 0 {
		return Zero()
	}
	v := new(big.Int).Mul(big.NewInt(num), Scalar)
	v.Quo(v, big.NewInt(den))
	return Pct{v: v}
}

// Int returns the underlying scaled integer (num * Scalar). The returned
// *big.Int is a defensive copy.
func (p Pct) Int() *big.Int {
	if p.v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.v)
}

// Add returns p + o.
func (p Pct) Add(o Pct) Pct {
	return Pct{v: new(big.Int).Add(p.safe(), o.safe())}
}

// Sub returns p - o.
func (p Pct) Sub(o Pct) Pct {
	return Pct{v: new(big.Int).Sub(p.safe(), o.safe())}
}

// Cmp compares p and o the way big.Int.Cmp does: -1, 0, or 1.
func (p Pct) Cmp(o Pct) int {
	return p.safe().Cmp(o.safe())
}

// IsZero reports whether p is exactly zero.
func (p Pct) IsZero() bool {
	return p.safe().Sign() == 0
}

// Sign returns -1, 0, or 1 depending on the sign of p.
func (p Pct) Sign() int {
	return p.safe().Sign()
}

func (p Pct) safe() *big.Int {
	if p.v == nil {
		return big.NewInt(0)
	}
	return p.v
}

// Ratio computes (numerator * Scalar) / denominator as a Pct, preserving
// precision by multiplying before dividing. Returns the zero Pct if
// denominator is zero — callers that need "undefined" semantics (spec: a
// chain with zero cumulative balance has 0% allocation) rely on this.
func Ratio(numerator, denominator *big.Int) Pct {
	if denominator == nil || denominator.Sign() == 0 {
		return Zero()
	}
	scaled := new(big.Int).Mul(numerator, Scalar)
	scaled.Quo(scaled, denominator)
	return Pct{v: scaled}
}

// ApplyTo computes pct * amount / Scalar, i.e. applies a fixed-point
// percentage to a raw token amount. Multiplication precedes division.
func ApplyTo(pct Pct, amount *big.Int) *big.Int {
	scaled := new(big.Int).Mul(pct.safe(), amount)
	scaled.Quo(scaled, Scalar)
	return scaled
}

// String renders the value as a decimal string, e.g. "0.250000000000000000".
func (p Pct) String() string {
	v := p.safe()
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	whole := new(big.Int).Quo(abs, Scalar)
	frac := new(big.Int).Mod(abs, Scalar)
	fracStr := frac.String()
	for len(fracStr) < 18 {
		fracStr = "0" + fracStr
	}
	sign := ""
	if neg {
		sign = "-"
	}
	return sign + whole.String() + "." + fracStr
}
