// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixedpoint provides 18-decimal fixed-point arithmetic with explicit
// rounding direction. All pool math rounds so that any error favors the pool:
// amounts owed to the pool round up, amounts paid out by the pool round down.
package fixedpoint

import (
	"math/big"

	sdkmath "cosmossdk.io/math"

	"github.com/osmosis-labs/osmosis/osmomath"
)

// Dec is the 18-decimal fixed-point scalar used throughout the pool core.
type Dec = sdkmath.LegacyDec

var (
	// scaleInt is 10^18, the fixed-point scale of Dec.
	scaleInt = new(big.Int).Exp(big.NewInt(10), big.NewInt(sdkmath.LegacyPrecision), nil)

	// powRelativeError bounds the relative error of osmomath's fractional
	// power approximation, which is accurate to roughly 1e-8 at 18 decimals.
	// PowUp adds the margin, PowDown subtracts it, so the pair brackets the
	// true value.
	powRelativeError = sdkmath.LegacyNewDecWithPrec(1, 7)
)

// Zero returns the Dec zero value.
func Zero() Dec { return sdkmath.LegacyZeroDec() }

// One returns the Dec one value.
func One() Dec { return sdkmath.LegacyOneDec() }

// MulDown multiplies a and b, truncating the 36-decimal product to 18 decimals.
func MulDown(a, b Dec) Dec {
	return a.MulTruncate(b)
}

// MulUp multiplies a and b, rounding the product up. Inputs are non-negative
// throughout the pool math.
func MulUp(a, b Dec) Dec {
	prod := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if prod.Sign() == 0 {
		return sdkmath.LegacyZeroDec()
	}
	prod.Add(prod, new(big.Int).Sub(scaleInt, big.NewInt(1)))
	prod.Quo(prod, scaleInt)
	return sdkmath.LegacyNewDecFromBigIntWithPrec(prod, sdkmath.LegacyPrecision)
}

// DivDown divides a by b, truncating the quotient.
func DivDown(a, b Dec) Dec {
	return a.QuoTruncate(b)
}

// DivUp divides a by b, rounding the quotient up.
func DivUp(a, b Dec) Dec {
	return a.QuoRoundUp(b)
}

// Complement returns 1 - x, clamped at zero.
func Complement(x Dec) Dec {
	one := sdkmath.LegacyOneDec()
	if x.GTE(one) {
		return sdkmath.LegacyZeroDec()
	}
	return one.Sub(x)
}

// pow computes base^exp for non-negative base and exp. The fractional power
// runs through osmomath's approximation, which requires a positive base below
// two; zero bases short-circuit, and larger bases are inverted first, since
// base^exp = 1/((1/base)^exp) and 1/base then lands in (0, 1).
func pow(base, exp Dec) Dec {
	one := sdkmath.LegacyOneDec()
	if exp.IsZero() {
		return one
	}
	if base.IsZero() {
		return sdkmath.LegacyZeroDec()
	}
	if base.Equal(one) {
		return one
	}

	if base.GTE(sdkmath.LegacyNewDec(2)) {
		return one.Quo(osmomath.Pow(one.Quo(base), exp))
	}
	return osmomath.Pow(base, exp)
}

// PowDown computes base^exp rounded down past the approximation error bound.
func PowDown(base, exp Dec) Dec {
	raw := pow(base, exp)
	margin := MulUp(raw, powRelativeError).Add(sdkmath.LegacySmallestDec())
	if raw.LTE(margin) {
		return sdkmath.LegacyZeroDec()
	}
	return raw.Sub(margin)
}

// PowUp computes base^exp rounded up past the approximation error bound.
func PowUp(base, exp Dec) Dec {
	raw := pow(base, exp)
	margin := MulUp(raw, powRelativeError).Add(sdkmath.LegacySmallestDec())
	return raw.Add(margin)
}
