// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"

	"github.com/holiman/uint256"
)

// Tokens with more than 18 decimals cannot be normalized to the common scale.
var ErrUnsupportedDecimals = errors.New("token decimals exceed 18")

// ErrAmountOverflow is returned when a raw amount does not fit in 256 bits.
var ErrAmountOverflow = errors.New("raw amount overflows uint256")

// ScalingFactor returns 10^(18-decimals) as a Dec. It is computed once per
// token at pool creation and never recomputed.
func ScalingFactor(decimals uint8) (Dec, error) {
	if decimals > sdkmath.LegacyPrecision {
		return Dec{}, fmt.Errorf("%w: %d", ErrUnsupportedDecimals, decimals)
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(sdkmath.LegacyPrecision-int64(decimals))), nil)
	return sdkmath.LegacyNewDecFromBigInt(factor), nil
}

// ToNormalized converts a raw integer token balance to the common 18-decimal
// representation: normalized = raw * scalingFactor. The multiplication by a
// power of ten is exact, so no rounding direction applies here.
func ToNormalized(raw *uint256.Int, factor Dec) Dec {
	scaled := new(big.Int).Mul(raw.ToBig(), factor.TruncateInt().BigInt())
	return sdkmath.LegacyNewDecFromBigIntWithPrec(scaled, sdkmath.LegacyPrecision)
}

// ToRawDown converts a normalized amount back to raw token units, rounding
// down. Used for amounts leaving the pool.
func ToRawDown(normalized Dec, factor Dec) (*uint256.Int, error) {
	raw := new(big.Int).Quo(normalized.BigInt(), factor.TruncateInt().BigInt())
	return rawFromBig(raw)
}

// ToRawUp converts a normalized amount back to raw token units, rounding up.
// Used for amounts entering the pool.
func ToRawUp(normalized Dec, factor Dec) (*uint256.Int, error) {
	factorInt := factor.TruncateInt().BigInt()
	raw := new(big.Int).Add(normalized.BigInt(), new(big.Int).Sub(factorInt, big.NewInt(1)))
	raw.Quo(raw, factorInt)
	return rawFromBig(raw)
}

func rawFromBig(raw *big.Int) (*uint256.Int, error) {
	if raw.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount", ErrAmountOverflow)
	}
	out, overflow := uint256.FromBig(raw)
	if overflow {
		return nil, ErrAmountOverflow
	}
	return out, nil
}
