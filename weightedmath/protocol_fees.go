// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package weightedmath

import (
	sdkmath "cosmossdk.io/math"

	fp "github.com/luxfi/weightedpool/fixedpoint"
)

// DueFeeShares converts invariant growth caused by swap fees into a pool
// share amount owed to a fee recipient:
//
//	shares = totalSupply * feePercentage * (1 - invariantBefore/invariantAfter)
//
// It returns zero unless the invariant strictly grew. Callers must invoke
// this on the swap path only: joins and exits also grow the invariant, but
// that growth is new capital, not fee capture, and taxing it would charge
// LPs twice.
func DueFeeShares(totalSupply, invariantBefore, invariantAfter, feePercentage fp.Dec) fp.Dec {
	if !invariantAfter.GT(invariantBefore) || !feePercentage.IsPositive() {
		return sdkmath.LegacyZeroDec()
	}

	// Rounding up the ratio rounds the minted shares down, keeping the
	// dilution of existing LPs conservative.
	growthShare := fp.Complement(fp.DivUp(invariantBefore, invariantAfter))
	return fp.MulDown(fp.MulDown(totalSupply, feePercentage), growthShare)
}
