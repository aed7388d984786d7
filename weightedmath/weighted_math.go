// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package weightedmath implements the weighted constant-product invariant and
// the closed-form swap, join and exit amounts derived from it. All functions
// are pure: they operate on normalized 18-decimal balances and weights and
// never touch pool state.
package weightedmath

import (
	"errors"

	sdkmath "cosmossdk.io/math"

	fp "github.com/luxfi/weightedpool/fixedpoint"
)

var (
	ErrZeroInvariant      = errors.New("zero invariant")
	ErrMaxInRatio         = errors.New("amount in exceeds max ratio")
	ErrMaxOutRatio        = errors.New("amount out exceeds max ratio")
	ErrZeroWeight         = errors.New("zero weight")
	ErrExitExceedsBalance = errors.New("exit amount exceeds pool balance")
)

var (
	// Swap size caps relative to pool balances. A single swap may consume at
	// most 30% of the in-token balance or 30% of the out-token balance,
	// keeping the power-function bases inside the approximation domain.
	maxInRatio  = sdkmath.LegacyNewDecWithPrec(30, 2)
	maxOutRatio = sdkmath.LegacyNewDecWithPrec(30, 2)
)

// Invariant computes the weighted geometric mean value function
// Π balances[i]^weights[i]. Weights are assumed to sum to one.
//
// Balances are divided by the largest balance before exponentiation so every
// power base stays in (0, 1]; since the weights sum to one the factored-out
// maximum multiplies back in unchanged.
func Invariant(weights, balances []fp.Dec) (fp.Dec, error) {
	maxBalance := sdkmath.LegacyZeroDec()
	for _, b := range balances {
		if !b.IsPositive() {
			return fp.Dec{}, ErrZeroInvariant
		}
		if b.GT(maxBalance) {
			maxBalance = b
		}
	}

	invariant := sdkmath.LegacyOneDec()
	for i, b := range balances {
		invariant = fp.MulDown(invariant, fp.PowDown(fp.DivDown(b, maxBalance), weights[i]))
	}
	invariant = fp.MulDown(invariant, maxBalance)
	if !invariant.IsPositive() {
		return fp.Dec{}, ErrZeroInvariant
	}
	return invariant, nil
}

// OutGivenIn returns the amount of the out token a swap releases for an exact
// amount of the in token. amountIn must already have the swap fee deducted.
//
//	aO = bO * (1 - (bI / (bI + aI))^(wI / wO))
func OutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn fp.Dec) (fp.Dec, error) {
	if amountIn.GT(fp.MulDown(balanceIn, maxInRatio)) {
		return fp.Dec{}, ErrMaxInRatio
	}

	denominator := balanceIn.Add(amountIn)
	base := fp.DivUp(balanceIn, denominator)
	exponent := fp.DivDown(weightIn, weightOut)
	power := fp.PowUp(base, exponent)

	return fp.MulDown(balanceOut, fp.Complement(power)), nil
}

// InGivenOut returns the amount of the in token a swap must charge for an
// exact amount of the out token, before the swap fee is added back on top.
//
//	aI = bI * ((bO / (bO - aO))^(wO / wI) - 1)
//
// This is the algebraic inverse of OutGivenIn over the same invariant, with
// every rounding flipped in the pool's favor.
func InGivenOut(balanceIn, weightIn, balanceOut, weightOut, amountOut fp.Dec) (fp.Dec, error) {
	if amountOut.GT(fp.MulDown(balanceOut, maxOutRatio)) {
		return fp.Dec{}, ErrMaxOutRatio
	}

	base := fp.DivUp(balanceOut, balanceOut.Sub(amountOut))
	exponent := fp.DivUp(weightOut, weightIn)
	power := fp.PowUp(base, exponent)

	return fp.MulUp(balanceIn, power.Sub(sdkmath.LegacyOneDec())), nil
}

// InitialBpt returns the share amount minted to the first liquidity provider:
// the invariant of the initial balances scaled by the token count.
func InitialBpt(invariant fp.Dec, numTokens int) fp.Dec {
	return fp.MulDown(invariant, sdkmath.LegacyNewDec(int64(numTokens)))
}

// BptOutGivenExactTokensIn returns the shares minted for a possibly
// disproportionate join. The proportional part of each deposit joins fee-free;
// the excess above the proportional amount is charged the swap fee, since it
// is economically a swap into the pool.
func BptOutGivenExactTokensIn(balances, weights, amountsIn []fp.Dec, totalSupply, swapFeePercentage fp.Dec) fp.Dec {
	one := sdkmath.LegacyOneDec()

	balanceRatiosWithFee := make([]fp.Dec, len(balances))
	invariantRatioWithFees := sdkmath.LegacyZeroDec()
	for i := range balances {
		balanceRatiosWithFee[i] = fp.DivDown(balances[i].Add(amountsIn[i]), balances[i])
		invariantRatioWithFees = invariantRatioWithFees.Add(fp.MulDown(balanceRatiosWithFee[i], weights[i]))
	}

	invariantRatio := one
	for i := range balances {
		var amountInWithoutFee fp.Dec
		if balanceRatiosWithFee[i].GT(invariantRatioWithFees) {
			nonTaxable := fp.MulDown(balances[i], invariantRatioWithFees.Sub(one))
			taxable := amountsIn[i].Sub(nonTaxable)
			amountInWithoutFee = nonTaxable.Add(fp.MulDown(taxable, fp.Complement(swapFeePercentage)))
		} else {
			amountInWithoutFee = amountsIn[i]
		}

		balanceRatio := fp.DivDown(balances[i].Add(amountInWithoutFee), balances[i])
		invariantRatio = fp.MulDown(invariantRatio, fp.PowDown(balanceRatio, weights[i]))
	}

	if invariantRatio.GT(one) {
		return fp.MulDown(totalSupply, invariantRatio.Sub(one))
	}
	return sdkmath.LegacyZeroDec()
}

// TokenInGivenExactBptOut returns the single-token deposit that mints an
// exact share amount. The portion of the deposit that shifts the token's
// balance past its weight share is charged the swap fee.
func TokenInGivenExactBptOut(balance, weight, bptOut, totalSupply, swapFeePercentage fp.Dec) fp.Dec {
	one := sdkmath.LegacyOneDec()

	invariantRatio := fp.DivUp(totalSupply.Add(bptOut), totalSupply)
	balanceRatio := fp.PowUp(invariantRatio, fp.DivUp(one, weight))
	amountInWithoutFee := fp.MulUp(balance, balanceRatio.Sub(one))

	taxable := fp.MulUp(amountInWithoutFee, fp.Complement(weight))
	nonTaxable := amountInWithoutFee.Sub(taxable)
	return nonTaxable.Add(fp.DivUp(taxable, fp.Complement(swapFeePercentage)))
}

// AllTokensInGivenExactBptOut returns the proportional deposits that mint an
// exact share amount. No fee applies: the join tracks current weights exactly.
func AllTokensInGivenExactBptOut(balances []fp.Dec, bptOut, totalSupply fp.Dec) []fp.Dec {
	ratio := fp.DivUp(bptOut, totalSupply)
	amountsIn := make([]fp.Dec, len(balances))
	for i, b := range balances {
		amountsIn[i] = fp.MulUp(b, ratio)
	}
	return amountsIn
}

// BptInGivenExactTokensOut returns the shares burned for a possibly
// disproportionate exit, charging the swap fee on withdrawals above the
// proportional share. A withdrawal that would drain a token's balance, fee
// included, is rejected rather than priced.
func BptInGivenExactTokensOut(balances, weights, amountsOut []fp.Dec, totalSupply, swapFeePercentage fp.Dec) (fp.Dec, error) {
	for i := range balances {
		if amountsOut[i].GTE(balances[i]) {
			return fp.Dec{}, ErrExitExceedsBalance
		}
	}

	balanceRatiosWithoutFee := make([]fp.Dec, len(balances))
	invariantRatioWithoutFees := sdkmath.LegacyZeroDec()
	for i := range balances {
		balanceRatiosWithoutFee[i] = fp.DivUp(balances[i].Sub(amountsOut[i]), balances[i])
		invariantRatioWithoutFees = invariantRatioWithoutFees.Add(fp.MulUp(balanceRatiosWithoutFee[i], weights[i]))
	}

	invariantRatio := sdkmath.LegacyOneDec()
	for i := range balances {
		var amountOutWithFee fp.Dec
		if invariantRatioWithoutFees.GT(balanceRatiosWithoutFee[i]) {
			nonTaxable := fp.MulDown(balances[i], fp.Complement(invariantRatioWithoutFees))
			taxable := amountsOut[i].Sub(nonTaxable)
			amountOutWithFee = nonTaxable.Add(fp.DivUp(taxable, fp.Complement(swapFeePercentage)))
		} else {
			amountOutWithFee = amountsOut[i]
		}

		// The fee gross-up can push an in-range withdrawal past the balance.
		if amountOutWithFee.GTE(balances[i]) {
			return fp.Dec{}, ErrExitExceedsBalance
		}

		balanceRatio := fp.DivDown(balances[i].Sub(amountOutWithFee), balances[i])
		invariantRatio = fp.MulDown(invariantRatio, fp.PowDown(balanceRatio, weights[i]))
	}

	return fp.MulUp(totalSupply, fp.Complement(invariantRatio)), nil
}

// TokenOutGivenExactBptIn returns the single-token withdrawal released by
// burning an exact share amount, charging the swap fee on the
// disproportionate portion.
func TokenOutGivenExactBptIn(balance, weight, bptIn, totalSupply, swapFeePercentage fp.Dec) fp.Dec {
	one := sdkmath.LegacyOneDec()

	invariantRatio := fp.DivUp(totalSupply.Sub(bptIn), totalSupply)
	balanceRatio := fp.PowUp(invariantRatio, fp.DivDown(one, weight))
	amountOutWithoutFee := fp.MulDown(balance, fp.Complement(balanceRatio))

	taxable := fp.MulUp(amountOutWithoutFee, fp.Complement(weight))
	nonTaxable := amountOutWithoutFee.Sub(taxable)
	return nonTaxable.Add(fp.MulDown(taxable, fp.Complement(swapFeePercentage)))
}

// TokensOutGivenExactBptIn returns the proportional withdrawals released by
// burning an exact share amount. No fee applies.
func TokensOutGivenExactBptIn(balances []fp.Dec, bptIn, totalSupply fp.Dec) []fp.Dec {
	ratio := fp.DivDown(bptIn, totalSupply)
	amountsOut := make([]fp.Dec, len(balances))
	for i, b := range balances {
		amountsOut[i] = fp.MulDown(b, ratio)
	}
	return amountsOut
}
