// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/holiman/uint256"

	fp "github.com/luxfi/weightedpool/fixedpoint"
	"github.com/luxfi/weightedpool/weightedmath"
)

// SwapGivenIn executes an exact-in swap: the vault supplies the in amount and
// current balances, the pool returns the out amount plus the fee share mints.
// Only the vault may invoke swap execution.
//
// The weight vector is read once at req.Now and reused for both the before
// and after invariant, so the fee accrual never straddles a weight change.
func (p *Pool) SwapGivenIn(req SwapRequest) (*SwapResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	weights, balances, err := p.prepareSwap(req)
	if err != nil {
		return nil, err
	}

	amountIn := fp.ToNormalized(req.Amount, p.scalingFactors[req.IndexIn])

	// The fee is charged on the way in: only the remainder trades against
	// the invariant. The fee stays in the pool balance, which is what grows
	// the invariant and backs the fee share mints below.
	feeAmount := fp.MulUp(amountIn, p.swapFeePercentage)
	amountInAfterFee := amountIn.Sub(feeAmount)

	amountOut, err := weightedmath.OutGivenIn(
		balances[req.IndexIn], weights[req.IndexIn],
		balances[req.IndexOut], weights[req.IndexOut],
		amountInAfterFee,
	)
	if err != nil {
		return nil, err
	}

	rawOut, err := fp.ToRawDown(amountOut, p.scalingFactors[req.IndexOut])
	if err != nil {
		return nil, err
	}
	// Re-normalize the truncated raw amount so the post-swap balances match
	// what the vault will actually hold.
	amountOut = fp.ToNormalized(rawOut, p.scalingFactors[req.IndexOut])

	protoShares, mgmtShares := p.accrueSwapFees(weights, balances, req.IndexIn, req.IndexOut, amountIn, amountOut)

	return &SwapResult{
		Amount:              rawOut,
		ProtocolFeeShares:   protoShares,
		ManagementFeeShares: mgmtShares,
	}, nil
}

// SwapGivenOut executes an exact-out swap: the vault supplies the desired out
// amount, the pool returns the in amount to charge, swap fee included.
func (p *Pool) SwapGivenOut(req SwapRequest) (*SwapResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	weights, balances, err := p.prepareSwap(req)
	if err != nil {
		return nil, err
	}

	amountOut := fp.ToNormalized(req.Amount, p.scalingFactors[req.IndexOut])

	amountInAfterFee, err := weightedmath.InGivenOut(
		balances[req.IndexIn], weights[req.IndexIn],
		balances[req.IndexOut], weights[req.IndexOut],
		amountOut,
	)
	if err != nil {
		return nil, err
	}

	// Gross the computed amount up so that after the fee is deducted the
	// invariant-preserving amount remains.
	amountIn := fp.DivUp(amountInAfterFee, fp.Complement(p.swapFeePercentage))

	rawIn, err := fp.ToRawUp(amountIn, p.scalingFactors[req.IndexIn])
	if err != nil {
		return nil, err
	}
	amountIn = fp.ToNormalized(rawIn, p.scalingFactors[req.IndexIn])

	protoShares, mgmtShares := p.accrueSwapFees(weights, balances, req.IndexIn, req.IndexOut, amountIn, amountOut)

	return &SwapResult{
		Amount:              rawIn,
		ProtocolFeeShares:   protoShares,
		ManagementFeeShares: mgmtShares,
	}, nil
}

// prepareSwap runs every swap-path check that precedes any computation and
// returns the weight snapshot and normalized balances. Callers hold p.mu.
func (p *Pool) prepareSwap(req SwapRequest) ([]fp.Dec, []fp.Dec, error) {
	if req.Caller != p.vault {
		return nil, nil, ErrCallerNotVault
	}
	if !p.initialized {
		return nil, nil, ErrNotInitialized
	}
	if !p.swapEnabled {
		return nil, nil, ErrSwapsDisabled
	}
	if len(req.Balances) != len(p.tokens) {
		return nil, nil, ErrInputLengthMismatch
	}
	if err := checkRawEntries(req.Balances); err != nil {
		return nil, nil, err
	}
	if req.IndexIn < 0 || req.IndexIn >= len(p.tokens) ||
		req.IndexOut < 0 || req.IndexOut >= len(p.tokens) ||
		req.IndexIn == req.IndexOut {
		return nil, nil, ErrInvalidToken
	}
	if req.Amount == nil || req.Amount.IsZero() {
		return nil, nil, ErrZeroSwapAmount
	}

	weights := p.schedule.weightsAt(req.Now)
	balances := p.normalizeBalances(req.Balances)
	return weights, balances, nil
}

// accrueSwapFees mints protocol and management fee shares from the invariant
// growth of one swap. Both mints read the pre-mint total supply; the supply
// is then bumped so subsequent swaps see the diluted base. Joins and exits
// never reach this path. Callers hold p.mu.
func (p *Pool) accrueSwapFees(weights, balances []fp.Dec, indexIn, indexOut int, amountIn, amountOut fp.Dec) (fp.Dec, fp.Dec) {
	invariantBefore, errBefore := weightedmath.Invariant(weights, balances)

	after := cloneDecs(balances)
	after[indexIn] = after[indexIn].Add(amountIn)
	after[indexOut] = after[indexOut].Sub(amountOut)
	invariantAfter, errAfter := weightedmath.Invariant(weights, after)

	if errBefore != nil || errAfter != nil {
		// A degenerate invariant yields no fee growth to account for.
		return fp.Zero(), fp.Zero()
	}

	protoShares := weightedmath.DueFeeShares(p.totalSupply, invariantBefore, invariantAfter, p.protocolFeePercentage)
	mgmtShares := weightedmath.DueFeeShares(p.totalSupply, invariantBefore, invariantAfter, p.managementSwapFeePercentage)

	minted := protoShares.Add(mgmtShares)
	if minted.IsPositive() {
		p.totalSupply = p.totalSupply.Add(minted)
		p.log.Debug().
			Str("protocol_fee_shares", protoShares.String()).
			Str("management_fee_shares", mgmtShares.String()).
			Msg("swap fee shares accrued")
	}
	return protoShares, mgmtShares
}

// rawAmounts converts normalized amounts back to raw token units with the
// given rounding direction. Callers hold p.mu.
func (p *Pool) rawAmounts(amounts []fp.Dec, roundUp bool) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(amounts))
	for i, a := range amounts {
		var (
			raw *uint256.Int
			err error
		)
		if roundUp {
			raw, err = fp.ToRawUp(a, p.scalingFactors[i])
		} else {
			raw, err = fp.ToRawDown(a, p.scalingFactors[i])
		}
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}
