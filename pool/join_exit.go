// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	fp "github.com/luxfi/weightedpool/fixedpoint"
	"github.com/luxfi/weightedpool/weightedmath"
)

// JoinGivenIn deposits exact token amounts for whatever shares they are
// worth. The join may be disproportionate; the excess over the proportional
// deposit is charged the swap fee inside the math. Requires swaps enabled.
func (p *Pool) JoinGivenIn(caller common.Address, rawAmountsIn, rawBalances []*uint256.Int, now uint64) (*JoinResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.prepareJoin(caller, rawBalances, JoinExactTokensIn); err != nil {
		return nil, err
	}
	if len(rawAmountsIn) != len(p.tokens) {
		return nil, ErrInputLengthMismatch
	}
	if err := checkRawEntries(rawAmountsIn); err != nil {
		return nil, err
	}

	weights := p.schedule.weightsAt(now)
	balances := p.normalizeBalances(rawBalances)
	amountsIn := p.normalizeBalances(rawAmountsIn)

	bptOut := weightedmath.BptOutGivenExactTokensIn(balances, weights, amountsIn, p.totalSupply, p.swapFeePercentage)

	p.totalSupply = p.totalSupply.Add(bptOut)
	p.log.Debug().Str("bpt_out", bptOut.String()).Msg("join given in")

	return &JoinResult{BptOut: bptOut, AmountsIn: cloneRaw(rawAmountsIn)}, nil
}

// JoinGivenOut deposits a single token for an exact share amount. Always
// disproportionate, so it requires swaps enabled.
func (p *Pool) JoinGivenOut(caller common.Address, tokenIndex int, bptOut fp.Dec, rawBalances []*uint256.Int, now uint64) (*JoinResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.prepareJoin(caller, rawBalances, JoinTokenInForExactBptOut); err != nil {
		return nil, err
	}
	if tokenIndex < 0 || tokenIndex >= len(p.tokens) {
		return nil, ErrInvalidToken
	}
	if !bptOut.IsPositive() {
		return nil, ErrInvalidShareAmount
	}

	weights := p.schedule.weightsAt(now)
	balances := p.normalizeBalances(rawBalances)

	amountIn := weightedmath.TokenInGivenExactBptOut(
		balances[tokenIndex], weights[tokenIndex], bptOut, p.totalSupply, p.swapFeePercentage,
	)

	amountsIn := make([]*uint256.Int, len(p.tokens))
	for i := range amountsIn {
		amountsIn[i] = uint256.NewInt(0)
	}
	rawIn, err := fp.ToRawUp(amountIn, p.scalingFactors[tokenIndex])
	if err != nil {
		return nil, err
	}
	amountsIn[tokenIndex] = rawIn

	p.totalSupply = p.totalSupply.Add(bptOut)
	p.log.Debug().Str("bpt_out", bptOut.String()).Int("token", tokenIndex).Msg("join given out")

	return &JoinResult{BptOut: bptOut, AmountsIn: amountsIn}, nil
}

// JoinAllGivenOut deposits proportionally across all tokens for an exact
// share amount. Fee-free and permitted even while swaps are disabled.
func (p *Pool) JoinAllGivenOut(caller common.Address, bptOut fp.Dec, rawBalances []*uint256.Int, now uint64) (*JoinResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.prepareJoin(caller, rawBalances, JoinAllTokensInForExactBptOut); err != nil {
		return nil, err
	}
	if !bptOut.IsPositive() {
		return nil, ErrInvalidShareAmount
	}

	balances := p.normalizeBalances(rawBalances)
	amountsIn := weightedmath.AllTokensInGivenExactBptOut(balances, bptOut, p.totalSupply)

	rawIn, err := p.rawAmounts(amountsIn, true)
	if err != nil {
		return nil, err
	}

	p.totalSupply = p.totalSupply.Add(bptOut)
	p.log.Debug().Str("bpt_out", bptOut.String()).Msg("proportional join")

	return &JoinResult{BptOut: bptOut, AmountsIn: rawIn}, nil
}

// ExitGivenOut burns whatever shares the exact withdrawal amounts are worth.
// Possibly disproportionate, so it requires swaps enabled. Exits are never
// allowlist-gated.
func (p *Pool) ExitGivenOut(caller common.Address, rawAmountsOut, rawBalances []*uint256.Int, now uint64) (*ExitResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.prepareExit(rawBalances, ExitBptInForExactTokensOut); err != nil {
		return nil, err
	}
	if len(rawAmountsOut) != len(p.tokens) {
		return nil, ErrInputLengthMismatch
	}
	if err := checkRawEntries(rawAmountsOut); err != nil {
		return nil, err
	}

	weights := p.schedule.weightsAt(now)
	balances := p.normalizeBalances(rawBalances)
	amountsOut := p.normalizeBalances(rawAmountsOut)

	bptIn, err := weightedmath.BptInGivenExactTokensOut(balances, weights, amountsOut, p.totalSupply, p.swapFeePercentage)
	if err != nil {
		return nil, err
	}
	if bptIn.GT(p.totalSupply) {
		return nil, ErrInvalidShareAmount
	}

	p.totalSupply = p.totalSupply.Sub(bptIn)
	p.log.Debug().Str("bpt_in", bptIn.String()).Msg("exit given out")

	return &ExitResult{BptIn: bptIn, AmountsOut: cloneRaw(rawAmountsOut)}, nil
}

// MultiExitGivenIn burns an exact share amount for a proportional withdrawal.
// Fee-free and permitted even while swaps are disabled.
func (p *Pool) MultiExitGivenIn(caller common.Address, bptIn fp.Dec, rawBalances []*uint256.Int, now uint64) (*ExitResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.prepareExit(rawBalances, ExitExactBptInForTokensOut); err != nil {
		return nil, err
	}
	if !bptIn.IsPositive() || bptIn.GT(p.totalSupply) {
		return nil, ErrInvalidShareAmount
	}

	balances := p.normalizeBalances(rawBalances)
	amountsOut := weightedmath.TokensOutGivenExactBptIn(balances, bptIn, p.totalSupply)

	rawOut, err := p.rawAmounts(amountsOut, false)
	if err != nil {
		return nil, err
	}

	p.totalSupply = p.totalSupply.Sub(bptIn)
	p.log.Debug().Str("bpt_in", bptIn.String()).Msg("proportional exit")

	return &ExitResult{BptIn: bptIn, AmountsOut: rawOut}, nil
}

// SingleExitGivenIn burns an exact share amount for a single token. Always
// disproportionate, so it requires swaps enabled.
func (p *Pool) SingleExitGivenIn(caller common.Address, tokenIndex int, bptIn fp.Dec, rawBalances []*uint256.Int, now uint64) (*ExitResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.prepareExit(rawBalances, ExitExactBptInForOneTokenOut); err != nil {
		return nil, err
	}
	if tokenIndex < 0 || tokenIndex >= len(p.tokens) {
		return nil, ErrInvalidToken
	}
	if !bptIn.IsPositive() || bptIn.GT(p.totalSupply) {
		return nil, ErrInvalidShareAmount
	}

	weights := p.schedule.weightsAt(now)
	balances := p.normalizeBalances(rawBalances)

	amountOut := weightedmath.TokenOutGivenExactBptIn(
		balances[tokenIndex], weights[tokenIndex], bptIn, p.totalSupply, p.swapFeePercentage,
	)

	amountsOut := make([]*uint256.Int, len(p.tokens))
	for i := range amountsOut {
		amountsOut[i] = uint256.NewInt(0)
	}
	rawOut, err := fp.ToRawDown(amountOut, p.scalingFactors[tokenIndex])
	if err != nil {
		return nil, err
	}
	amountsOut[tokenIndex] = rawOut

	p.totalSupply = p.totalSupply.Sub(bptIn)
	p.log.Debug().Str("bpt_in", bptIn.String()).Int("token", tokenIndex).Msg("single-token exit")

	return &ExitResult{BptIn: bptIn, AmountsOut: amountsOut}, nil
}

// prepareJoin runs the join-path gates: lifecycle, allowlist, and the
// swaps-disabled kind restriction. Callers hold p.mu.
func (p *Pool) prepareJoin(caller common.Address, rawBalances []*uint256.Int, kind JoinKind) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	if len(rawBalances) != len(p.tokens) {
		return ErrInputLengthMismatch
	}
	if err := checkRawEntries(rawBalances); err != nil {
		return err
	}
	if err := p.checkJoinAllowed(caller); err != nil {
		return err
	}
	if !p.swapEnabled && !kind.proportional() {
		return ErrInvalidJoinExitKindWhileSwapsDisabled
	}
	return nil
}

// prepareExit runs the exit-path gates. Exits are never allowlist-gated.
// Callers hold p.mu.
func (p *Pool) prepareExit(rawBalances []*uint256.Int, kind ExitKind) error {
	if !p.initialized {
		return ErrNotInitialized
	}
	if len(rawBalances) != len(p.tokens) {
		return ErrInputLengthMismatch
	}
	if err := checkRawEntries(rawBalances); err != nil {
		return err
	}
	if !p.swapEnabled && !kind.proportional() {
		return ErrInvalidJoinExitKindWhileSwapsDisabled
	}
	return nil
}

// checkRawEntries rejects nil entries in vault-supplied amount slices before
// any of them reaches the normalization layer.
func checkRawEntries(in []*uint256.Int) error {
	for _, v := range in {
		if v == nil {
			return ErrNilAmount
		}
	}
	return nil
}

func cloneRaw(in []*uint256.Int) []*uint256.Int {
	out := make([]*uint256.Int, len(in))
	for i, v := range in {
		out[i] = new(uint256.Int).Set(v)
	}
	return out
}
