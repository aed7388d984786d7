// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"sync"

	sdkmath "cosmossdk.io/math"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/rs/zerolog"

	fp "github.com/luxfi/weightedpool/fixedpoint"
	"github.com/luxfi/weightedpool/weightedmath"
)

// Logger is the package logger. Quiet by default; hosts that want the
// operational trace install a real logger via SetLogger.
var Logger = zerolog.Nop()

// SetLogger installs the package logger. Pools created afterwards log with a
// component field and their pool ID attached.
func SetLogger(l zerolog.Logger) {
	Logger = l
}

// Pool is one weighted pool instance. Every external call runs to completion
// under the pool mutex: the invariant and fee calculations are not safe under
// interleaved partial updates, so the pool is a single-writer entity. All
// validation happens before any mutation; a failed call leaves state
// untouched.
type Pool struct {
	mu sync.Mutex

	id             ID
	tokens         []common.Address
	scalingFactors []fp.Dec

	swapFeePercentage           fp.Dec
	protocolFeePercentage       fp.Dec
	managementSwapFeePercentage fp.Dec

	owner                common.Address
	vault                common.Address
	protocolFeeRecipient common.Address

	swapEnabled      bool
	mustAllowlistLPs bool
	allowlist        map[common.Address]struct{}

	schedule    weightSchedule
	totalSupply fp.Dec
	initialized bool

	log zerolog.Logger
}

// New validates params and creates an uninitialized pool at the given
// creation time. Scaling factors are computed here, once, and never
// recomputed. The initial weights are installed as a zero-duration schedule
// pinned to the creation time.
func New(params Params, now uint64) (*Pool, error) {
	n := len(params.Tokens)
	if n < MinTokens {
		return nil, ErrMinTokens
	}
	if n > MaxTokens {
		return nil, ErrMaxTokens
	}
	if len(params.NormalizedWeights) != n || len(params.Decimals) != n {
		return nil, ErrInputLengthMismatch
	}
	if err := validateWeights(params.NormalizedWeights); err != nil {
		return nil, err
	}
	// The fee percentages are optional; a zero-value Dec is nil-backed and
	// unusable in arithmetic, so normalize here.
	if params.ProtocolFeePercentage.IsNil() {
		params.ProtocolFeePercentage = sdkmath.LegacyZeroDec()
	}
	if params.ManagementSwapFeePercentage.IsNil() {
		params.ManagementSwapFeePercentage = sdkmath.LegacyZeroDec()
	}

	if params.SwapFeePercentage.IsNil() || params.SwapFeePercentage.LT(minSwapFeePercentage) {
		return nil, ErrMinSwapFee
	}
	if params.SwapFeePercentage.GT(maxSwapFeePercentage) {
		return nil, ErrMaxSwapFee
	}
	if params.ManagementSwapFeePercentage.GT(sdkmath.LegacyOneDec()) {
		return nil, ErrMaxManagementFee
	}

	factors := make([]fp.Dec, n)
	for i, d := range params.Decimals {
		factor, err := fp.ScalingFactor(d)
		if err != nil {
			return nil, err
		}
		factors[i] = factor
	}

	id := ComputeID(params.Tokens, params.Owner, params.Salt)

	tokens := make([]common.Address, n)
	copy(tokens, params.Tokens)

	p := &Pool{
		id:                          id,
		tokens:                      tokens,
		scalingFactors:              factors,
		swapFeePercentage:           params.SwapFeePercentage,
		protocolFeePercentage:       params.ProtocolFeePercentage,
		managementSwapFeePercentage: params.ManagementSwapFeePercentage,
		owner:                       params.Owner,
		vault:                       params.Vault,
		protocolFeeRecipient:        params.ProtocolFeeRecipient,
		swapEnabled:                 params.SwapEnabledOnStart,
		mustAllowlistLPs:            params.MustAllowlistLPs,
		allowlist:                   make(map[common.Address]struct{}),
		totalSupply:                 sdkmath.LegacyZeroDec(),
		schedule: weightSchedule{
			startTime:    now,
			endTime:      now,
			startWeights: cloneDecs(params.NormalizedWeights),
			endWeights:   cloneDecs(params.NormalizedWeights),
		},
		log: Logger.With().Str("component", "pool").Str("pool_id", id.Hex()).Logger(),
	}

	p.log.Info().Int("tokens", n).Msg("pool created")
	return p, nil
}

// Initialize seeds the pool with its first liquidity. Callable exactly once,
// by the first liquidity provider, subject to the allowlist gate. Returns the
// share amount minted: the invariant of the initial balances scaled by the
// token count.
func (p *Pool) Initialize(caller common.Address, rawBalances []*uint256.Int, now uint64) (fp.Dec, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return fp.Dec{}, ErrAlreadyInitialized
	}
	if len(rawBalances) != len(p.tokens) {
		return fp.Dec{}, ErrInputLengthMismatch
	}
	if err := p.checkJoinAllowed(caller); err != nil {
		return fp.Dec{}, err
	}
	for _, b := range rawBalances {
		if b == nil || b.IsZero() {
			return fp.Dec{}, ErrZeroInitialBalance
		}
	}

	balances := p.normalizeBalances(rawBalances)
	weights := p.schedule.weightsAt(now)

	invariant, err := weightedmath.Invariant(weights, balances)
	if err != nil {
		return fp.Dec{}, err
	}

	bptOut := weightedmath.InitialBpt(invariant, len(p.tokens))
	p.totalSupply = bptOut
	p.initialized = true

	p.log.Info().Str("bpt_out", bptOut.String()).Msg("pool initialized")
	return bptOut, nil
}

// ID returns the pool identifier.
func (p *Pool) ID() ID {
	return p.id
}

// Tokens returns the registered token list in order.
func (p *Pool) Tokens() []common.Address {
	out := make([]common.Address, len(p.tokens))
	copy(out, p.tokens)
	return out
}

// ScalingFactors returns the per-token scaling factors fixed at creation.
func (p *Pool) ScalingFactors() []fp.Dec {
	return cloneDecs(p.scalingFactors)
}

// SwapFeePercentage returns the swap fee fraction fixed at creation.
func (p *Pool) SwapFeePercentage() fp.Dec {
	return p.swapFeePercentage
}

// ManagementSwapFeePercentage returns the owner's share of swap fees.
func (p *Pool) ManagementSwapFeePercentage() fp.Dec {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.managementSwapFeePercentage
}

// SetManagementSwapFeePercentage updates the owner's share of swap fees.
func (p *Pool) SetManagementSwapFeePercentage(caller common.Address, value fp.Dec) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.owner {
		return ErrSenderNotAllowed
	}
	if value.IsNil() {
		value = sdkmath.LegacyZeroDec()
	}
	if value.GT(sdkmath.LegacyOneDec()) {
		return ErrMaxManagementFee
	}
	p.managementSwapFeePercentage = value

	p.log.Info().Str("management_swap_fee", value.String()).Msg("management swap fee updated")
	return nil
}

// TotalSupply returns the current pool share supply tracked by the core.
func (p *Pool) TotalSupply() fp.Dec {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalSupply
}

// Owner returns the pool owner.
func (p *Pool) Owner() common.Address {
	return p.owner
}

// ProtocolFeeRecipient returns the protocol fee share recipient.
func (p *Pool) ProtocolFeeRecipient() common.Address {
	return p.protocolFeeRecipient
}

// normalizeBalances converts raw balances to the common 18-decimal scale.
// Callers hold p.mu.
func (p *Pool) normalizeBalances(raw []*uint256.Int) []fp.Dec {
	out := make([]fp.Dec, len(raw))
	for i, r := range raw {
		out[i] = fp.ToNormalized(r, p.scalingFactors[i])
	}
	return out
}
