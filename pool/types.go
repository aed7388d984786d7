// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pool implements the economic core of a multi-asset weighted
// automated-market-making pool: input validation, ownership and operational
// gates, time-based weight scheduling, and orchestration of the weighted
// invariant math. Token custody and share-token bookkeeping live in the
// settlement layer (the vault); this package computes amounts and share
// deltas, and the vault applies them.
package pool

import (
	"errors"

	sdkmath "cosmossdk.io/math"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	fp "github.com/luxfi/weightedpool/fixedpoint"
)

// Token count bounds, fixed at creation.
const (
	MinTokens = 2
	MaxTokens = 50
)

var (
	// MinWeight is the smallest normalized weight any token may be assigned:
	// 1%. Enforced on end weights of every schedule and on creation weights.
	MinWeight = sdkmath.LegacyNewDecWithPrec(1, 2)

	// weightSumTolerance absorbs compression and rounding drift when
	// checking that a weight vector sums to one.
	weightSumTolerance = sdkmath.LegacyNewDecWithPrec(1, 12)

	// Swap fee bounds mirror the managed-pool deployment limits.
	minSwapFeePercentage = sdkmath.LegacyNewDecWithPrec(1, 6)  // 0.0001%
	maxSwapFeePercentage = sdkmath.LegacyNewDecWithPrec(95, 2) // 95%
)

// Errors - validation
var (
	ErrMinTokens                 = errors.New("below minimum token count")
	ErrMaxTokens                 = errors.New("above maximum token count")
	ErrInputLengthMismatch       = errors.New("input length mismatch")
	ErrMinWeight                 = errors.New("weight below minimum")
	ErrNormalizedWeightInvariant = errors.New("normalized weights must sum to one")
	ErrGradualUpdateTimeTravel   = errors.New("gradual update start time after end time")
	ErrMinSwapFee                = errors.New("swap fee below minimum")
	ErrMaxSwapFee                = errors.New("swap fee above maximum")
	ErrMaxManagementFee          = errors.New("management fee above maximum")
	ErrInvalidToken              = errors.New("token index out of range")
	ErrZeroSwapAmount            = errors.New("swap amount must be positive")
	ErrNilAmount                 = errors.New("nil amount in input")
)

// Errors - authorization
var (
	ErrSenderNotAllowed      = errors.New("sender not allowed")
	ErrUnauthorizedOperation = errors.New("operation not authorized in current mode")
	ErrCallerNotVault        = errors.New("caller is not the vault")
)

// Errors - allowlist state
var (
	ErrAddressAlreadyAllowlisted = errors.New("address already allowlisted")
	ErrAddressNotAllowlisted     = errors.New("address not allowlisted")
)

// Errors - operational mode
var (
	ErrSwapsDisabled                         = errors.New("swaps disabled")
	ErrInvalidJoinExitKindWhileSwapsDisabled = errors.New("join/exit kind not allowed while swaps disabled")
)

// Errors - lifecycle
var (
	ErrAlreadyInitialized = errors.New("pool already initialized")
	ErrNotInitialized     = errors.New("pool not initialized")
	ErrZeroInitialBalance = errors.New("initial balance must be positive")
	ErrInvalidShareAmount = errors.New("invalid share amount")
)

// ID uniquely identifies a pool. It hashes the ordered token list and the
// owner, so distinct deployments over the same tokens get distinct IDs only
// when owned differently; a salt disambiguates beyond that.
type ID [32]byte

// ComputeID derives a pool ID from its immutable identity.
func ComputeID(tokens []common.Address, owner common.Address, salt [32]byte) ID {
	h := blake3.New()
	for _, t := range tokens {
		h.Write(t.Bytes())
	}
	h.Write(owner.Bytes())
	h.Write(salt[:])

	var id ID
	h.Digest().Read(id[:])
	return id
}

// Hex returns the ID as a 0x-prefixed hex string.
func (id ID) Hex() string {
	return common.Hash(id).Hex()
}

// JoinKind identifies the shape of a join operation.
type JoinKind uint8

const (
	// JoinInit seeds the pool with its first liquidity.
	JoinInit JoinKind = iota
	// JoinExactTokensIn deposits exact token amounts for whatever shares
	// they are worth. Possibly disproportionate.
	JoinExactTokensIn
	// JoinTokenInForExactBptOut deposits a single token for an exact share
	// amount. Always disproportionate.
	JoinTokenInForExactBptOut
	// JoinAllTokensInForExactBptOut deposits proportionally for an exact
	// share amount.
	JoinAllTokensInForExactBptOut
)

// proportional reports whether the join shape tracks current weights and is
// therefore permitted while swaps are disabled.
func (k JoinKind) proportional() bool {
	return k == JoinAllTokensInForExactBptOut
}

// ExitKind identifies the shape of an exit operation.
type ExitKind uint8

const (
	// ExitExactBptInForTokensOut burns shares for a proportional withdrawal.
	ExitExactBptInForTokensOut ExitKind = iota
	// ExitExactBptInForOneTokenOut burns shares for a single token.
	ExitExactBptInForOneTokenOut
	// ExitBptInForExactTokensOut burns whatever shares the exact withdrawal
	// amounts are worth. Possibly disproportionate.
	ExitBptInForExactTokensOut
)

func (k ExitKind) proportional() bool {
	return k == ExitExactBptInForTokensOut
}

// Params carries everything fixed at pool creation. The vault address is the
// only principal permitted to invoke swap execution; the owner controls the
// schedule, the gates and the management fee.
type Params struct {
	Tokens                      []common.Address
	Decimals                    []uint8
	NormalizedWeights           []fp.Dec
	SwapFeePercentage           fp.Dec
	ProtocolFeePercentage       fp.Dec
	ManagementSwapFeePercentage fp.Dec
	Owner                       common.Address
	Vault                       common.Address
	ProtocolFeeRecipient        common.Address
	SwapEnabledOnStart          bool
	MustAllowlistLPs            bool
	Salt                        [32]byte
}

// SwapRequest describes one swap, supplied by the vault. Balances are the
// current raw balances of every pool token in registration order. Amount is
// the in amount for given-in swaps and the out amount for given-out swaps.
type SwapRequest struct {
	Caller   common.Address
	IndexIn  int
	IndexOut int
	Amount   *uint256.Int
	Balances []*uint256.Int
	Now      uint64
}

// SwapResult carries the computed counterpart amount and the fee share mints
// the vault must apply.
type SwapResult struct {
	// Amount is the out amount for given-in swaps, the in amount for
	// given-out swaps.
	Amount *uint256.Int
	// ProtocolFeeShares is minted to the protocol fee recipient.
	ProtocolFeeShares fp.Dec
	// ManagementFeeShares is minted to the pool owner.
	ManagementFeeShares fp.Dec
}

// JoinResult carries the share mint and the raw deposits the vault must pull.
type JoinResult struct {
	BptOut    fp.Dec
	AmountsIn []*uint256.Int
}

// ExitResult carries the share burn and the raw withdrawals the vault must
// release.
type ExitResult struct {
	BptIn      fp.Dec
	AmountsOut []*uint256.Int
}

// WeightUpdateParams is the read-only view of the installed schedule.
type WeightUpdateParams struct {
	StartTime  uint64
	EndTime    uint64
	EndWeights []fp.Dec
}
