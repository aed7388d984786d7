// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"bytes"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/luxfi/geth/common"

	fp "github.com/luxfi/weightedpool/fixedpoint"
	"github.com/luxfi/weightedpool/pool"
)

func newPool(t *testing.T, salt byte) *pool.Pool {
	t.Helper()

	params := pool.Params{
		Tokens: []common.Address{
			common.HexToAddress("0xaaaa000000000000000000000000000000000001"),
			common.HexToAddress("0xaaaa000000000000000000000000000000000002"),
		},
		Decimals: []uint8{18, 6},
		NormalizedWeights: []fp.Dec{
			sdkmath.LegacyMustNewDecFromStr("0.5"),
			sdkmath.LegacyMustNewDecFromStr("0.5"),
		},
		SwapFeePercentage:     sdkmath.LegacyMustNewDecFromStr("0.01"),
		ProtocolFeePercentage: sdkmath.LegacyMustNewDecFromStr("0.5"),
		Owner:                 common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Vault:                 common.HexToAddress("0x2222222222222222222222222222222222222222"),
		ProtocolFeeRecipient:  common.HexToAddress("0x3333333333333333333333333333333333333333"),
		SwapEnabledOnStart:    true,
		Salt:                  [32]byte{salt},
	}
	p, err := pool.New(params, 1_700_000_000)
	if err != nil {
		t.Fatalf("pool.New failed: %v", err)
	}
	return p
}

func TestRegisterAndLookup(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	p := newPool(t, 1)
	if err := Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := Lookup(p.ID())
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got != p {
		t.Fatal("Lookup returned a different pool")
	}
}

func TestRegisterDuplicateID(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	p := newPool(t, 1)
	if err := Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := Register(p); err != ErrPoolIDExists {
		t.Fatalf("want ErrPoolIDExists, got %v", err)
	}
}

func TestLookupUnknownID(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, err := Lookup(pool.ID{0xff}); err != ErrPoolNotFound {
		t.Fatalf("want ErrPoolNotFound, got %v", err)
	}
}

func TestRegisteredPoolsSortedByID(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	for salt := byte(1); salt <= 8; salt++ {
		if err := Register(newPool(t, salt)); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	pools := RegisteredPools()
	if len(pools) != 8 {
		t.Fatalf("registered 8 pools, got %d", len(pools))
	}
	for i := 1; i < len(pools); i++ {
		prev, cur := pools[i-1].ID(), pools[i].ID()
		if bytes.Compare(prev[:], cur[:]) >= 0 {
			t.Fatalf("pools out of ID order at index %d", i)
		}
	}
}

func TestReset(t *testing.T) {
	Reset()

	if err := Register(newPool(t, 1)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	Reset()
	if len(RegisteredPools()) != 0 {
		t.Fatal("Reset left pools registered")
	}
}
