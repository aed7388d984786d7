// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"testing"

	sdkmath "cosmossdk.io/math"

	fp "github.com/luxfi/weightedpool/fixedpoint"
)

func decsEqualWithin(t *testing.T, got, want []fp.Dec, tol fp.Dec) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Sub(want[i]).Abs().GT(tol) {
			t.Fatalf("weight %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestWeightsBeforeStartAndAfterEnd(t *testing.T) {
	p := newTestPool(t)

	start := testNow + 100
	end := testNow + 200
	endWeights := []fp.Dec{dec("0.2"), dec("0.8")}
	if err := p.UpdateWeightsGradually(testOwner, start, end, endWeights, testNow); err != nil {
		t.Fatalf("UpdateWeightsGradually failed: %v", err)
	}

	tol := dec("0.0001")
	decsEqualWithin(t, p.NormalizedWeights(testNow+50), []fp.Dec{dec("0.8"), dec("0.2")}, tol)
	decsEqualWithin(t, p.NormalizedWeights(end), endWeights, tol)
	decsEqualWithin(t, p.NormalizedWeights(end+1_000_000), endWeights, tol)
}

func TestWeightsInterpolateLinearly(t *testing.T) {
	p := newTestPool(t)

	start := testNow
	const duration = 10_000
	endWeights := []fp.Dec{dec("0.2"), dec("0.8")}
	if err := p.UpdateWeightsGradually(testOwner, start, start+duration, endWeights, testNow); err != nil {
		t.Fatalf("UpdateWeightsGradually failed: %v", err)
	}

	// Sample every 5% of the window against the closed-form line.
	tol := dec("0.005")
	for step := 0; step <= 20; step++ {
		now := start + uint64(step)*duration/20
		frac := fp.DivDown(sdkmath.LegacyNewDec(int64(step)), sdkmath.LegacyNewDec(20))
		want := []fp.Dec{
			dec("0.8").Sub(fp.MulDown(dec("0.6"), frac)),
			dec("0.2").Add(fp.MulDown(dec("0.6"), frac)),
		}
		decsEqualWithin(t, p.NormalizedWeights(now), want, tol)

		sum := sdkmath.LegacyZeroDec()
		for _, w := range p.NormalizedWeights(now) {
			sum = sum.Add(w)
		}
		if sum.Sub(dec("1")).Abs().GT(dec("0.0000001")) {
			t.Fatalf("step %d: weights sum to %s", step, sum)
		}
	}
}

func TestUpdateFastForwardsPastStart(t *testing.T) {
	p := newTestPool(t)

	endWeights := []fp.Dec{dec("0.2"), dec("0.8")}
	if err := p.UpdateWeightsGradually(testOwner, testNow-100, testNow+100, endWeights, testNow); err != nil {
		t.Fatalf("UpdateWeightsGradually failed: %v", err)
	}

	params := p.GradualWeightUpdateParams()
	if params.StartTime != testNow {
		t.Fatalf("start time %d, want fast-forward to %d", params.StartTime, testNow)
	}
	if params.EndTime != testNow+100 {
		t.Fatalf("end time %d changed by fast-forward", params.EndTime)
	}

	// Halfway through the shortened window.
	decsEqualWithin(t, p.NormalizedWeights(testNow+50), []fp.Dec{dec("0.5"), dec("0.5")}, dec("0.0001"))
}

func TestUpdateStartsFromCurrentWeights(t *testing.T) {
	p := newTestPool(t)

	first := []fp.Dec{dec("0.2"), dec("0.8")}
	if err := p.UpdateWeightsGradually(testOwner, testNow, testNow+100, first, testNow); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	// Halfway through the first update the weights are [0.5, 0.5]; a second
	// update installed at that instant must depart from there, not from the
	// original creation weights.
	mid := testNow + 50
	second := []fp.Dec{dec("0.9"), dec("0.1")}
	if err := p.UpdateWeightsGradually(testOwner, mid, mid+100, second, mid); err != nil {
		t.Fatalf("second update failed: %v", err)
	}

	decsEqualWithin(t, p.NormalizedWeights(mid), []fp.Dec{dec("0.5"), dec("0.5")}, dec("0.0001"))
	decsEqualWithin(t, p.NormalizedWeights(mid+100), second, dec("0.0001"))
}

func TestUpdateWeightsGraduallyOwnerOnly(t *testing.T) {
	p := newTestPool(t)

	endWeights := []fp.Dec{dec("0.2"), dec("0.8")}
	err := p.UpdateWeightsGradually(testOutsider, testNow, testNow+100, endWeights, testNow)
	if err != ErrSenderNotAllowed {
		t.Fatalf("want ErrSenderNotAllowed, got %v", err)
	}
}

func TestUpdateWeightsGraduallyValidation(t *testing.T) {
	p := newTestPool(t)

	err := p.UpdateWeightsGradually(testOwner, testNow+200, testNow+100, []fp.Dec{dec("0.2"), dec("0.8")}, testNow)
	if err != ErrGradualUpdateTimeTravel {
		t.Fatalf("want ErrGradualUpdateTimeTravel, got %v", err)
	}

	err = p.UpdateWeightsGradually(testOwner, testNow, testNow+100, []fp.Dec{dec("0.995"), dec("0.005")}, testNow)
	if err != ErrMinWeight {
		t.Fatalf("want ErrMinWeight, got %v", err)
	}

	err = p.UpdateWeightsGradually(testOwner, testNow, testNow+100, []fp.Dec{dec("0.3"), dec("0.8")}, testNow)
	if err != ErrNormalizedWeightInvariant {
		t.Fatalf("want ErrNormalizedWeightInvariant, got %v", err)
	}

	err = p.UpdateWeightsGradually(testOwner, testNow, testNow+100, []fp.Dec{dec("1")}, testNow)
	if err != ErrInputLengthMismatch {
		t.Fatalf("want ErrInputLengthMismatch, got %v", err)
	}

	// A zero-value Dec entry is nil-backed and rejected as below minimum.
	err = p.UpdateWeightsGradually(testOwner, testNow, testNow+100, []fp.Dec{{}, dec("0.8")}, testNow)
	if err != ErrMinWeight {
		t.Fatalf("want ErrMinWeight for nil weight, got %v", err)
	}
}

// TestUpdateWindowEntirelyInPast pins the fast-forward behavior for a window
// that already closed: both bounds clamp to now and the end weights take
// effect immediately, so the stored schedule is never inverted.
func TestUpdateWindowEntirelyInPast(t *testing.T) {
	p := newTestPool(t)

	endWeights := []fp.Dec{dec("0.2"), dec("0.8")}
	if err := p.UpdateWeightsGradually(testOwner, testNow-200, testNow-100, endWeights, testNow); err != nil {
		t.Fatalf("UpdateWeightsGradually failed: %v", err)
	}

	params := p.GradualWeightUpdateParams()
	if params.StartTime != testNow || params.EndTime != testNow {
		t.Fatalf("stored window [%d, %d], want clamped to [%d, %d]",
			params.StartTime, params.EndTime, testNow, testNow)
	}
	decsEqualWithin(t, p.NormalizedWeights(testNow), endWeights, dec("0.0001"))
}
