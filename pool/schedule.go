// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	sdkmath "cosmossdk.io/math"

	"github.com/luxfi/geth/common"

	fp "github.com/luxfi/weightedpool/fixedpoint"
)

// weightSchedule holds one gradual weight update. The pool always carries
// exactly one schedule: creation installs a zero-duration schedule pinned to
// the initial weights, and every owner update replaces the whole schedule.
// There is no stored phase; the phase is recomputed from the clock on every
// read.
type weightSchedule struct {
	startTime    uint64
	endTime      uint64
	startWeights []fp.Dec
	endWeights   []fp.Dec
}

// weightsAt returns the normalized weight vector observed at the given time.
// Before startTime it is the start weights, from endTime on the end weights,
// and in between the linear interpolation per token.
func (s *weightSchedule) weightsAt(now uint64) []fp.Dec {
	switch {
	case now < s.startTime:
		return cloneDecs(s.startWeights)
	case now >= s.endTime:
		return cloneDecs(s.endWeights)
	}

	// startTime <= now < endTime implies a strictly positive duration.
	elapsed := sdkmath.LegacyNewDecFromInt(sdkmath.NewIntFromUint64(now - s.startTime))
	duration := sdkmath.LegacyNewDecFromInt(sdkmath.NewIntFromUint64(s.endTime - s.startTime))
	frac := fp.DivDown(elapsed, duration)

	weights := make([]fp.Dec, len(s.startWeights))
	for i := range weights {
		weights[i] = interpolate(s.startWeights[i], s.endWeights[i], frac)
	}
	return weights
}

// interpolate computes start + (end-start)*frac. The two-branch form keeps
// every subtraction non-negative in unsigned fixed-point terms.
func interpolate(start, end, frac fp.Dec) fp.Dec {
	if end.GTE(start) {
		return start.Add(fp.MulDown(end.Sub(start), frac))
	}
	return start.Sub(fp.MulDown(start.Sub(end), frac))
}

// UpdateWeightsGradually installs a new schedule moving from the weights in
// effect right now to endWeights over [startTime, endTime]. A start time in
// the past is fast-forwarded to now; the end time is left as given, which can
// shrink the effective duration down to zero.
func (p *Pool) UpdateWeightsGradually(caller common.Address, startTime, endTime uint64, endWeights []fp.Dec, now uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.owner {
		return ErrSenderNotAllowed
	}
	if len(endWeights) != len(p.tokens) {
		return ErrInputLengthMismatch
	}
	if startTime > endTime {
		return ErrGradualUpdateTimeTravel
	}
	if err := validateWeights(endWeights); err != nil {
		return err
	}

	if startTime < now {
		startTime = now
	}
	// A window entirely in the past degenerates to an immediate jump; clamp
	// the end so the stored schedule is never inverted.
	if endTime < startTime {
		endTime = startTime
	}

	// The starting point is whatever the current schedule resolves to at
	// this instant, read before the overwrite.
	startWeights := p.schedule.weightsAt(now)

	p.schedule = weightSchedule{
		startTime:    startTime,
		endTime:      endTime,
		startWeights: startWeights,
		endWeights:   cloneDecs(endWeights),
	}

	p.log.Info().
		Uint64("start_time", startTime).
		Uint64("end_time", endTime).
		Msg("gradual weight update scheduled")
	return nil
}

// NormalizedWeights returns the weight vector in effect at the given time.
func (p *Pool) NormalizedWeights(now uint64) []fp.Dec {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.schedule.weightsAt(now)
}

// GradualWeightUpdateParams returns the installed schedule's window and
// target weights.
func (p *Pool) GradualWeightUpdateParams() WeightUpdateParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	return WeightUpdateParams{
		StartTime:  p.schedule.startTime,
		EndTime:    p.schedule.endTime,
		EndWeights: cloneDecs(p.schedule.endWeights),
	}
}

// validateWeights enforces the per-token minimum and the sum-to-one
// invariant, within tolerance.
func validateWeights(weights []fp.Dec) error {
	sum := sdkmath.LegacyZeroDec()
	for _, w := range weights {
		if w.IsNil() || w.LT(MinWeight) {
			return ErrMinWeight
		}
		sum = sum.Add(w)
	}
	if sum.Sub(sdkmath.LegacyOneDec()).Abs().GT(weightSumTolerance) {
		return ErrNormalizedWeightInvariant
	}
	return nil
}

func cloneDecs(in []fp.Dec) []fp.Dec {
	out := make([]fp.Dec, len(in))
	copy(out, in)
	return out
}
