// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/luxfi/geth/common"
)

// AddAllowedAddress inserts an address into the LP allowlist. Only the owner
// may call it, and only while the allowlist gate is active: adding to a
// dormant list would silently change behavior at the moment the gate is
// re-enabled.
func (p *Pool) AddAllowedAddress(caller, addr common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.owner {
		return ErrSenderNotAllowed
	}
	if !p.mustAllowlistLPs {
		return ErrUnauthorizedOperation
	}
	if _, ok := p.allowlist[addr]; ok {
		return ErrAddressAlreadyAllowlisted
	}
	p.allowlist[addr] = struct{}{}

	p.log.Info().Str("address", addr.Hex()).Msg("address allowlisted")
	return nil
}

// RemoveAllowedAddress removes an address from the LP allowlist. Removal is
// NOT gated on mustAllowlistLPs: the owner may prune membership while the
// gate is off, but the address must actually be present.
func (p *Pool) RemoveAllowedAddress(caller, addr common.Address) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.owner {
		return ErrSenderNotAllowed
	}
	if _, ok := p.allowlist[addr]; !ok {
		return ErrAddressNotAllowlisted
	}
	delete(p.allowlist, addr)

	p.log.Info().Str("address", addr.Hex()).Msg("address removed from allowlist")
	return nil
}

// SetMustAllowlistLPs toggles the allowlist gate. The stored membership set
// is untouched: toggling off and back on restores the prior allowlist.
func (p *Pool) SetMustAllowlistLPs(caller common.Address, value bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.owner {
		return ErrSenderNotAllowed
	}
	p.mustAllowlistLPs = value

	p.log.Info().Bool("must_allowlist_lps", value).Msg("allowlist gate toggled")
	return nil
}

// SetSwapEnabled toggles trading. While disabled, swaps are rejected outright
// and joins/exits are restricted to proportional shapes.
func (p *Pool) SetSwapEnabled(caller common.Address, value bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if caller != p.owner {
		return ErrSenderNotAllowed
	}
	p.swapEnabled = value

	p.log.Info().Bool("swap_enabled", value).Msg("swap mode toggled")
	return nil
}

// IsAllowedAddress reports allowlist membership. Membership is meaningful
// regardless of whether the gate is currently active.
func (p *Pool) IsAllowedAddress(addr common.Address) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.allowlist[addr]
	return ok
}

// MustAllowlistLPs reports whether the allowlist gate is active.
func (p *Pool) MustAllowlistLPs() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mustAllowlistLPs
}

// SwapEnabled reports whether trading is enabled.
func (p *Pool) SwapEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.swapEnabled
}

// checkJoinAllowed enforces the allowlist gate on joins. Exits are never
// gated. Callers hold p.mu.
func (p *Pool) checkJoinAllowed(lp common.Address) error {
	if !p.mustAllowlistLPs {
		return nil
	}
	if _, ok := p.allowlist[lp]; !ok {
		return ErrAddressNotAllowlisted
	}
	return nil
}
