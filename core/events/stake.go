package events

import (
	"math/big"

	"lstchain/core/types"
)

const (
	// TypeStaked captures point accrual triggered by a stake.
	TypeStaked = "pools.staked"
	// TypeCompoundingSet records a compounding flag toggle.
	TypeCompoundingSet = "pools.compoundingSet"
	// TypeUnbonded captures points converted into a pending withdrawal.
	TypeUnbonded = "pools.unbonded"
	// TypeWithdrawn is emitted when matured unbonding chunks are released.
	TypeWithdrawn = "pools.withdrawn"
)

// Staked captures the point delta realised when staking into a pool.
type Staked struct {
	Pool   uint32
	User   [20]byte
	Amount *big.Int
	Points *big.Int
	Joined bool
}

// EventType satisfies the Event interface.
func (Staked) EventType() string { return TypeStaked }

// Event converts the structured payload into a broadcastable event.
func (e Staked) Event() *types.Event {
	attrs := map[string]string{
		"pool":   formatUint(uint64(e.Pool)),
		"user":   formatAddr(e.User),
		"amount": formatAmount(e.Amount),
		"points": formatAmount(e.Points),
	}
	if e.Joined {
		attrs["joined"] = "true"
	}
	return &types.Event{Type: TypeStaked, Attributes: attrs}
}

// CompoundingSet records a compounding preference change.
type CompoundingSet struct {
	Pool    uint32
	User    [20]byte
	Enabled bool
}

// EventType satisfies the Event interface.
func (CompoundingSet) EventType() string { return TypeCompoundingSet }

// Event converts the structured payload into a broadcastable event.
func (e CompoundingSet) Event() *types.Event {
	enabled := "false"
	if e.Enabled {
		enabled = "true"
	}
	return &types.Event{Type: TypeCompoundingSet, Attributes: map[string]string{
		"pool":    formatUint(uint64(e.Pool)),
		"user":    formatAddr(e.User),
		"enabled": enabled,
	}}
}

// Unbonded captures points moved into the unbonding queue.
type Unbonded struct {
	Pool   uint32
	User   [20]byte
	Amount *big.Int
	Points *big.Int
	Era    uint64
}

// EventType satisfies the Event interface.
func (Unbonded) EventType() string { return TypeUnbonded }

// Event converts the structured payload into a broadcastable event.
func (e Unbonded) Event() *types.Event {
	return &types.Event{Type: TypeUnbonded, Attributes: map[string]string{
		"pool":   formatUint(uint64(e.Pool)),
		"user":   formatAddr(e.User),
		"amount": formatAmount(e.Amount),
		"points": formatAmount(e.Points),
		"era":    formatUint(e.Era),
	}}
}

// Withdrawn captures matured unbonding funds returned to a member.
type Withdrawn struct {
	Pool    uint32
	User    [20]byte
	Amount  *big.Int
	Removed bool
}

// EventType satisfies the Event interface.
func (Withdrawn) EventType() string { return TypeWithdrawn }

// Event converts the structured payload into a broadcastable event.
func (e Withdrawn) Event() *types.Event {
	attrs := map[string]string{
		"pool":   formatUint(uint64(e.Pool)),
		"user":   formatAddr(e.User),
		"amount": formatAmount(e.Amount),
	}
	if e.Removed {
		attrs["membershipRemoved"] = "true"
	}
	return &types.Event{Type: TypeWithdrawn, Attributes: attrs}
}
