package events

import (
	"math/big"

	"lstchain/core/types"
)

const (
	// TypeEraStarted summarises the exposure snapshot taken for a new era.
	TypeEraStarted = "pools.eraStarted"
	// TypeEraProcessed summarises the reward pass run when an era ends.
	TypeEraProcessed = "pools.eraProcessed"
	// TypeRewardRecorded is emitted per pool once an era reward is written.
	TypeRewardRecorded = "pools.rewardRecorded"
	// TypeRewardMissed records a reward a pool could not cover.
	TypeRewardMissed = "pools.rewardMissed"
	// TypeRewardClaimed is emitted when a member claims their pro-rata share.
	TypeRewardClaimed = "pools.rewardClaimed"
)

// EraStarted summarises the snapshot taken when a new era begins.
type EraStarted struct {
	Era      uint64
	Exposed  uint64
	TotalTVL *big.Int
}

// EventType satisfies the Event interface.
func (EraStarted) EventType() string { return TypeEraStarted }

// Event converts the structured payload into a broadcastable event.
func (e EraStarted) Event() *types.Event {
	return &types.Event{Type: TypeEraStarted, Attributes: map[string]string{
		"era":     formatUint(e.Era),
		"exposed": formatUint(e.Exposed),
		"tvl":     formatAmount(e.TotalTVL),
	}}
}

// EraProcessed summarises the era-end reward computation.
type EraProcessed struct {
	Era        uint64
	Rewarded   uint64
	Paused     uint64
	TotalBase  *big.Int
	TotalBoost *big.Int
}

// EventType satisfies the Event interface.
func (EraProcessed) EventType() string { return TypeEraProcessed }

// Event converts the structured payload into a broadcastable event.
func (e EraProcessed) Event() *types.Event {
	return &types.Event{Type: TypeEraProcessed, Attributes: map[string]string{
		"era":        formatUint(e.Era),
		"rewarded":   formatUint(e.Rewarded),
		"paused":     formatUint(e.Paused),
		"totalBase":  formatAmount(e.TotalBase),
		"totalBoost": formatAmount(e.TotalBoost),
	}}
}

// RewardRecorded captures a per-pool era reward entry.
type RewardRecorded struct {
	Era   uint64
	Pool  uint32
	Base  *big.Int
	Boost *big.Int
	Retry bool
}

// EventType satisfies the Event interface.
func (RewardRecorded) EventType() string { return TypeRewardRecorded }

// Event converts the structured payload into a broadcastable event.
func (e RewardRecorded) Event() *types.Event {
	attrs := map[string]string{
		"era":   formatUint(e.Era),
		"pool":  formatUint(uint64(e.Pool)),
		"base":  formatAmount(e.Base),
		"boost": formatAmount(e.Boost),
	}
	if e.Retry {
		attrs["retry"] = "true"
	}
	return &types.Event{Type: TypeRewardRecorded, Attributes: attrs}
}

// RewardMissed records a payout the pool funds account could not cover.
type RewardMissed struct {
	Era    uint64
	Pool   uint32
	Amount *big.Int
	Reason string
}

// EventType satisfies the Event interface.
func (RewardMissed) EventType() string { return TypeRewardMissed }

// Event converts the structured payload into a broadcastable event.
func (e RewardMissed) Event() *types.Event {
	return &types.Event{Type: TypeRewardMissed, Attributes: map[string]string{
		"era":    formatUint(e.Era),
		"pool":   formatUint(uint64(e.Pool)),
		"amount": formatAmount(e.Amount),
		"reason": e.Reason,
	}}
}

// RewardClaimed captures a member's reward payout, optionally compounded into
// the native pool.
type RewardClaimed struct {
	Era        uint64
	Pool       uint32
	User       [20]byte
	Amount     *big.Int
	Compounded bool
}

// EventType satisfies the Event interface.
func (RewardClaimed) EventType() string { return TypeRewardClaimed }

// Event converts the structured payload into a broadcastable event.
func (e RewardClaimed) Event() *types.Event {
	attrs := map[string]string{
		"era":    formatUint(e.Era),
		"pool":   formatUint(uint64(e.Pool)),
		"user":   formatAddr(e.User),
		"amount": formatAmount(e.Amount),
	}
	if e.Compounded {
		attrs["compounded"] = "true"
	}
	return &types.Event{Type: TypeRewardClaimed, Attributes: attrs}
}
