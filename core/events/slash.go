package events

import (
	"math/big"

	"lstchain/core/types"
)

const (
	// TypeSlashReported records a pending slash queued against a pool.
	TypeSlashReported = "pools.slashReported"
	// TypeSlashCancelled records the removal of a pending slash.
	TypeSlashCancelled = "pools.slashCancelled"
	// TypeSlashApplied captures a proportional slash hitting pool funds.
	TypeSlashApplied = "pools.slashApplied"
)

// SlashReported captures a pending slash recorded for later application.
type SlashReported struct {
	Era       uint64
	Pool      uint32
	Validator [20]byte
	Ratio     *big.Int
}

// EventType satisfies the Event interface.
func (SlashReported) EventType() string { return TypeSlashReported }

// Event converts the structured payload into a broadcastable event.
func (e SlashReported) Event() *types.Event {
	return &types.Event{Type: TypeSlashReported, Attributes: map[string]string{
		"era":       formatUint(e.Era),
		"pool":      formatUint(uint64(e.Pool)),
		"validator": formatAddr(e.Validator),
		"ratio":     formatAmount(e.Ratio),
	}}
}

// SlashCancelled captures the removal of a pending slash before application.
type SlashCancelled struct {
	Era       uint64
	Pool      uint32
	Validator [20]byte
}

// EventType satisfies the Event interface.
func (SlashCancelled) EventType() string { return TypeSlashCancelled }

// Event converts the structured payload into a broadcastable event.
func (e SlashCancelled) Event() *types.Event {
	return &types.Event{Type: TypeSlashCancelled, Attributes: map[string]string{
		"era":       formatUint(e.Era),
		"pool":      formatUint(uint64(e.Pool)),
		"validator": formatAddr(e.Validator),
	}}
}

// SlashApplied captures the proportional loss applied to staked and unbonding
// funds.
type SlashApplied struct {
	Era             uint64
	Pool            uint32
	Validator       [20]byte
	StakedSlashed   *big.Int
	UnbondingSlashed *big.Int
	Burned          bool
}

// EventType satisfies the Event interface.
func (SlashApplied) EventType() string { return TypeSlashApplied }

// Event converts the structured payload into a broadcastable event.
func (e SlashApplied) Event() *types.Event {
	attrs := map[string]string{
		"era":              formatUint(e.Era),
		"pool":             formatUint(uint64(e.Pool)),
		"validator":        formatAddr(e.Validator),
		"stakedSlashed":    formatAmount(e.StakedSlashed),
		"unbondingSlashed": formatAmount(e.UnbondingSlashed),
	}
	if e.Burned {
		attrs["burned"] = "true"
	}
	return &types.Event{Type: TypeSlashApplied, Attributes: attrs}
}
