package events

import (
	"strings"

	"lstchain/core/types"
)

const (
	// TypePoolCreated is emitted when a pool is registered in the Paused state.
	TypePoolCreated = "pools.created"
	// TypePoolUpdated captures APY, state, nominator or boost changes.
	TypePoolUpdated = "pools.updated"
	// TypePoolNominated records a refreshed validator target list.
	TypePoolNominated = "pools.nominated"
	// TypePoolPaused signals that the reward pass paused an underfunded pool.
	TypePoolPaused = "pools.paused"
	// TypePoolDestroying marks the one-way transition into teardown.
	TypePoolDestroying = "pools.destroying"
	// TypePoolDestroyed marks final pool removal and account sweep.
	TypePoolDestroyed = "pools.destroyed"
)

// PoolCreated captures a freshly registered pool.
type PoolCreated struct {
	ID        uint32
	Currency  uint32
	APY       uint64
	Funds     [20]byte
	Claimable [20]byte
}

// EventType satisfies the Event interface.
func (PoolCreated) EventType() string { return TypePoolCreated }

// Event converts the structured payload into a broadcastable event.
func (e PoolCreated) Event() *types.Event {
	return &types.Event{Type: TypePoolCreated, Attributes: map[string]string{
		"id":        formatUint(uint64(e.ID)),
		"currency":  formatUint(uint64(e.Currency)),
		"apy":       formatUint(e.APY),
		"funds":     formatAddr(e.Funds),
		"claimable": formatAddr(e.Claimable),
	}}
}

// PoolUpdated captures a pool mutation through the update command.
type PoolUpdated struct {
	ID    uint32
	APY   uint64
	State string
}

// EventType satisfies the Event interface.
func (PoolUpdated) EventType() string { return TypePoolUpdated }

// Event converts the structured payload into a broadcastable event.
func (e PoolUpdated) Event() *types.Event {
	return &types.Event{Type: TypePoolUpdated, Attributes: map[string]string{
		"id":    formatUint(uint64(e.ID)),
		"apy":   formatUint(e.APY),
		"state": e.State,
	}}
}

// PoolNominated captures the validator targets backing a pool.
type PoolNominated struct {
	ID      uint32
	Targets [][20]byte
}

// EventType satisfies the Event interface.
func (PoolNominated) EventType() string { return TypePoolNominated }

// Event converts the structured payload into a broadcastable event.
func (e PoolNominated) Event() *types.Event {
	targets := make([]string, 0, len(e.Targets))
	for _, target := range e.Targets {
		targets = append(targets, formatAddr(target))
	}
	return &types.Event{Type: TypePoolNominated, Attributes: map[string]string{
		"id":      formatUint(uint64(e.ID)),
		"targets": strings.Join(targets, ","),
	}}
}

// PoolPaused records the degraded-service pause applied during a reward pass.
type PoolPaused struct {
	ID     uint32
	Era    uint64
	Reason string
}

// EventType satisfies the Event interface.
func (PoolPaused) EventType() string { return TypePoolPaused }

// Event converts the structured payload into a broadcastable event.
func (e PoolPaused) Event() *types.Event {
	return &types.Event{Type: TypePoolPaused, Attributes: map[string]string{
		"id":     formatUint(uint64(e.ID)),
		"era":    formatUint(e.Era),
		"reason": e.Reason,
	}}
}

// PoolDestroying marks the start of pool teardown.
type PoolDestroying struct {
	ID uint32
}

// EventType satisfies the Event interface.
func (PoolDestroying) EventType() string { return TypePoolDestroying }

// Event converts the structured payload into a broadcastable event.
func (e PoolDestroying) Event() *types.Event {
	return &types.Event{Type: TypePoolDestroying, Attributes: map[string]string{
		"id": formatUint(uint64(e.ID)),
	}}
}

// PoolDestroyed marks final pool removal.
type PoolDestroyed struct {
	ID          uint32
	Destination [20]byte
}

// EventType satisfies the Event interface.
func (PoolDestroyed) EventType() string { return TypePoolDestroyed }

// Event converts the structured payload into a broadcastable event.
func (e PoolDestroyed) Event() *types.Event {
	attrs := map[string]string{"id": formatUint(uint64(e.ID))}
	if !zeroAddress(e.Destination) {
		attrs["destination"] = formatAddr(e.Destination)
	}
	return &types.Event{Type: TypePoolDestroyed, Attributes: attrs}
}
