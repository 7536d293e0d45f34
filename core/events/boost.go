package events

import (
	"math/big"
	"strconv"
	"strings"

	"lstchain/core/types"
)

const (
	// TypeBoostConfigured records a boost offer set on a pool.
	TypeBoostConfigured = "pools.boostConfigured"
	// TypeBoostCleared records a boost offer removed from a pool.
	TypeBoostCleared = "pools.boostCleared"
	// TypeBoostOptimised captures a user's boost reallocation.
	TypeBoostOptimised = "pools.boostOptimised"
	// TypeSlashDestinationSet records the configured slash proceeds address.
	TypeSlashDestinationSet = "pools.slashDestinationSet"
)

// BoostConfigured captures a boost offer set on a pool.
type BoostConfigured struct {
	Pool       uint32
	ExtraAPY   uint64
	MinBalance *big.Int
}

// EventType satisfies the Event interface.
func (BoostConfigured) EventType() string { return TypeBoostConfigured }

// Event converts the structured payload into a broadcastable event.
func (e BoostConfigured) Event() *types.Event {
	return &types.Event{Type: TypeBoostConfigured, Attributes: map[string]string{
		"pool":       formatUint(uint64(e.Pool)),
		"extraApy":   formatUint(e.ExtraAPY),
		"minBalance": formatAmount(e.MinBalance),
	}}
}

// BoostCleared captures the removal of a pool boost offer.
type BoostCleared struct {
	Pool uint32
}

// EventType satisfies the Event interface.
func (BoostCleared) EventType() string { return TypeBoostCleared }

// Event converts the structured payload into a broadcastable event.
func (e BoostCleared) Event() *types.Event {
	return &types.Event{Type: TypeBoostCleared, Attributes: map[string]string{
		"pool": formatUint(uint64(e.Pool)),
	}}
}

// BoostOptimised captures the pools added to and removed from a user's boost
// allocation set.
type BoostOptimised struct {
	User    [20]byte
	Added   []uint32
	Removed []uint32
}

// EventType satisfies the Event interface.
func (BoostOptimised) EventType() string { return TypeBoostOptimised }

// Event converts the structured payload into a broadcastable event.
func (e BoostOptimised) Event() *types.Event {
	return &types.Event{Type: TypeBoostOptimised, Attributes: map[string]string{
		"user":    formatAddr(e.User),
		"added":   joinPoolIDs(e.Added),
		"removed": joinPoolIDs(e.Removed),
	}}
}

// SlashDestinationSet records the address receiving slash proceeds.
type SlashDestinationSet struct {
	Destination [20]byte
}

// EventType satisfies the Event interface.
func (SlashDestinationSet) EventType() string { return TypeSlashDestinationSet }

// Event converts the structured payload into a broadcastable event.
func (e SlashDestinationSet) Event() *types.Event {
	return &types.Event{Type: TypeSlashDestinationSet, Attributes: map[string]string{
		"destination": formatAddr(e.Destination),
	}}
}

func joinPoolIDs(ids []uint32) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}
