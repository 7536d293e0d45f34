package events

import (
	"math/big"

	"lstchain/core/types"
)

const (
	// TypeCurrencyRegistered is emitted when a new currency enters the registry.
	TypeCurrencyRegistered = "currency.registered"
	// TypeCurrencyUpdated captures limit or name changes on a currency.
	TypeCurrencyUpdated = "currency.updated"
	// TypeCurrencyRateSet records a pending conversion rate for the next era.
	TypeCurrencyRateSet = "currency.rateSet"
	// TypeCurrencyDestroyed marks the irreversible removal of a currency.
	TypeCurrencyDestroyed = "currency.destroyed"
)

// CurrencyRegistered captures the registration of a currency.
type CurrencyRegistered struct {
	ID       uint32
	Name     string
	Decimals uint8
	MaxBond  *big.Int
	MinBond  *big.Int
	Rate     *big.Int
}

// EventType satisfies the Event interface.
func (CurrencyRegistered) EventType() string { return TypeCurrencyRegistered }

// Event converts the structured payload into a broadcastable event.
func (e CurrencyRegistered) Event() *types.Event {
	return &types.Event{Type: TypeCurrencyRegistered, Attributes: map[string]string{
		"id":       formatUint(uint64(e.ID)),
		"name":     e.Name,
		"decimals": formatUint(uint64(e.Decimals)),
		"maxBond":  formatAmount(e.MaxBond),
		"minBond":  formatAmount(e.MinBond),
		"rate":     formatAmount(e.Rate),
	}}
}

// CurrencyUpdated captures mutated currency metadata.
type CurrencyUpdated struct {
	ID      uint32
	Name    string
	MaxBond *big.Int
	MinBond *big.Int
}

// EventType satisfies the Event interface.
func (CurrencyUpdated) EventType() string { return TypeCurrencyUpdated }

// Event converts the structured payload into a broadcastable event.
func (e CurrencyUpdated) Event() *types.Event {
	return &types.Event{Type: TypeCurrencyUpdated, Attributes: map[string]string{
		"id":      formatUint(uint64(e.ID)),
		"name":    e.Name,
		"maxBond": formatAmount(e.MaxBond),
		"minBond": formatAmount(e.MinBond),
	}}
}

// CurrencyRateSet captures a pending conversion rate taking effect next era.
type CurrencyRateSet struct {
	ID   uint32
	Rate *big.Int
}

// EventType satisfies the Event interface.
func (CurrencyRateSet) EventType() string { return TypeCurrencyRateSet }

// Event converts the structured payload into a broadcastable event.
func (e CurrencyRateSet) Event() *types.Event {
	return &types.Event{Type: TypeCurrencyRateSet, Attributes: map[string]string{
		"id":   formatUint(uint64(e.ID)),
		"rate": formatAmount(e.Rate),
	}}
}

// CurrencyDestroyed marks a currency removed from the registry.
type CurrencyDestroyed struct {
	ID uint32
}

// EventType satisfies the Event interface.
func (CurrencyDestroyed) EventType() string { return TypeCurrencyDestroyed }

// Event converts the structured payload into a broadcastable event.
func (e CurrencyDestroyed) Event() *types.Event {
	return &types.Event{Type: TypeCurrencyDestroyed, Attributes: map[string]string{
		"id": formatUint(uint64(e.ID)),
	}}
}
