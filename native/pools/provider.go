package pools

import "math/big"

// SlashPayout is one pool funds account hit by a slash, with the amount the
// validator-staking system attributed to it.
type SlashPayout struct {
	Account [20]byte
	Amount  *big.Int
}

// SlashRecord mirrors one entry of the validator-staking system's unapplied
// slash list for an era.
type SlashRecord struct {
	Validator [20]byte
	Payouts   []SlashPayout
}

// StakingProvider is the narrow read interface onto the underlying
// validator-staking system. The pools ledger never mutates it.
type StakingProvider interface {
	// IsValidator reports whether the address is currently a valid
	// nomination target.
	IsValidator(addr [20]byte) bool
	// ValidatorsEarnedPoints reports whether any of the given validators
	// earned consensus points during the era.
	ValidatorsEarnedPoints(era uint64, validators [][20]byte) (bool, error)
	// UnappliedSlashes returns the era's unapplied slash list in the
	// ordering the staking system exposes to slash-cancel calls.
	UnappliedSlashes(era uint64) ([]SlashRecord, error)
}
