package pools

import (
	"errors"
	"math/big"
)

// SecondsPerYear is the accounting year used when scaling APY by era duration.
const SecondsPerYear uint64 = 31_536_000

// NativeCurrencyID is the distinguished currency every other registration
// depends on.
const NativeCurrencyID uint32 = 0

// NativePoolID is the distinguished pool compounded rewards re-stake into.
const NativePoolID uint32 = 0

// Params bundles the static configuration of the pools module.
type Params struct {
	// BondingDuration is the number of eras an unbonding chunk waits before
	// it becomes withdrawable.
	BondingDuration uint64
	// HistoryDepth is how many past eras of exposures, rates, rewards and
	// claims are retained before pruning.
	HistoryDepth uint64
	// MaxPoolMembers bounds the member list of a single pool.
	MaxPoolMembers uint32
	// MaxTargets bounds a pool's validator target list.
	MaxTargets uint32
	// MaxUnbondingEras bounds the per-membership list of eras with pending
	// unbonding chunks.
	MaxUnbondingEras uint32
	// MaxPendingSlashes bounds the per-pool pending slash queue.
	MaxPendingSlashes uint32
	// MaxBoostMembers bounds a pool's boost-eligible member set.
	MaxBoostMembers uint32
	// ExistentialDeposit is the minimum viable native balance seeded into
	// pool holding accounts and kept alive on reward transfers.
	ExistentialDeposit *big.Int
	// MaxTVL caps the system-wide native-equivalent value locked.
	MaxTVL *big.Int
	// RemainderSink receives unclaimed reward remainders swept during
	// retention pruning.
	RemainderSink [20]byte
}

// DefaultParams returns a conservative default configuration.
func DefaultParams() Params {
	return Params{
		BondingDuration:    28,
		HistoryDepth:       84,
		MaxPoolMembers:     1024,
		MaxTargets:         16,
		MaxUnbondingEras:   32,
		MaxPendingSlashes:  32,
		MaxBoostMembers:    512,
		ExistentialDeposit: big.NewInt(1),
		MaxTVL:             new(big.Int).Lsh(big.NewInt(1), 127),
	}
}

// Validate ensures the configuration values are self-consistent.
func (p Params) Validate() error {
	if p.BondingDuration == 0 {
		return errors.New("pools: bonding duration must be positive")
	}
	if p.HistoryDepth == 0 {
		return errors.New("pools: history depth must be positive")
	}
	if p.HistoryDepth <= p.BondingDuration {
		return errors.New("pools: history depth must exceed bonding duration")
	}
	if p.MaxPoolMembers == 0 || p.MaxTargets == 0 || p.MaxUnbondingEras == 0 ||
		p.MaxPendingSlashes == 0 || p.MaxBoostMembers == 0 {
		return errors.New("pools: bounded list capacities must be positive")
	}
	if p.ExistentialDeposit == nil || p.ExistentialDeposit.Sign() < 0 {
		return errors.New("pools: existential deposit must not be negative")
	}
	if p.MaxTVL == nil || p.MaxTVL.Sign() <= 0 {
		return errors.New("pools: max TVL must be positive")
	}
	return nil
}
