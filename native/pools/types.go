package pools

import "math/big"

// PoolState models the pool lifecycle. Destroying is a one-way gate; the
// terminal "removed" condition is the deletion of the pool record itself.
type PoolState uint8

const (
	// PoolStatePaused blocks joins and reward accrual. Pools are created
	// Paused and return to Paused when a reward pass cannot fund them.
	PoolStatePaused PoolState = iota
	// PoolStateOpen accepts new members and top-ups.
	PoolStateOpen
	// PoolStateBlocked accepts top-ups from existing members only.
	PoolStateBlocked
	// PoolStateDestroying marks the pool for teardown; only cleanup
	// operations remain permitted.
	PoolStateDestroying
)

// String renders the state for events and logs.
func (s PoolState) String() string {
	switch s {
	case PoolStatePaused:
		return "paused"
	case PoolStateOpen:
		return "open"
	case PoolStateBlocked:
		return "blocked"
	case PoolStateDestroying:
		return "destroying"
	default:
		return "unknown"
	}
}

// Currency describes a registered unit of value and its running totals across
// every pool bound to it. Totals are denominated in the currency's own base
// units.
type Currency struct {
	ID             uint32
	Name           string
	Decimals       uint8
	MinBond        *big.Int
	MaxBond        *big.Int
	TotalStaked    *big.Int
	TotalUnbonding *big.Int
	TotalSlashed   *big.Int
	Destroyed      bool
}

// Clone produces a deep copy to protect internal references.
func (c *Currency) Clone() *Currency {
	if c == nil {
		return nil
	}
	clone := *c
	clone.MinBond = copyBigInt(c.MinBond)
	clone.MaxBond = copyBigInt(c.MaxBond)
	clone.TotalStaked = copyBigInt(c.TotalStaked)
	clone.TotalUnbonding = copyBigInt(c.TotalUnbonding)
	clone.TotalSlashed = copyBigInt(c.TotalSlashed)
	return &clone
}

func (c *Currency) ensureDefaults() {
	if c.MinBond == nil {
		c.MinBond = big.NewInt(0)
	}
	if c.MaxBond == nil {
		c.MaxBond = big.NewInt(0)
	}
	if c.TotalStaked == nil {
		c.TotalStaked = big.NewInt(0)
	}
	if c.TotalUnbonding == nil {
		c.TotalUnbonding = big.NewInt(0)
	}
	if c.TotalSlashed == nil {
		c.TotalSlashed = big.NewInt(0)
	}
}

// PendingSlash is a not-yet-applied slash queued against a pool. Ratio is
// fixed-point scaled by 1e18.
type PendingSlash struct {
	Era       uint64
	Validator [20]byte
	Ratio     *big.Int
}

// BoostConfig is an optional extra-yield offer on a pool. Eligibility records
// live under separate per-member keys; the config tracks the aggregate.
type BoostConfig struct {
	ExtraAPY    uint64
	MinBalance  *big.Int
	TotalPoints *big.Int
	MemberCount uint32
}

func (b *BoostConfig) ensureDefaults() {
	if b.MinBalance == nil {
		b.MinBalance = big.NewInt(0)
	}
	if b.TotalPoints == nil {
		b.TotalPoints = big.NewInt(0)
	}
}

// Pool is a staking pool bound to one currency and backing a set of
// validators. Staked/unbonding/slashed totals are denominated in the pool
// currency; points are the internal ownership unit.
type Pool struct {
	ID               uint32
	Currency         uint32
	APY              uint64
	State            PoolState
	Nominator        [20]byte
	Targets          [][20]byte
	FundsAccount     [20]byte
	ClaimableAccount [20]byte
	MemberCount      uint32
	TotalStaked      *big.Int
	TotalPoints      *big.Int
	TotalUnbonding   *big.Int
	TotalSlashed     *big.Int
	PendingSlashes   []PendingSlash
	Boost            *BoostConfig `rlp:"nil"`
}

// Clone produces a deep copy to protect internal references.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Targets = cloneAddrList(p.Targets)
	clone.TotalStaked = copyBigInt(p.TotalStaked)
	clone.TotalPoints = copyBigInt(p.TotalPoints)
	clone.TotalUnbonding = copyBigInt(p.TotalUnbonding)
	clone.TotalSlashed = copyBigInt(p.TotalSlashed)
	clone.PendingSlashes = make([]PendingSlash, len(p.PendingSlashes))
	for i, pending := range p.PendingSlashes {
		clone.PendingSlashes[i] = PendingSlash{
			Era:       pending.Era,
			Validator: pending.Validator,
			Ratio:     copyBigInt(pending.Ratio),
		}
	}
	if p.Boost != nil {
		boost := *p.Boost
		boost.MinBalance = copyBigInt(p.Boost.MinBalance)
		boost.TotalPoints = copyBigInt(p.Boost.TotalPoints)
		clone.Boost = &boost
	}
	return &clone
}

func (p *Pool) ensureDefaults() {
	if p.TotalStaked == nil {
		p.TotalStaked = big.NewInt(0)
	}
	if p.TotalPoints == nil {
		p.TotalPoints = big.NewInt(0)
	}
	if p.TotalUnbonding == nil {
		p.TotalUnbonding = big.NewInt(0)
	}
	if p.TotalSlashed == nil {
		p.TotalSlashed = big.NewInt(0)
	}
	if p.Boost != nil {
		p.Boost.ensureDefaults()
	}
}

// Membership is a user's position in one pool.
type Membership struct {
	User          [20]byte
	Pool          uint32
	JoinedEra     uint64
	Points        *big.Int
	UnbondingEras []uint64
	Compounding   bool
}

// Clone produces a deep copy to protect internal references.
func (m *Membership) Clone() *Membership {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Points = copyBigInt(m.Points)
	clone.UnbondingEras = append([]uint64(nil), m.UnbondingEras...)
	return &clone
}

func (m *Membership) ensureDefaults() {
	if m.Points == nil {
		m.Points = big.NewInt(0)
	}
}

// UnbondEntry is a single member's share of an unbonding chunk, in currency
// units. Entries shrink under slashing and are dropped once zero.
type UnbondEntry struct {
	User   [20]byte
	Amount *big.Int
}

// UnbondingChunk aggregates all withdrawals requested from a pool during one
// era, released together once the bonding duration elapses.
type UnbondingChunk struct {
	Entries []UnbondEntry
}

func (c *UnbondingChunk) total() *big.Int {
	total := big.NewInt(0)
	for _, entry := range c.Entries {
		if entry.Amount != nil {
			total.Add(total, entry.Amount)
		}
	}
	return total
}

// ExposureMember is a member's frozen point balance inside a snapshot.
type ExposureMember struct {
	User   [20]byte
	Points *big.Int
}

// BoostExposure freezes the boost-eligible subset of a pool for one era.
type BoostExposure struct {
	ExtraAPY    uint64
	TotalPoints *big.Int
	TotalValue  *big.Int
	Members     []ExposureMember
}

// Exposure is the per-era snapshot of a pool used to attribute rewards and
// slashes. It is written once per era and read-only afterwards.
type Exposure struct {
	TotalValue  *big.Int
	TotalPoints *big.Int
	APY         uint64
	Members     []ExposureMember
	Targets     [][20]byte
	Boost       *BoostExposure `rlp:"nil"`
}

// EraReward records the reward written for one pool in one era, and how much
// of it has been claimed so far.
type EraReward struct {
	Base         *big.Int
	BaseClaimed  *big.Int
	Boost        *big.Int
	BoostClaimed *big.Int
}

func (r *EraReward) ensureDefaults() {
	if r.Base == nil {
		r.Base = big.NewInt(0)
	}
	if r.BaseClaimed == nil {
		r.BaseClaimed = big.NewInt(0)
	}
	if r.Boost == nil {
		r.Boost = big.NewInt(0)
	}
	if r.BoostClaimed == nil {
		r.BoostClaimed = big.NewInt(0)
	}
}

func (r *EraReward) unclaimed() *big.Int {
	remainder := new(big.Int).Add(r.Base, r.Boost)
	remainder.Sub(remainder, r.BaseClaimed)
	remainder.Sub(remainder, r.BoostClaimed)
	if remainder.Sign() < 0 {
		return big.NewInt(0)
	}
	return remainder
}

// TVLState caps the system-wide native-equivalent value locked.
type TVLState struct {
	Current *big.Int
	Max     *big.Int
}

func (t *TVLState) ensureDefaults() {
	if t.Current == nil {
		t.Current = big.NewInt(0)
	}
	if t.Max == nil {
		t.Max = big.NewInt(0)
	}
}

func copyBigInt(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(value)
}

func cloneAddrList(list [][20]byte) [][20]byte {
	if list == nil {
		return nil
	}
	clone := make([][20]byte, len(list))
	copy(clone, list)
	return clone
}
