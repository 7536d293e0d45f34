package pools

import (
	"math/big"

	"lstchain/core/events"
)

// PoolUpdate carries the optional fields of an UpdatePool command. Nil fields
// are left untouched. RetryEras re-runs the reward computation for past eras
// the pool missed.
type PoolUpdate struct {
	APY        *uint64
	State      *PoolState
	Nominator  *[20]byte
	Boost      *BoostOffer
	ClearBoost bool
	RetryEras  []uint64
}

// BoostOffer is the extra-yield offer attached to a pool through an update.
type BoostOffer struct {
	ExtraAPY   uint64
	MinBalance *big.Int
}

func (u PoolUpdate) nominatorOnly() bool {
	return u.APY == nil && u.State == nil && u.Boost == nil &&
		!u.ClearBoost && len(u.RetryEras) == 0 && u.Nominator != nil
}

// CreatePool registers a pool in the Paused state with derived funds and
// claimable accounts. Pool 0 binds the native currency and must exist before
// any other pool.
func (e *Engine) CreatePool(caller Caller, id, currencyID uint32, apy uint64, nominator [20]byte) error {
	return e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		if _, exists, err := e.getPool(id); err != nil {
			return err
		} else if exists {
			return ErrPoolExists
		}
		if id != NativePoolID {
			if _, exists, err := e.getPool(NativePoolID); err != nil {
				return err
			} else if !exists {
				return ErrBasePoolMissing
			}
		}
		if id == NativePoolID && currencyID != NativeCurrencyID {
			return ErrNativePoolCurrency
		}
		if apy == 0 {
			return ErrInvalidAPY
		}
		if _, err := e.loadLiveCurrency(currencyID); err != nil {
			return err
		}
		pool := &Pool{
			ID:               id,
			Currency:         currencyID,
			APY:              apy,
			State:            PoolStatePaused,
			Nominator:        nominator,
			FundsAccount:     derivePoolAccount("pools/funds", id),
			ClaimableAccount: derivePoolAccount("pools/claimable", id),
		}
		pool.ensureDefaults()
		// Seed both holding accounts so reward transfers never drop them
		// below the minimum viable balance.
		if err := e.state.Mint(NativeCurrencyID, pool.FundsAccount, e.params.ExistentialDeposit); err != nil {
			return err
		}
		if err := e.state.Mint(NativeCurrencyID, pool.ClaimableAccount, e.params.ExistentialDeposit); err != nil {
			return err
		}
		if err := e.state.KVPut(fundsIndexKey(pool.FundsAccount), id); err != nil {
			return err
		}
		if err := e.storePool(pool); err != nil {
			return err
		}
		e.emit(events.PoolCreated{
			ID:        id,
			Currency:  currencyID,
			APY:       apy,
			Funds:     pool.FundsAccount,
			Claimable: pool.ClaimableAccount,
		})
		return nil
	})
}

// UpdatePool mutates a pool's APY, state, nominator or boost offer, and can
// re-run missed reward computations for past eras. The operator may change
// anything; the current nominator may only hand over the nominator role. A
// destroying pool accepts retry requests only.
func (e *Engine) UpdatePool(caller Caller, id uint32, update PoolUpdate) error {
	return e.run(func() error {
		pool, err := e.loadPool(id)
		if err != nil {
			return err
		}
		if !caller.isSystem() {
			if !update.nominatorOnly() || !caller.isUser(pool.Nominator) {
				return ErrUnauthorized
			}
		}
		if pool.State == PoolStateDestroying {
			if update.APY != nil || update.State != nil || update.Nominator != nil ||
				update.Boost != nil || update.ClearBoost {
				return ErrPoolDestroying
			}
		}
		if update.APY != nil {
			if *update.APY == 0 {
				return ErrInvalidAPY
			}
			pool.APY = *update.APY
		}
		if update.State != nil {
			next := *update.State
			if next == PoolStateDestroying {
				return ErrPoolStateInvalid
			}
			if next == PoolStateOpen || next == PoolStateBlocked {
				if len(pool.Targets) == 0 {
					return ErrNoTargets
				}
				if _, err := e.loadLiveCurrency(pool.Currency); err != nil {
					return err
				}
			}
			pool.State = next
		}
		if update.Nominator != nil {
			pool.Nominator = *update.Nominator
		}
		if update.ClearBoost {
			if err := e.clearPoolBoost(pool); err != nil {
				return err
			}
		} else if update.Boost != nil {
			if err := e.configurePoolBoost(pool, update.Boost); err != nil {
				return err
			}
		}
		if err := e.storePool(pool); err != nil {
			return err
		}
		for _, era := range update.RetryEras {
			if err := e.retryReward(era, id); err != nil {
				return err
			}
		}
		e.emit(events.PoolUpdated{ID: id, APY: pool.APY, State: pool.State.String()})
		return nil
	})
}

// Nominate replaces a pool's validator target list. Every target must be a
// currently valid validator, and pools serving members cannot drop to an
// empty list.
func (e *Engine) Nominate(caller Caller, id uint32, targets [][20]byte) error {
	return e.run(func() error {
		pool, err := e.loadPool(id)
		if err != nil {
			return err
		}
		if err := requireOperatorOr(caller, pool.Nominator); err != nil {
			return err
		}
		if pool.State == PoolStateDestroying {
			return ErrPoolDestroying
		}
		if len(targets) == 0 && (pool.State == PoolStateOpen || pool.State == PoolStateBlocked) {
			return ErrNoTargets
		}
		if uint32(len(targets)) > e.params.MaxTargets {
			return ErrCapacityExceeded
		}
		if e.provider == nil {
			return ErrNilProvider
		}
		for _, target := range targets {
			if !e.provider.IsValidator(target) {
				return ErrInvalidValidator
			}
		}
		pool.Targets = cloneAddrList(targets)
		if err := e.storePool(pool); err != nil {
			return err
		}
		e.emit(events.PoolNominated{ID: id, Targets: cloneAddrList(targets)})
		return nil
	})
}

// DestroyPool drives the two-phase teardown. The first call flips any state
// into Destroying. Once every member has unbonded, withdrawn and claimed, a
// second call sweeps the holding accounts to destination, deletes the pool's
// records and removes the pool.
func (e *Engine) DestroyPool(caller Caller, id uint32, destination *[20]byte) error {
	return e.run(func() error {
		pool, err := e.loadPool(id)
		if err != nil {
			return err
		}
		if err := requireOperatorOr(caller, pool.Nominator); err != nil {
			return err
		}
		if pool.State != PoolStateDestroying {
			pool.State = PoolStateDestroying
			if err := e.storePool(pool); err != nil {
				return err
			}
			e.emit(events.PoolDestroying{ID: id})
			return nil
		}
		if pool.MemberCount != 0 || pool.TotalPoints.Sign() != 0 ||
			pool.TotalStaked.Sign() != 0 || pool.TotalUnbonding.Sign() != 0 {
			return ErrPoolNotEmpty
		}
		unclaimed, err := e.poolHasUnclaimedRewards(id)
		if err != nil {
			return err
		}
		if unclaimed {
			return ErrPoolNotEmpty
		}
		var dest [20]byte
		if destination != nil {
			dest = *destination
		}
		if err := e.sweepPoolAccounts(pool, destination); err != nil {
			return err
		}
		if err := e.deletePoolRecords(pool); err != nil {
			return err
		}
		e.emit(events.PoolDestroyed{ID: id, Destination: dest})
		return nil
	})
}

// poolHasUnclaimedRewards scans the retention window for reward records with
// an unclaimed remainder.
func (e *Engine) poolHasUnclaimedRewards(id uint32) (bool, error) {
	oldest := uint64(0)
	if e.currentEra > e.params.HistoryDepth {
		oldest = e.currentEra - e.params.HistoryDepth
	}
	for era := oldest; era <= e.currentEra; era++ {
		reward := new(EraReward)
		ok, err := e.state.KVGet(rewardKey(era, id), reward)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		reward.ensureDefaults()
		if reward.unclaimed().Sign() > 0 {
			return true, nil
		}
	}
	return false, nil
}

// sweepPoolAccounts transfers every remaining balance on the pool's holding
// accounts to the destination. Leftovers without a destination fail the
// destroy.
func (e *Engine) sweepPoolAccounts(pool *Pool, destination *[20]byte) error {
	currencies := []uint32{NativeCurrencyID}
	if pool.Currency != NativeCurrencyID {
		currencies = append(currencies, pool.Currency)
	}
	for _, account := range [][20]byte{pool.FundsAccount, pool.ClaimableAccount} {
		for _, currencyID := range currencies {
			balance, err := e.state.Balance(currencyID, account)
			if err != nil {
				return err
			}
			if balance.Sign() == 0 {
				continue
			}
			if destination == nil {
				return ErrMissingDestination
			}
			if err := e.state.Transfer(currencyID, account, *destination, balance, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// deletePoolRecords removes every record keyed to the pool: era exposures,
// rewards, claims and missed markers inside the retention window, unbonding
// chunks, boost eligibility keys, the funds index and the pool itself.
func (e *Engine) deletePoolRecords(pool *Pool) error {
	oldest := uint64(0)
	if e.currentEra > e.params.HistoryDepth {
		oldest = e.currentEra - e.params.HistoryDepth
	}
	for era := oldest; era <= e.currentEra; era++ {
		for _, key := range [][]byte{
			exposureKey(era, pool.ID),
			rewardKey(era, pool.ID),
			missedKey(era, pool.ID),
		} {
			if err := e.state.KVDelete(key); err != nil {
				return err
			}
		}
		claimKeys := make([][]byte, 0)
		prefix := appendUint32(claimEraPrefix(era), pool.ID)
		err := e.state.IteratePrefix(prefix, func(key, _ []byte) bool {
			claimKeys = append(claimKeys, append([]byte(nil), key...))
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range claimKeys {
			if err := e.state.KVDelete(key); err != nil {
				return err
			}
		}
	}
	for _, prefix := range [][]byte{
		unbondPoolPrefix(pool.ID),
		boostMemberPoolPrefix(pool.ID),
		memberPoolPrefix(pool.ID),
	} {
		keys := make([][]byte, 0)
		err := e.state.IteratePrefix(prefix, func(key, _ []byte) bool {
			keys = append(keys, append([]byte(nil), key...))
			return true
		})
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := e.state.KVDelete(key); err != nil {
				return err
			}
		}
	}
	if err := e.state.KVDelete(fundsIndexKey(pool.FundsAccount)); err != nil {
		return err
	}
	return e.state.KVDelete(poolKey(pool.ID))
}
