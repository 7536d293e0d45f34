package pools

import (
	"math/big"

	"lstchain/core/events"
)

// Unbond converts points back into currency and queues the amount in the
// era's unbonding chunk. A nil amount unbonds the member's full balance.
// Partial unbonds must leave a balance at or above the currency minimum.
// Anyone may unbond on a member's behalf while the pool is Destroying.
func (e *Engine) Unbond(caller Caller, poolID uint32, user [20]byte, amount *big.Int) error {
	return e.run(func() error {
		pool, err := e.loadPool(poolID)
		if err != nil {
			return err
		}
		if !caller.isUser(user) && pool.State != PoolStateDestroying {
			return ErrUnauthorized
		}
		member, err := e.loadMembership(poolID, user)
		if err != nil {
			return err
		}
		if member.Points.Sign() == 0 {
			return ErrInsufficientPoints
		}
		currency, err := e.loadCurrency(pool.Currency)
		if err != nil {
			return err
		}

		balance, err := pointsToCurrency(pool, member.Points)
		if err != nil {
			return err
		}
		full := amount == nil || amount.Cmp(balance) >= 0
		if full {
			amount = balance
		}
		if amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		points, err := currencyToPoints(pool, amount)
		if err != nil {
			return err
		}
		if full {
			points = copyBigInt(member.Points)
		}
		if points.Cmp(member.Points) > 0 {
			return ErrInsufficientPoints
		}
		if !full {
			remaining, err := pointsToCurrency(pool, new(big.Int).Sub(member.Points, points))
			if err != nil {
				return err
			}
			if remaining.Cmp(currency.MinBond) < 0 {
				return ErrBelowMinBond
			}
		}

		chunk, _, err := e.getChunk(poolID, e.currentEra)
		if err != nil {
			return err
		}
		if chunk == nil {
			chunk = &UnbondingChunk{}
		}
		merged := false
		for i := range chunk.Entries {
			if chunk.Entries[i].User == user {
				chunk.Entries[i].Amount = new(big.Int).Add(chunk.Entries[i].Amount, amount)
				merged = true
				break
			}
		}
		if !merged {
			chunk.Entries = append(chunk.Entries, UnbondEntry{User: user, Amount: copyBigInt(amount)})
		}
		if err := e.storeChunk(poolID, e.currentEra, chunk); err != nil {
			return err
		}
		if !containsEra(member.UnbondingEras, e.currentEra) {
			if uint32(len(member.UnbondingEras))+1 > e.params.MaxUnbondingEras {
				return ErrCapacityExceeded
			}
			member.UnbondingEras = append(member.UnbondingEras, e.currentEra)
		}

		wasBoostMember, err := e.isBoostMember(poolID, user)
		if err != nil {
			return err
		}
		if wasBoostMember && pool.Boost != nil {
			pool.Boost.TotalPoints = subClamped(pool.Boost.TotalPoints, points)
		}
		member.Points = new(big.Int).Sub(member.Points, points)
		if full {
			member.Compounding = false
		}
		pool.TotalStaked = subClamped(pool.TotalStaked, amount)
		pool.TotalPoints = subClamped(pool.TotalPoints, points)
		pool.TotalUnbonding = new(big.Int).Add(pool.TotalUnbonding, amount)
		currency.TotalStaked = subClamped(currency.TotalStaked, amount)
		currency.TotalUnbonding = new(big.Int).Add(currency.TotalUnbonding, amount)

		value, err := e.currencyValueAt(e.currentEra, currency.ID, amount)
		if err != nil {
			return err
		}
		if err := e.unlockValue(value); err != nil {
			return err
		}
		if err := e.storeMembership(member); err != nil {
			return err
		}
		if err := e.storePool(pool); err != nil {
			return err
		}
		if err := e.storeCurrency(currency); err != nil {
			return err
		}
		if poolID == NativePoolID {
			if err := e.reviewUserBoosts(user, pool, member); err != nil {
				return err
			}
		}
		e.emit(events.Unbonded{
			Pool:   poolID,
			User:   user,
			Amount: copyBigInt(amount),
			Points: copyBigInt(points),
			Era:    e.currentEra,
		})
		return nil
	})
}

// Withdraw releases every unbonding chunk of the member whose bonding
// duration has elapsed, returning the funds in pool currency. When nothing
// active or pending remains, the membership is removed. On-behalf withdrawal
// follows the same Destroying-only rule as Unbond.
func (e *Engine) Withdraw(caller Caller, poolID uint32, user [20]byte) error {
	return e.run(func() error {
		pool, err := e.loadPool(poolID)
		if err != nil {
			return err
		}
		if !caller.isUser(user) && pool.State != PoolStateDestroying {
			return ErrUnauthorized
		}
		member, err := e.loadMembership(poolID, user)
		if err != nil {
			return err
		}
		currency, err := e.loadCurrency(pool.Currency)
		if err != nil {
			return err
		}

		released := big.NewInt(0)
		kept := member.UnbondingEras[:0]
		for _, era := range member.UnbondingEras {
			if era+e.params.BondingDuration > e.currentEra {
				kept = append(kept, era)
				continue
			}
			chunk, ok, err := e.getChunk(poolID, era)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			for i := range chunk.Entries {
				if chunk.Entries[i].User != user {
					continue
				}
				released.Add(released, chunk.Entries[i].Amount)
				chunk.Entries = append(chunk.Entries[:i], chunk.Entries[i+1:]...)
				break
			}
			if err := e.storeChunk(poolID, era, chunk); err != nil {
				return err
			}
		}
		if released.Sign() == 0 && len(kept) == len(member.UnbondingEras) {
			return ErrNothingDue
		}
		member.UnbondingEras = append([]uint64(nil), kept...)

		pool.TotalUnbonding = subClamped(pool.TotalUnbonding, released)
		currency.TotalUnbonding = subClamped(currency.TotalUnbonding, released)
		if err := e.state.Transfer(pool.Currency, pool.FundsAccount, user, released, nil); err != nil {
			return err
		}

		removed := member.Points.Sign() == 0 && len(member.UnbondingEras) == 0
		if removed {
			if err := e.removeMembership(pool, member); err != nil {
				return err
			}
		} else if err := e.storeMembership(member); err != nil {
			return err
		}
		if err := e.storePool(pool); err != nil {
			return err
		}
		if err := e.storeCurrency(currency); err != nil {
			return err
		}
		e.emit(events.Withdrawn{
			Pool:    poolID,
			User:    user,
			Amount:  released,
			Removed: removed,
		})
		return nil
	})
}

// removeMembership deletes an emptied membership and any boost eligibility it
// still carries.
func (e *Engine) removeMembership(pool *Pool, member *Membership) error {
	if err := e.state.KVDelete(memberKey(pool.ID, member.User)); err != nil {
		return err
	}
	if pool.MemberCount > 0 {
		pool.MemberCount--
	}
	eligible, err := e.isBoostMember(pool.ID, member.User)
	if err != nil {
		return err
	}
	if eligible {
		if err := e.dropBoostAllocation(pool, member.User); err != nil {
			return err
		}
	}
	return nil
}

func containsEra(eras []uint64, era uint64) bool {
	for _, e := range eras {
		if e == era {
			return true
		}
	}
	return false
}

func subClamped(a, b *big.Int) *big.Int {
	result := new(big.Int).Sub(a, b)
	if result.Sign() < 0 {
		return big.NewInt(0)
	}
	return result
}
