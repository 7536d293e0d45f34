package pools

import (
	"errors"
	"math/big"

	"lstchain/core/events"
	"lstchain/core/state"
)

// Stake transfers currency from the caller into a pool's funds account and
// credits points at the pool's running ratio. First-time joins require the
// pool to be Open and the amount to meet the currency minimum bond; top-ups
// are also accepted while Blocked.
func (e *Engine) Stake(caller Caller, poolID uint32, amount *big.Int) error {
	return e.run(func() error {
		if caller.Kind != CallerKindUser {
			return ErrUnauthorized
		}
		return e.stake(caller.Addr, poolID, amount, false)
	})
}

// stake is the shared deposit path. skipChecks is used by reward compounding,
// which has already validated the deposit against the native pool and must
// not be rejected by the TVL cap.
func (e *Engine) stake(user [20]byte, poolID uint32, amount *big.Int, skipChecks bool) error {
	if amount == nil || amount.Sign() <= 0 {
		if skipChecks {
			return nil
		}
		return ErrInvalidAmount
	}
	pool, err := e.loadPool(poolID)
	if err != nil {
		return err
	}
	currency, err := e.loadCurrency(pool.Currency)
	if err != nil {
		return err
	}
	member, exists, err := e.getMembership(poolID, user)
	if err != nil {
		return err
	}
	if !skipChecks {
		if currency.Destroyed {
			return ErrCurrencyDestroyed
		}
		switch pool.State {
		case PoolStateOpen:
		case PoolStateBlocked:
			if !exists {
				return ErrPoolStateInvalid
			}
		default:
			return ErrPoolStateInvalid
		}
		staked := new(big.Int).Add(currency.TotalStaked, amount)
		if staked.Cmp(currency.MaxBond) > 0 {
			return ErrAboveMaxBond
		}
		if !exists {
			if amount.Cmp(currency.MinBond) < 0 {
				return ErrBelowMinBond
			}
			if pool.MemberCount+1 > e.params.MaxPoolMembers {
				return ErrCapacityExceeded
			}
		}
	}
	points, err := currencyToPoints(pool, amount)
	if err != nil {
		return err
	}
	if err := e.state.Transfer(pool.Currency, user, pool.FundsAccount, amount, nil); err != nil {
		if errors.Is(err, state.ErrInsufficientBalance) {
			return ErrInsufficientBalance
		}
		return err
	}
	pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, amount)
	pool.TotalPoints = new(big.Int).Add(pool.TotalPoints, points)
	joined := !exists
	if exists {
		member.Points = new(big.Int).Add(member.Points, points)
		if !skipChecks {
			// Guard top-ups whose balance was slashed below the minimum:
			// the resulting position must still satisfy it.
			balance, err := pointsToCurrency(pool, member.Points)
			if err != nil {
				return err
			}
			if balance.Cmp(currency.MinBond) < 0 {
				return ErrBelowMinBond
			}
		}
		eligible, err := e.isBoostMember(poolID, user)
		if err != nil {
			return err
		}
		if eligible && pool.Boost != nil {
			pool.Boost.TotalPoints = new(big.Int).Add(pool.Boost.TotalPoints, points)
		}
	} else {
		member = &Membership{
			User:        user,
			Pool:        poolID,
			JoinedEra:   e.currentEra,
			Points:      copyBigInt(points),
			Compounding: true,
		}
		pool.MemberCount++
	}
	currency.TotalStaked = new(big.Int).Add(currency.TotalStaked, amount)
	value, err := e.currencyValueAt(e.currentEra, currency.ID, amount)
	if err != nil {
		return err
	}
	if skipChecks {
		if err := e.lockValueUnchecked(value); err != nil {
			return err
		}
	} else if err := e.lockValue(value); err != nil {
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
	e.emit(events.Staked{
		Pool:   poolID,
		User:   user,
		Amount: copyBigInt(amount),
		Points: copyBigInt(points),
		Joined: joined,
	})
	return nil
}

// SetCompounding toggles whether claimed rewards re-stake into the native
// pool. Enabling requires the member's current balance to satisfy the
// currency minimum bond.
func (e *Engine) SetCompounding(caller Caller, poolID uint32, enabled bool) error {
	return e.run(func() error {
		if caller.Kind != CallerKindUser {
			return ErrUnauthorized
		}
		pool, err := e.loadPool(poolID)
		if err != nil {
			return err
		}
		member, err := e.loadMembership(poolID, caller.Addr)
		if err != nil {
			return err
		}
		if enabled {
			currency, err := e.loadCurrency(pool.Currency)
			if err != nil {
				return err
			}
			balance, err := pointsToCurrency(pool, member.Points)
			if err != nil {
				return err
			}
			if balance.Cmp(currency.MinBond) < 0 {
				return ErrBelowMinBond
			}
		}
		member.Compounding = enabled
		if err := e.storeMembership(member); err != nil {
			return err
		}
		e.emit(events.CompoundingSet{Pool: poolID, User: caller.Addr, Enabled: enabled})
		return nil
	})
}

func (e *Engine) isBoostMember(poolID uint32, user [20]byte) (bool, error) {
	return e.state.KVHas(boostMemberKey(poolID, user))
}
