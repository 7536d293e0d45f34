package pools

import (
	"math/big"

	"lstchain/core/events"
)

// Claim pays out the caller's pro-rata share of a recorded era reward. The
// share is computed against the era's frozen exposure, marked claimed before
// any funds move, paid in native currency, and re-staked into the native pool
// when the member's native-pool position has compounding enabled and the pool
// can accept the deposit.
func (e *Engine) Claim(caller Caller, era uint64, poolID uint32) error {
	return e.run(func() error {
		if caller.Kind != CallerKindUser {
			return ErrUnauthorized
		}
		user := caller.Addr

		exposure := new(Exposure)
		ok, err := e.state.KVGet(exposureKey(era, poolID), exposure)
		if err != nil {
			return err
		}
		if !ok {
			return ErrExposureNotFound
		}
		reward := new(EraReward)
		ok, err = e.state.KVGet(rewardKey(era, poolID), reward)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRewardNotFound
		}
		reward.ensureDefaults()
		claimed, err := e.state.KVHas(claimKey(era, poolID, user))
		if err != nil {
			return err
		}
		if claimed {
			return ErrAlreadyClaimed
		}

		points := exposurePoints(exposure.Members, user)
		if points == nil {
			return ErrMembershipNotFound
		}
		baseShare, err := mulDiv(reward.Base, points, exposure.TotalPoints)
		if err != nil {
			return err
		}
		boostShare := big.NewInt(0)
		if exposure.Boost != nil && reward.Boost.Sign() > 0 {
			if boostPoints := exposurePoints(exposure.Boost.Members, user); boostPoints != nil {
				boostShare, err = mulDiv(reward.Boost, boostPoints, exposure.Boost.TotalPoints)
				if err != nil {
					return err
				}
			}
		}
		total := new(big.Int).Add(baseShare, boostShare)
		if total.Sign() == 0 {
			return ErrNothingToClaim
		}

		// The claim marker is written before any transfer so a payout
		// failure rolls the whole overlay back together.
		if err := e.state.KVPut(claimKey(era, poolID, user), true); err != nil {
			return err
		}
		reward.BaseClaimed = new(big.Int).Add(reward.BaseClaimed, baseShare)
		reward.BoostClaimed = new(big.Int).Add(reward.BoostClaimed, boostShare)
		if err := e.state.KVPut(rewardKey(era, poolID), reward); err != nil {
			return err
		}

		pool, err := e.loadPool(poolID)
		if err != nil {
			return err
		}
		payout, err := e.nativeAmountAt(e.currentEra, NativeCurrencyID, total)
		if err != nil {
			return err
		}
		err = e.state.Transfer(NativeCurrencyID, pool.ClaimableAccount,
			nativeHoldingAccount, payout, e.params.ExistentialDeposit)
		if err != nil {
			return err
		}
		if err := e.state.Transfer(NativeCurrencyID, nativeHoldingAccount, user, payout, nil); err != nil {
			return err
		}

		compounded, err := e.compoundClaim(user, payout)
		if err != nil {
			return err
		}
		e.emit(events.RewardClaimed{
			Era:        era,
			Pool:       poolID,
			User:       user,
			Amount:     copyBigInt(payout),
			Compounded: compounded,
		})
		return nil
	})
}

// compoundClaim re-stakes a paid-out reward into the native pool when the
// member has compounding enabled and the deposit remains admissible. A
// rejection leaves the payout in the member's balance and never fails the
// claim.
func (e *Engine) compoundClaim(user [20]byte, amount *big.Int) (bool, error) {
	member, ok, err := e.getMembership(NativePoolID, user)
	if err != nil {
		return false, err
	}
	if !ok || !member.Compounding {
		return false, nil
	}
	pool, ok, err := e.getPool(NativePoolID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	switch pool.State {
	case PoolStateOpen, PoolStateBlocked:
	default:
		return false, nil
	}
	currency, err := e.loadCurrency(NativeCurrencyID)
	if err != nil {
		return false, err
	}
	staked := new(big.Int).Add(currency.TotalStaked, amount)
	if staked.Cmp(currency.MaxBond) > 0 {
		return false, nil
	}
	if err := e.stake(user, NativePoolID, amount, true); err != nil {
		return false, err
	}
	return true, nil
}

func exposurePoints(members []ExposureMember, user [20]byte) *big.Int {
	for _, member := range members {
		if member.User == user {
			return member.Points
		}
	}
	return nil
}
