package pools

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"lstchain/core/events"
)

// ConfigureBoost sets or replaces a pool's extra-yield offer. An existing
// eligible member set carries over to the new terms.
func (e *Engine) ConfigureBoost(caller Caller, poolID uint32, extraAPY uint64, minBalance *big.Int) error {
	return e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		pool, err := e.loadPool(poolID)
		if err != nil {
			return err
		}
		if pool.State == PoolStateDestroying {
			return ErrPoolDestroying
		}
		if err := e.configurePoolBoost(pool, &BoostOffer{ExtraAPY: extraAPY, MinBalance: minBalance}); err != nil {
			return err
		}
		return e.storePool(pool)
	})
}

// ClearBoost removes a pool's boost offer and every eligibility record under
// it.
func (e *Engine) ClearBoost(caller Caller, poolID uint32) error {
	return e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		pool, err := e.loadPool(poolID)
		if err != nil {
			return err
		}
		if pool.State == PoolStateDestroying {
			return ErrPoolDestroying
		}
		if err := e.clearPoolBoost(pool); err != nil {
			return err
		}
		return e.storePool(pool)
	})
}

func (e *Engine) configurePoolBoost(pool *Pool, offer *BoostOffer) error {
	if offer.ExtraAPY == 0 {
		return ErrInvalidAPY
	}
	if offer.MinBalance == nil || offer.MinBalance.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if pool.Boost == nil {
		pool.Boost = &BoostConfig{}
		pool.Boost.ensureDefaults()
	}
	pool.Boost.ExtraAPY = offer.ExtraAPY
	pool.Boost.MinBalance = copyBigInt(offer.MinBalance)
	e.emit(events.BoostConfigured{
		Pool:       pool.ID,
		ExtraAPY:   offer.ExtraAPY,
		MinBalance: copyBigInt(offer.MinBalance),
	})
	return nil
}

func (e *Engine) clearPoolBoost(pool *Pool) error {
	if pool.Boost == nil {
		return ErrNoBoostOffer
	}
	users, err := e.boostMembers(pool.ID)
	if err != nil {
		return err
	}
	for _, user := range users {
		if err := e.state.KVDelete(boostMemberKey(pool.ID, user)); err != nil {
			return err
		}
		if err := e.removeUserBoostPool(user, pool.ID); err != nil {
			return err
		}
	}
	pool.Boost = nil
	e.emit(events.BoostCleared{Pool: pool.ID})
	return nil
}

// OptimiseBoost replaces the user's boost allocation set with the desired
// pools. The user's native-pool balance must cover the sum of the target
// pools' minimum qualifying balances. Members may reallocate freely; the
// operator may only seed allocations for users who hold none. The call is
// deterministic: identical inputs produce identical allocations.
func (e *Engine) OptimiseBoost(caller Caller, user [20]byte, desired []uint32) error {
	return e.run(func() error {
		if !caller.isSystem() && !caller.isUser(user) {
			return ErrUnauthorized
		}
		current, err := e.userBoostPools(user)
		if err != nil {
			return err
		}
		if caller.isSystem() && len(current) > 0 {
			return ErrBoostAllocationsSet
		}

		nativePool, err := e.loadPool(NativePoolID)
		if err != nil {
			return err
		}
		member, err := e.loadMembership(NativePoolID, user)
		if err != nil {
			return err
		}
		balance, err := pointsToCurrency(nativePool, member.Points)
		if err != nil {
			return err
		}

		target := dedupeSorted(desired)
		required := big.NewInt(0)
		for _, poolID := range target {
			pool, err := e.loadPool(poolID)
			if err != nil {
				return err
			}
			if pool.Boost == nil {
				return ErrNoBoostOffer
			}
			required.Add(required, pool.Boost.MinBalance)
		}
		if balance.Cmp(required) < 0 {
			return ErrInsufficientBalance
		}

		added := diffUint32(target, current)
		removed := diffUint32(current, target)
		for _, poolID := range removed {
			pool, ok, err := e.getPool(poolID)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := e.dropBoostAllocation(pool, user); err != nil {
				return err
			}
			if err := e.storePool(pool); err != nil {
				return err
			}
		}
		for _, poolID := range added {
			pool, err := e.loadPool(poolID)
			if err != nil {
				return err
			}
			if pool.Boost.MemberCount+1 > e.params.MaxBoostMembers {
				return ErrCapacityExceeded
			}
			poolMember, err := e.loadMembership(poolID, user)
			if err != nil {
				return err
			}
			if err := e.state.KVPut(boostMemberKey(poolID, user), true); err != nil {
				return err
			}
			pool.Boost.TotalPoints = new(big.Int).Add(pool.Boost.TotalPoints, poolMember.Points)
			pool.Boost.MemberCount++
			if err := e.storePool(pool); err != nil {
				return err
			}
		}

		if len(target) == 0 {
			if err := e.state.KVDelete(boostUserKey(user)); err != nil {
				return err
			}
		} else if err := e.state.KVPut(boostUserKey(user), target); err != nil {
			return err
		}
		if len(added) > 0 || len(removed) > 0 {
			e.emit(events.BoostOptimised{User: user, Added: added, Removed: removed})
		}
		return nil
	})
}

// reviewUserBoosts re-checks a user's boost qualifications after their
// native-pool balance shrinks. If the remaining balance no longer covers the
// combined minimums, every allocation is dropped; the user must optimise
// again.
func (e *Engine) reviewUserBoosts(user [20]byte, nativePool *Pool, member *Membership) error {
	current, err := e.userBoostPools(user)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return nil
	}
	balance, err := pointsToCurrency(nativePool, member.Points)
	if err != nil {
		return err
	}
	required := big.NewInt(0)
	for _, poolID := range current {
		pool, ok, err := e.getPool(poolID)
		if err != nil {
			return err
		}
		if !ok || pool.Boost == nil {
			continue
		}
		required.Add(required, pool.Boost.MinBalance)
	}
	if balance.Cmp(required) >= 0 {
		return nil
	}
	return e.clearUserBoostAllocations(user, current)
}

// clearUserBoostAllocations drops every allocation the user holds.
func (e *Engine) clearUserBoostAllocations(user [20]byte, current []uint32) error {
	for _, poolID := range current {
		pool, ok, err := e.getPool(poolID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := e.dropBoostAllocation(pool, user); err != nil {
			return err
		}
		if err := e.storePool(pool); err != nil {
			return err
		}
	}
	return e.state.KVDelete(boostUserKey(user))
}

// clearAllBoostAllocations wipes every boost eligibility record system-wide.
// Used when the native pool is slashed and no qualification can be trusted.
func (e *Engine) clearAllBoostAllocations() error {
	userKeys := make([][]byte, 0)
	err := e.state.IteratePrefix(boostUserPrefix, func(key, _ []byte) bool {
		userKeys = append(userKeys, append([]byte(nil), key...))
		return true
	})
	if err != nil {
		return err
	}
	for _, key := range userKeys {
		if err := e.state.KVDelete(key); err != nil {
			return err
		}
	}
	memberKeys := make([][]byte, 0)
	err = e.state.IteratePrefix(boostMemberPrefix, func(key, _ []byte) bool {
		memberKeys = append(memberKeys, append([]byte(nil), key...))
		return true
	})
	if err != nil {
		return err
	}
	for _, key := range memberKeys {
		if err := e.state.KVDelete(key); err != nil {
			return err
		}
	}
	pools := make([]*Pool, 0)
	err = e.state.IteratePrefix(poolPrefix, func(_, value []byte) bool {
		pool := new(Pool)
		if decodeErr := rlp.DecodeBytes(value, pool); decodeErr != nil {
			return true
		}
		if pool.Boost == nil {
			return true
		}
		pool.ensureDefaults()
		pools = append(pools, pool)
		return true
	})
	if err != nil {
		return err
	}
	for _, pool := range pools {
		pool.Boost.TotalPoints = big.NewInt(0)
		pool.Boost.MemberCount = 0
		if err := e.storePool(pool); err != nil {
			return err
		}
	}
	return nil
}

// dropBoostAllocation removes one user's eligibility from a pool, adjusting
// the aggregate totals. The pool record is not stored; callers do that.
func (e *Engine) dropBoostAllocation(pool *Pool, user [20]byte) error {
	if err := e.state.KVDelete(boostMemberKey(pool.ID, user)); err != nil {
		return err
	}
	if pool.Boost != nil {
		member, ok, err := e.getMembership(pool.ID, user)
		if err != nil {
			return err
		}
		if ok {
			pool.Boost.TotalPoints = subClamped(pool.Boost.TotalPoints, member.Points)
		}
		if pool.Boost.MemberCount > 0 {
			pool.Boost.MemberCount--
		}
	}
	return e.removeUserBoostPool(user, pool.ID)
}

func (e *Engine) removeUserBoostPool(user [20]byte, poolID uint32) error {
	current, err := e.userBoostPools(user)
	if err != nil {
		return err
	}
	kept := current[:0]
	for _, id := range current {
		if id != poolID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(current) {
		return nil
	}
	if len(kept) == 0 {
		return e.state.KVDelete(boostUserKey(user))
	}
	return e.state.KVPut(boostUserKey(user), kept)
}

func (e *Engine) userBoostPools(user [20]byte) ([]uint32, error) {
	var pools []uint32
	if _, err := e.state.KVGet(boostUserKey(user), &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

func (e *Engine) boostMembers(poolID uint32) ([][20]byte, error) {
	users := make([][20]byte, 0)
	err := e.state.IteratePrefix(boostMemberPoolPrefix(poolID), func(key, _ []byte) bool {
		var user [20]byte
		copy(user[:], key[len(key)-20:])
		users = append(users, user)
		return true
	})
	return users, err
}

func dedupeSorted(ids []uint32) []uint32 {
	out := append([]uint32(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	deduped := out[:0]
	for i, id := range out {
		if i > 0 && out[i-1] == id {
			continue
		}
		deduped = append(deduped, id)
	}
	return deduped
}

func diffUint32(a, b []uint32) []uint32 {
	inB := make(map[uint32]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	out := make([]uint32, 0)
	for _, id := range a {
		if _, ok := inB[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
