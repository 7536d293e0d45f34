package pools

import (
	"github.com/ethereum/go-ethereum/rlp"

	"lstchain/core/events"
)

// BeginEra advances the engine to a new era: conversion rates roll forward,
// and every eligible pool gets an exposure snapshot freezing its members,
// point totals, native-equivalent value, APY and validator targets. Pools
// that are not Open or Blocked, or that have no members, stake or targets,
// are skipped. Re-running the snapshot for the same era overwrites it.
func (e *Engine) BeginEra(era uint64) error {
	return e.run(func() error {
		e.currentEra = era
		if err := e.rollRates(era); err != nil {
			return err
		}
		if err := e.clearEraPrefix(exposureEraPrefix(era)); err != nil {
			return err
		}
		if err := e.clearEraPrefix(backingEraPrefix(era)); err != nil {
			return err
		}

		pools := make([]*Pool, 0)
		err := e.state.IteratePrefix(poolPrefix, func(_, value []byte) bool {
			pool := new(Pool)
			if decodeErr := rlp.DecodeBytes(value, pool); decodeErr != nil {
				return true
			}
			pool.ensureDefaults()
			pools = append(pools, pool)
			return true
		})
		if err != nil {
			return err
		}

		backing := make(map[[20]byte][]uint32)
		exposed := uint64(0)
		for _, pool := range pools {
			if pool.State != PoolStateOpen && pool.State != PoolStateBlocked {
				continue
			}
			if pool.MemberCount == 0 || len(pool.Targets) == 0 ||
				pool.TotalPoints.Sign() == 0 || pool.TotalStaked.Sign() == 0 {
				continue
			}
			exposure, err := e.snapshotPool(era, pool)
			if err == ErrRateNotFound {
				e.warn("snapshot skipped, no rate for era",
					"pool", pool.ID, "currency", pool.Currency, "era", era)
				continue
			}
			if err != nil {
				return err
			}
			if err := e.state.KVPut(exposureKey(era, pool.ID), exposure); err != nil {
				return err
			}
			for _, target := range pool.Targets {
				backing[target] = append(backing[target], pool.ID)
			}
			exposed++
		}
		for validator, poolIDs := range backing {
			if err := e.state.KVPut(backingKey(era, validator), poolIDs); err != nil {
				return err
			}
		}

		tvl, err := e.loadTVL()
		if err != nil {
			return err
		}
		e.emit(events.EraStarted{Era: era, Exposed: exposed, TotalTVL: copyBigInt(tvl.Current)})
		return nil
	})
}

// snapshotPool freezes one pool's reward-relevant state for the era.
func (e *Engine) snapshotPool(era uint64, pool *Pool) (*Exposure, error) {
	value, err := e.currencyValueAt(era, pool.Currency, pool.TotalStaked)
	if err != nil {
		return nil, err
	}
	members := make([]ExposureMember, 0, pool.MemberCount)
	err = e.state.IteratePrefix(memberPoolPrefix(pool.ID), func(_, raw []byte) bool {
		member := new(Membership)
		if decodeErr := rlp.DecodeBytes(raw, member); decodeErr != nil {
			return true
		}
		member.ensureDefaults()
		if member.Points.Sign() == 0 {
			return true
		}
		members = append(members, ExposureMember{User: member.User, Points: member.Points})
		return true
	})
	if err != nil {
		return nil, err
	}
	exposure := &Exposure{
		TotalValue:  value,
		TotalPoints: copyBigInt(pool.TotalPoints),
		APY:         pool.APY,
		Members:     members,
		Targets:     cloneAddrList(pool.Targets),
	}
	if pool.Boost != nil && pool.Boost.ExtraAPY > 0 && pool.Boost.TotalPoints.Sign() > 0 {
		boost, err := e.snapshotBoost(era, pool)
		if err != nil {
			return nil, err
		}
		exposure.Boost = boost
	}
	return exposure, nil
}

// snapshotBoost freezes the boost-eligible subset and values its points at
// the pool's running ratio.
func (e *Engine) snapshotBoost(era uint64, pool *Pool) (*BoostExposure, error) {
	members := make([]ExposureMember, 0, pool.Boost.MemberCount)
	var iterErr error
	err := e.state.IteratePrefix(boostMemberPoolPrefix(pool.ID), func(key, _ []byte) bool {
		var user [20]byte
		copy(user[:], key[len(key)-20:])
		member, ok, getErr := e.getMembership(pool.ID, user)
		if getErr != nil {
			iterErr = getErr
			return false
		}
		if !ok || member.Points.Sign() == 0 {
			return true
		}
		members = append(members, ExposureMember{User: user, Points: member.Points})
		return true
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	boostAmount, err := pointsToCurrency(pool, pool.Boost.TotalPoints)
	if err != nil {
		return nil, err
	}
	boostValue, err := e.currencyValueAt(era, pool.Currency, boostAmount)
	if err != nil {
		return nil, err
	}
	return &BoostExposure{
		ExtraAPY:    pool.Boost.ExtraAPY,
		TotalPoints: copyBigInt(pool.Boost.TotalPoints),
		TotalValue:  boostValue,
		Members:     members,
	}, nil
}

// clearEraPrefix deletes every key under an era-scoped prefix.
func (e *Engine) clearEraPrefix(prefix []byte) error {
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
	return nil
}
