package pools

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"lstchain/core/events"
	"lstchain/core/state"
)

// EndEra runs the reward pass for an ended era given its wall-clock duration
// in seconds. Every exposure recorded for the era is rewarded from the pool's
// native funds budget; pools whose targets earned no consensus points, or
// whose funds cannot cover the payout, are paused rather than failed, with
// the missed amount recorded for a later retry. Records older than the
// retention window are pruned afterwards.
func (e *Engine) EndEra(era uint64, durationSeconds uint64) error {
	return e.run(func() error {
		if e.provider == nil {
			return ErrNilProvider
		}
		if err := e.state.KVPut(durationKey(era), durationSeconds); err != nil {
			return err
		}

		type exposureEntry struct {
			poolID   uint32
			exposure *Exposure
		}
		entries := make([]exposureEntry, 0)
		err := e.state.IteratePrefix(exposureEraPrefix(era), func(key, value []byte) bool {
			exposure := new(Exposure)
			if decodeErr := rlp.DecodeBytes(value, exposure); decodeErr != nil {
				return true
			}
			poolID := binary.BigEndian.Uint32(key[len(key)-4:])
			entries = append(entries, exposureEntry{poolID: poolID, exposure: exposure})
			return true
		})
		if err != nil {
			return err
		}

		var rewarded, paused uint64
		totalBase := big.NewInt(0)
		totalBoost := big.NewInt(0)
		for _, entry := range entries {
			outcome, err := e.processPoolReward(era, durationSeconds, entry.poolID, entry.exposure, false)
			if err != nil {
				return err
			}
			switch {
			case outcome.pausedPool:
				paused++
			case outcome.recorded:
				rewarded++
				totalBase.Add(totalBase, outcome.base)
				totalBoost.Add(totalBoost, outcome.boost)
			}
		}

		if err := e.prune(era); err != nil {
			return err
		}
		e.emit(events.EraProcessed{
			Era:        era,
			Rewarded:   rewarded,
			Paused:     paused,
			TotalBase:  totalBase,
			TotalBoost: totalBoost,
		})
		return nil
	})
}

// retryReward re-runs the reward computation for one pool and one past era
// using the era's recorded duration. Eras whose duration was pruned are
// skipped with a warning.
func (e *Engine) retryReward(era uint64, poolID uint32) error {
	var duration uint64
	ok, err := e.state.KVGet(durationKey(era), &duration)
	if err != nil {
		return err
	}
	if !ok {
		e.warn("reward retry skipped, era duration pruned", "era", era, "pool", poolID)
		return nil
	}
	exposure := new(Exposure)
	ok, err = e.state.KVGet(exposureKey(era, poolID), exposure)
	if err != nil {
		return err
	}
	if !ok {
		e.warn("reward retry skipped, exposure pruned", "era", era, "pool", poolID)
		return nil
	}
	_, err = e.processPoolReward(era, duration, poolID, exposure, true)
	return err
}

type rewardOutcome struct {
	recorded   bool
	pausedPool bool
	base       *big.Int
	boost      *big.Int
}

// processPoolReward computes and funds one pool's reward for one era. Any
// failure to pay follows the degraded path: the pool is paused, the missed
// amount recorded, and processing continues.
func (e *Engine) processPoolReward(era, durationSeconds uint64, poolID uint32, exposure *Exposure, retry bool) (rewardOutcome, error) {
	none := rewardOutcome{}
	if exposure.TotalValue == nil || exposure.TotalValue.Sign() == 0 ||
		exposure.TotalPoints == nil || exposure.TotalPoints.Sign() == 0 ||
		len(exposure.Targets) == 0 || exposure.APY == 0 {
		return none, nil
	}

	existing := new(EraReward)
	hasReward, err := e.state.KVGet(rewardKey(era, poolID), existing)
	if err != nil {
		return none, err
	}
	if hasReward && !retry {
		return none, nil
	}

	pool, ok, err := e.getPool(poolID)
	if err != nil {
		return none, err
	}
	if !ok {
		e.warn("reward skipped, pool removed after snapshot", "era", era, "pool", poolID)
		return none, nil
	}

	base, err := yieldAmount(exposure.TotalValue, exposure.APY, durationSeconds)
	if err != nil {
		return none, err
	}
	boost := big.NewInt(0)
	if exposure.Boost != nil && exposure.Boost.ExtraAPY > 0 &&
		exposure.Boost.TotalValue != nil && exposure.Boost.TotalValue.Sign() > 0 {
		boost, err = yieldAmount(exposure.Boost.TotalValue, exposure.Boost.ExtraAPY, durationSeconds)
		if err != nil {
			return none, err
		}
	}
	total := new(big.Int).Add(base, boost)
	if total.Sign() == 0 {
		return none, nil
	}

	earned := true
	if !retry {
		earned, err = e.provider.ValidatorsEarnedPoints(era, exposure.Targets)
		if err != nil {
			return none, err
		}
	}
	if !earned {
		if err := e.missReward(era, pool, total, "no consensus points earned"); err != nil {
			return none, err
		}
		return rewardOutcome{pausedPool: true}, nil
	}

	err = e.state.Transfer(NativeCurrencyID, pool.FundsAccount, pool.ClaimableAccount,
		total, e.params.ExistentialDeposit)
	if err != nil {
		if errors.Is(err, state.ErrInsufficientBalance) {
			if err := e.missReward(era, pool, total, "insufficient funds"); err != nil {
				return none, err
			}
			return rewardOutcome{pausedPool: true}, nil
		}
		return none, err
	}

	reward := &EraReward{Base: base, Boost: boost}
	if hasReward {
		// Retry overwrites the amounts but preserves any claims already
		// accounted against the previous record.
		existing.ensureDefaults()
		reward.BaseClaimed = existing.BaseClaimed
		reward.BoostClaimed = existing.BoostClaimed
	}
	reward.ensureDefaults()
	if err := e.state.KVPut(rewardKey(era, poolID), reward); err != nil {
		return none, err
	}
	if err := e.state.KVDelete(missedKey(era, poolID)); err != nil {
		return none, err
	}
	if e.metrics != nil {
		e.metrics.RewardRecorded()
	}
	e.emit(events.RewardRecorded{
		Era:   era,
		Pool:  poolID,
		Base:  copyBigInt(base),
		Boost: copyBigInt(boost),
		Retry: retry,
	})
	return rewardOutcome{recorded: true, base: base, boost: boost}, nil
}

// missReward records a payout the pool could not make and pauses the pool.
func (e *Engine) missReward(era uint64, pool *Pool, amount *big.Int, reason string) error {
	if err := e.state.KVPut(missedKey(era, pool.ID), amount); err != nil {
		return err
	}
	if pool.State == PoolStateOpen || pool.State == PoolStateBlocked {
		pool.State = PoolStatePaused
		if err := e.storePool(pool); err != nil {
			return err
		}
		e.emit(events.PoolPaused{ID: pool.ID, Era: era, Reason: reason})
		if e.metrics != nil {
			e.metrics.PoolPaused()
		}
	}
	e.warn("era reward missed", "era", era, "pool", pool.ID,
		"amount", amount.String(), "reason", reason)
	if e.metrics != nil {
		e.metrics.RewardMissed()
	}
	e.emit(events.RewardMissed{Era: era, Pool: pool.ID, Amount: copyBigInt(amount), Reason: reason})
	return nil
}

// prune removes every record for the era falling out of the retention window
// after endedEra: rates, exposures, rewards, claims, missed markers, the
// duration, the validator backing index and any stale pending-slash counters.
// Unclaimed reward remainders are swept to the configured sink first.
func (e *Engine) prune(endedEra uint64) error {
	if endedEra < e.params.HistoryDepth {
		return nil
	}
	old := endedEra - e.params.HistoryDepth

	type rewardEntry struct {
		poolID uint32
		reward *EraReward
	}
	rewards := make([]rewardEntry, 0)
	err := e.state.IteratePrefix(rewardEraPrefix(old), func(key, value []byte) bool {
		reward := new(EraReward)
		if decodeErr := rlp.DecodeBytes(value, reward); decodeErr != nil {
			return true
		}
		reward.ensureDefaults()
		poolID := binary.BigEndian.Uint32(key[len(key)-4:])
		rewards = append(rewards, rewardEntry{poolID: poolID, reward: reward})
		return true
	})
	if err != nil {
		return err
	}
	for _, entry := range rewards {
		remainder := entry.reward.unclaimed()
		if remainder.Sign() == 0 {
			continue
		}
		pool, ok, err := e.getPool(entry.poolID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		err = e.state.Transfer(NativeCurrencyID, pool.ClaimableAccount,
			e.params.RemainderSink, remainder, e.params.ExistentialDeposit)
		if err != nil {
			if errors.Is(err, state.ErrInsufficientBalance) {
				e.errorLog("claimable account cannot cover pruned remainder",
					"era", old, "pool", entry.poolID, "remainder", remainder.String())
				if e.metrics != nil {
					e.metrics.Anomaly()
				}
				continue
			}
			return err
		}
	}

	// Pending slashes that were never applied or cancelled by the pruning
	// boundary are force-cleared as anomalies.
	staleCounters := 0
	err = e.state.IteratePrefix(slashCounterEraPrefix(old), func(_, value []byte) bool {
		var counter uint32
		if decodeErr := rlp.DecodeBytes(value, &counter); decodeErr == nil && counter > 0 {
			staleCounters++
		}
		return true
	})
	if err != nil {
		return err
	}
	if staleCounters > 0 {
		e.errorLog("stale pending-slash counters force-cleared at retention boundary",
			"era", old, "count", staleCounters)
		if e.metrics != nil {
			e.metrics.Anomaly()
		}
		if err := e.dropStalePendingSlashes(old); err != nil {
			return err
		}
	}

	for _, prefix := range [][]byte{
		rateEraPrefix(old),
		exposureEraPrefix(old),
		rewardEraPrefix(old),
		claimEraPrefix(old),
		missedEraPrefix(old),
		backingEraPrefix(old),
		slashCounterEraPrefix(old),
	} {
		if err := e.clearEraPrefix(prefix); err != nil {
			return err
		}
	}
	return e.state.KVDelete(durationKey(old))
}

// dropStalePendingSlashes removes pending-slash queue entries at or before
// the pruned era from every pool.
func (e *Engine) dropStalePendingSlashes(boundary uint64) error {
	pools := make([]*Pool, 0)
	err := e.state.IteratePrefix(poolPrefix, func(_, value []byte) bool {
		pool := new(Pool)
		if decodeErr := rlp.DecodeBytes(value, pool); decodeErr != nil {
			return true
		}
		if len(pool.PendingSlashes) == 0 {
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
		kept := pool.PendingSlashes[:0]
		for _, pending := range pool.PendingSlashes {
			if pending.Era <= boundary {
				e.warn("stale pending slash dropped", "pool", pool.ID,
					"era", pending.Era, "validator", pending.Validator)
				continue
			}
			kept = append(kept, pending)
		}
		if len(kept) == len(pool.PendingSlashes) {
			continue
		}
		pool.PendingSlashes = kept
		if err := e.storePool(pool); err != nil {
			return err
		}
	}
	return nil
}
