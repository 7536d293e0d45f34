package pools

import (
	"encoding/binary"
	"errors"
	"math/big"
	"sort"

	"lstchain/core/events"
	"lstchain/core/state"
)

// SetSlashDestination configures the account that receives slash proceeds.
// Without one, proceeds are burned.
func (e *Engine) SetSlashDestination(caller Caller, destination [20]byte) error {
	return e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		if err := e.state.KVPut(keySlashDestination, destination[:]); err != nil {
			return err
		}
		e.emit(events.SlashDestinationSet{Destination: destination})
		return nil
	})
}

func (e *Engine) slashDestination() ([20]byte, bool, error) {
	var raw []byte
	ok, err := e.state.KVGet(keySlashDestination, &raw)
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	var destination [20]byte
	copy(destination[:], raw)
	return destination, true, nil
}

// ReportSlash records pending slashes for every pool whose funds account
// appears in the payout set of a reported offence. The slash ratio is the
// attributed amount over the pool's recorded exposure for the offence era,
// capped at one. Per-pool failures are logged and skipped rather than
// aborting the batch.
func (e *Engine) ReportSlash(caller Caller, era uint64, validator [20]byte, payouts []SlashPayout) error {
	return e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		for _, payout := range payouts {
			var poolID uint32
			ok, err := e.state.KVGet(fundsIndexKey(payout.Account), &poolID)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			pool, ok, err := e.getPool(poolID)
			if err != nil {
				return err
			}
			if !ok {
				e.warn("slash report skipped, funds index points at missing pool",
					"era", era, "pool", poolID)
				continue
			}
			if pool.State == PoolStateDestroying {
				e.warn("slash report skipped, pool destroying", "era", era, "pool", poolID)
				continue
			}
			exposure := new(Exposure)
			ok, err = e.state.KVGet(exposureKey(era, poolID), exposure)
			if err != nil {
				return err
			}
			if !ok || exposure.TotalValue == nil || exposure.TotalValue.Sign() == 0 {
				e.warn("slash report skipped, no exposure for era", "era", era, "pool", poolID)
				continue
			}
			if uint32(len(pool.PendingSlashes))+1 > e.params.MaxPendingSlashes {
				e.warn("slash report skipped, pending queue full", "era", era, "pool", poolID)
				if e.metrics != nil {
					e.metrics.Anomaly()
				}
				continue
			}
			capped := copyBigInt(payout.Amount)
			if capped.Cmp(exposure.TotalValue) > 0 {
				capped = copyBigInt(exposure.TotalValue)
			}
			ratio, err := mulDiv(capped, rateScale, exposure.TotalValue)
			if err != nil {
				return err
			}
			pool.PendingSlashes = append(pool.PendingSlashes, PendingSlash{
				Era:       era,
				Validator: validator,
				Ratio:     ratio,
			})
			if err := e.storePool(pool); err != nil {
				return err
			}
			if err := e.bumpSlashCounter(era, validator, pool.FundsAccount, 1); err != nil {
				return err
			}
			e.emit(events.SlashReported{
				Era:       era,
				Pool:      poolID,
				Validator: validator,
				Ratio:     copyBigInt(ratio),
			})
		}
		return nil
	})
}

// CancelSlashes removes pending slashes identified by their indices into the
// staking system's unapplied slash list for the era. Multiple offences by the
// same validator in one era are matched by occurrence order. Inconsistencies
// between the external list and the recorded queues are logged as anomalies.
func (e *Engine) CancelSlashes(caller Caller, era uint64, indices []uint32) error {
	return e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		if e.provider == nil {
			return ErrNilProvider
		}
		records, err := e.provider.UnappliedSlashes(era)
		if err != nil {
			return err
		}
		// Occurrence rank of each cancelled index among records with the
		// same validator; ranks are removed highest-first per pool so
		// earlier removals do not shift later ones.
		type cancellation struct {
			validator [20]byte
			rank      int
		}
		cancels := make([]cancellation, 0, len(indices))
		for _, index := range indices {
			if int(index) >= len(records) {
				return ErrSlashIndex
			}
			rank := 0
			for j := uint32(0); j < index; j++ {
				if records[j].Validator == records[index].Validator {
					rank++
				}
			}
			cancels = append(cancels, cancellation{
				validator: records[index].Validator,
				rank:      rank,
			})
		}
		sort.Slice(cancels, func(i, j int) bool { return cancels[i].rank > cancels[j].rank })

		for _, cancel := range cancels {
			var poolIDs []uint32
			ok, err := e.state.KVGet(backingKey(era, cancel.validator), &poolIDs)
			if err != nil {
				return err
			}
			if !ok {
				e.warn("slash cancel found no backing pools", "era", era,
					"validator", cancel.validator)
				continue
			}
			for _, poolID := range poolIDs {
				if err := e.cancelPoolSlash(era, poolID, cancel.validator, cancel.rank); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (e *Engine) cancelPoolSlash(era uint64, poolID uint32, validator [20]byte, rank int) error {
	pool, ok, err := e.getPool(poolID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	seen := 0
	for i, pending := range pool.PendingSlashes {
		if pending.Era != era || pending.Validator != validator {
			continue
		}
		if seen < rank {
			seen++
			continue
		}
		pool.PendingSlashes = append(pool.PendingSlashes[:i], pool.PendingSlashes[i+1:]...)
		if err := e.storePool(pool); err != nil {
			return err
		}
		if err := e.bumpSlashCounter(era, validator, pool.FundsAccount, -1); err != nil {
			return err
		}
		e.emit(events.SlashCancelled{Era: era, Pool: poolID, Validator: validator})
		return nil
	}
	e.errorLog("slash cancel found no matching pending entry",
		"era", era, "pool", poolID, "validator", validator)
	if e.metrics != nil {
		e.metrics.Anomaly()
	}
	return nil
}

// ApplySlash executes the oldest matching pending slash against a pool's
// funds account. Both active stake and unbonding chunks queued at or after
// the offence era lose the recorded ratio. Proceeds go to the configured
// slash destination, or are burned with a warning when none is set. The
// boolean reports whether the account belonged to a pool.
func (e *Engine) ApplySlash(caller Caller, era uint64, validator, fundsAccount [20]byte) (bool, error) {
	handled := false
	err := e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		var poolID uint32
		ok, err := e.state.KVGet(fundsIndexKey(fundsAccount), &poolID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		handled = true
		pool, ok, err := e.getPool(poolID)
		if err != nil {
			return err
		}
		if !ok {
			e.errorLog("slash apply found no pool behind funds index", "pool", poolID)
			if e.metrics != nil {
				e.metrics.Anomaly()
			}
			return nil
		}
		match := -1
		for i, pending := range pool.PendingSlashes {
			if pending.Era == era && pending.Validator == validator {
				match = i
				break
			}
		}
		if match < 0 {
			e.errorLog("slash apply found no pending entry",
				"era", era, "pool", poolID, "validator", validator, "err", ErrSlashNotFound)
			if e.metrics != nil {
				e.metrics.Anomaly()
			}
			return nil
		}
		ratio := pool.PendingSlashes[match].Ratio
		pool.PendingSlashes = append(pool.PendingSlashes[:match], pool.PendingSlashes[match+1:]...)
		if err := e.bumpSlashCounter(era, validator, pool.FundsAccount, -1); err != nil {
			return err
		}
		return e.executeSlash(era, pool, validator, ratio)
	})
	return handled, err
}

// executeSlash applies the ratio to active stake and to unbonding chunks
// queued at or after the offence era, then moves the proceeds out of the
// funds account.
func (e *Engine) executeSlash(era uint64, pool *Pool, validator [20]byte, ratio *big.Int) error {
	currency, err := e.loadCurrency(pool.Currency)
	if err != nil {
		return err
	}
	stakedSlashed, err := applyRatio(pool.TotalStaked, ratio)
	if err != nil {
		return err
	}
	unbondingSlashed, err := e.slashUnbondingChunks(pool, era, ratio)
	if err != nil {
		return err
	}

	pool.TotalStaked = subClamped(pool.TotalStaked, stakedSlashed)
	pool.TotalUnbonding = subClamped(pool.TotalUnbonding, unbondingSlashed)
	total := new(big.Int).Add(stakedSlashed, unbondingSlashed)
	pool.TotalSlashed = new(big.Int).Add(pool.TotalSlashed, total)
	currency.TotalStaked = subClamped(currency.TotalStaked, stakedSlashed)
	currency.TotalUnbonding = subClamped(currency.TotalUnbonding, unbondingSlashed)
	currency.TotalSlashed = new(big.Int).Add(currency.TotalSlashed, total)

	value, err := e.currencyValueAt(e.currentEra, currency.ID, stakedSlashed)
	if err != nil {
		return err
	}
	if err := e.unlockValue(value); err != nil {
		return err
	}

	burned := false
	if total.Sign() > 0 {
		destination, haveDestination, err := e.slashDestination()
		if err != nil {
			return err
		}
		if haveDestination {
			err = e.state.Transfer(pool.Currency, pool.FundsAccount, destination, total, nil)
		} else {
			burned = true
			e.warn("no slash destination configured, proceeds burned",
				"pool", pool.ID, "amount", total.String())
			err = e.state.Burn(pool.Currency, pool.FundsAccount, total)
		}
		if err != nil {
			if errors.Is(err, state.ErrInsufficientBalance) {
				e.errorLog("funds account cannot cover slash proceeds",
					"pool", pool.ID, "amount", total.String())
				if e.metrics != nil {
					e.metrics.Anomaly()
				}
			} else {
				return err
			}
		}
	}

	if err := e.storePool(pool); err != nil {
		return err
	}
	if err := e.storeCurrency(currency); err != nil {
		return err
	}
	// A slashed native pool invalidates every boost qualification.
	if pool.ID == NativePoolID {
		if err := e.clearAllBoostAllocations(); err != nil {
			return err
		}
	}
	if e.metrics != nil {
		e.metrics.SlashApplied()
	}
	e.emit(events.SlashApplied{
		Era:              era,
		Pool:             pool.ID,
		Validator:        validator,
		StakedSlashed:    stakedSlashed,
		UnbondingSlashed: unbondingSlashed,
		Burned:           burned,
	})
	return nil
}

// slashUnbondingChunks reduces every chunk queued at or after the offence era
// by the ratio, dropping entries that reach zero.
func (e *Engine) slashUnbondingChunks(pool *Pool, era uint64, ratio *big.Int) (*big.Int, error) {
	type chunkUpdate struct {
		era   uint64
		chunk *UnbondingChunk
	}
	updates := make([]chunkUpdate, 0)
	var iterErr error
	prefix := unbondPoolPrefix(pool.ID)
	err := e.state.IteratePrefix(prefix, func(key, value []byte) bool {
		chunkEra := decodeChunkEra(key)
		if chunkEra < era {
			return true
		}
		chunk, ok, getErr := e.getChunk(pool.ID, chunkEra)
		if getErr != nil {
			iterErr = getErr
			return false
		}
		if !ok {
			return true
		}
		updates = append(updates, chunkUpdate{era: chunkEra, chunk: chunk})
		return true
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	slashed := big.NewInt(0)
	for _, update := range updates {
		changed := false
		kept := update.chunk.Entries[:0]
		for _, entry := range update.chunk.Entries {
			cut, err := applyRatio(entry.Amount, ratio)
			if err != nil {
				return nil, err
			}
			if cut.Sign() > 0 {
				entry.Amount = new(big.Int).Sub(entry.Amount, cut)
				slashed.Add(slashed, cut)
				changed = true
			}
			if entry.Amount.Sign() > 0 {
				kept = append(kept, entry)
			} else {
				changed = true
			}
		}
		if !changed {
			continue
		}
		update.chunk.Entries = kept
		if err := e.storeChunk(pool.ID, update.era, update.chunk); err != nil {
			return nil, err
		}
	}
	return slashed, nil
}

func (e *Engine) bumpSlashCounter(era uint64, validator, funds [20]byte, delta int) error {
	key := slashCounterKey(era, validator, funds)
	var counter uint32
	if _, err := e.state.KVGet(key, &counter); err != nil {
		return err
	}
	if delta > 0 {
		counter += uint32(delta)
	} else if counter >= uint32(-delta) {
		counter -= uint32(-delta)
	} else {
		counter = 0
	}
	if counter == 0 {
		return e.state.KVDelete(key)
	}
	return e.state.KVPut(key, counter)
}

func decodeChunkEra(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
