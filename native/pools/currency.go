package pools

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"

	"lstchain/core/events"
)

// RegisterCurrency adds a currency to the registry and seeds its conversion
// rate for the current era. The native currency (id 0) must exist before any
// other id registers, and its minimum bond is fixed at zero.
func (e *Engine) RegisterCurrency(caller Caller, id uint32, name string, decimals uint8, maxBond, minBond, rate *big.Int) error {
	return e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		if _, exists, err := e.getCurrency(id); err != nil {
			return err
		} else if exists {
			return ErrCurrencyExists
		}
		if id != NativeCurrencyID {
			if _, exists, err := e.getCurrency(NativeCurrencyID); err != nil {
				return err
			} else if !exists {
				return ErrNativeCurrencyMissing
			}
		}
		if strings.TrimSpace(name) == "" {
			return ErrInvalidName
		}
		if decimals == 0 {
			return ErrInvalidDecimals
		}
		if minBond == nil {
			minBond = big.NewInt(0)
		}
		if maxBond == nil || maxBond.Sign() == 0 || maxBond.Cmp(minBond) <= 0 {
			return ErrInvalidBondLimits
		}
		if rate == nil || rate.Sign() <= 0 {
			return ErrInvalidRate
		}
		if id == NativeCurrencyID && minBond.Sign() != 0 {
			return ErrNativeMinBond
		}
		currency := &Currency{
			ID:       id,
			Name:     name,
			Decimals: decimals,
			MinBond:  copyBigInt(minBond),
			MaxBond:  copyBigInt(maxBond),
		}
		currency.ensureDefaults()
		if err := e.storeCurrency(currency); err != nil {
			return err
		}
		if err := e.state.KVPut(rateKey(e.currentEra, id), rate); err != nil {
			return err
		}
		e.emit(events.CurrencyRegistered{
			ID:       id,
			Name:     name,
			Decimals: decimals,
			MaxBond:  copyBigInt(maxBond),
			MinBond:  copyBigInt(minBond),
			Rate:     copyBigInt(rate),
		})
		return nil
	})
}

// CurrencyUpdate carries the optional fields of an UpdateCurrency command.
type CurrencyUpdate struct {
	Name    *string
	MaxBond *big.Int
	MinBond *big.Int
}

// UpdateCurrency mutates a currency's name and bond limits. The new maximum
// may not fall below the value already committed to pools, and the native
// currency's minimum bond stays zero.
func (e *Engine) UpdateCurrency(caller Caller, id uint32, update CurrencyUpdate) error {
	return e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		currency, err := e.loadCurrency(id)
		if err != nil {
			return err
		}
		if currency.Destroyed {
			return ErrCurrencyDestroyed
		}
		if update.Name != nil {
			if strings.TrimSpace(*update.Name) == "" {
				return ErrInvalidName
			}
			currency.Name = *update.Name
		}
		newMax := currency.MaxBond
		if update.MaxBond != nil {
			newMax = update.MaxBond
		}
		newMin := currency.MinBond
		if update.MinBond != nil {
			newMin = update.MinBond
		}
		committed := new(big.Int).Add(currency.TotalStaked, currency.TotalUnbonding)
		if newMax.Cmp(committed) < 0 {
			return ErrMaxBelowCommitted
		}
		if newMin.Cmp(newMax) > 0 {
			return ErrInvalidBondLimits
		}
		if id == NativeCurrencyID && newMin.Sign() != 0 {
			return ErrNativeMinBond
		}
		currency.MaxBond = copyBigInt(newMax)
		currency.MinBond = copyBigInt(newMin)
		if err := e.storeCurrency(currency); err != nil {
			return err
		}
		e.emit(events.CurrencyUpdated{
			ID:      id,
			Name:    currency.Name,
			MaxBond: copyBigInt(currency.MaxBond),
			MinBond: copyBigInt(currency.MinBond),
		})
		return nil
	})
}

// SetNextRate stores a pending conversion rate that takes effect at the next
// era boundary. The current era's rate is unaffected.
func (e *Engine) SetNextRate(caller Caller, id uint32, rate *big.Int) error {
	return e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		if _, err := e.loadLiveCurrency(id); err != nil {
			return err
		}
		if rate == nil || rate.Sign() <= 0 {
			return ErrInvalidRate
		}
		if err := e.state.KVPut(nextRateKey(id), rate); err != nil {
			return err
		}
		e.emit(events.CurrencyRateSet{ID: id, Rate: copyBigInt(rate)})
		return nil
	})
}

// DestroyCurrency irreversibly retires a currency. The native currency and
// any currency still referenced by a pool cannot be destroyed.
func (e *Engine) DestroyCurrency(caller Caller, id uint32) error {
	return e.run(func() error {
		if err := requireOperator(caller); err != nil {
			return err
		}
		if id == NativeCurrencyID {
			return ErrNativeCurrencyFixed
		}
		currency, err := e.loadCurrency(id)
		if err != nil {
			return err
		}
		if currency.Destroyed {
			return ErrCurrencyDestroyed
		}
		referenced := false
		err = e.state.IteratePrefix(poolPrefix, func(_, value []byte) bool {
			var pool Pool
			if decodeErr := rlp.DecodeBytes(value, &pool); decodeErr != nil {
				return true
			}
			if pool.Currency == id {
				referenced = true
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		if referenced {
			return ErrCurrencyInUse
		}
		currency.Destroyed = true
		if err := e.storeCurrency(currency); err != nil {
			return err
		}
		if err := e.state.KVDelete(nextRateKey(id)); err != nil {
			return err
		}
		e.emit(events.CurrencyDestroyed{ID: id})
		return nil
	})
}

// rollRates writes each live currency's conversion rate for the new era,
// consuming a pending next-rate when one is staged and carrying the previous
// era's rate otherwise.
func (e *Engine) rollRates(newEra uint64) error {
	type rollEntry struct {
		id   uint32
		rate *big.Int
	}
	entries := make([]rollEntry, 0)
	err := e.state.IteratePrefix(currencyPrefix, func(_, value []byte) bool {
		var currency Currency
		if decodeErr := rlp.DecodeBytes(value, &currency); decodeErr != nil {
			return true
		}
		if currency.Destroyed {
			return true
		}
		entries = append(entries, rollEntry{id: currency.ID})
		return true
	})
	if err != nil {
		return err
	}
	for i := range entries {
		pending := new(big.Int)
		ok, err := e.state.KVGet(nextRateKey(entries[i].id), pending)
		if err != nil {
			return err
		}
		if ok {
			entries[i].rate = pending
			if err := e.state.KVDelete(nextRateKey(entries[i].id)); err != nil {
				return err
			}
			continue
		}
		if newEra == 0 {
			continue
		}
		previous, err := e.rateAt(newEra-1, entries[i].id)
		if err == ErrRateNotFound {
			continue
		}
		if err != nil {
			return err
		}
		entries[i].rate = previous
	}
	for _, entry := range entries {
		if entry.rate == nil {
			continue
		}
		if err := e.state.KVPut(rateKey(newEra, entry.id), entry.rate); err != nil {
			return err
		}
	}
	return nil
}
