package pools

import (
	"log/slog"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"lstchain/core/events"
	"lstchain/core/state"
	"lstchain/observability/metrics"
)

// Engine orchestrates the pooled-staking ledger: currency registry, pool
// lifecycle, membership accounting, era snapshots, rewards, unbonding,
// slashing and boost allocation. Commands run single-threaded against the
// state manager's overlay; the engine commits on success and discards on any
// failure, so every command is all-or-nothing. Events buffer alongside the
// overlay and reach the emitter only after a commit.
type Engine struct {
	state      *state.Manager
	params     Params
	provider   StakingProvider
	emitter    events.Emitter
	logger     *slog.Logger
	metrics    *metrics.PoolsMetrics
	currentEra uint64
	pending    []events.Event
}

// nativeHoldingAccount briefly holds claimed rewards between the pool
// claimable account and the member's balance.
var nativeHoldingAccount = deriveModuleAccount("pools/native-holding")

// NewEngine constructs a pools engine over the supplied state manager and
// staking data provider.
func NewEngine(st *state.Manager, params Params, provider StakingProvider) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		state:    st,
		params:   params,
		provider: provider,
		emitter:  events.NoopEmitter{},
		logger:   slog.Default(),
	}, nil
}

// SetEmitter wires the downstream event sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetLogger wires the structured logger used for anomaly reporting.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil || logger == nil {
		return
	}
	e.logger = logger
}

// SetMetrics wires the prometheus collectors; a nil registry disables them.
func (e *Engine) SetMetrics(m *metrics.PoolsMetrics) {
	if e == nil {
		return
	}
	e.metrics = m
}

// SetCurrentEra records the active era index supplied by the external driver.
func (e *Engine) SetCurrentEra(era uint64) {
	if e == nil {
		return
	}
	e.currentEra = era
}

// CurrentEra returns the era index the engine is operating in.
func (e *Engine) CurrentEra() uint64 {
	if e == nil {
		return 0
	}
	return e.currentEra
}

// Params returns the engine's static configuration.
func (e *Engine) Params() Params {
	return e.params
}

func (e *Engine) emit(ev events.Event) {
	e.pending = append(e.pending, ev)
}

// run executes op against the overlay, committing and flushing buffered
// events on success, discarding everything on failure.
func (e *Engine) run(op func() error) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	e.pending = e.pending[:0]
	if err := op(); err != nil {
		e.state.Discard()
		e.pending = e.pending[:0]
		return err
	}
	if err := e.state.Commit(); err != nil {
		e.state.Discard()
		e.pending = e.pending[:0]
		return err
	}
	for _, ev := range e.pending {
		e.emitter.Emit(ev)
	}
	e.pending = e.pending[:0]
	return nil
}

// --- derived accounts ---

func deriveModuleAccount(tag string) [20]byte {
	hash := ethcrypto.Keccak256([]byte(tag))
	var out [20]byte
	copy(out[:], hash[12:])
	return out
}

func derivePoolAccount(tag string, poolID uint32) [20]byte {
	hash := ethcrypto.Keccak256(appendUint32([]byte(tag), poolID))
	var out [20]byte
	copy(out[:], hash[12:])
	return out
}

// --- record accessors ---

func (e *Engine) getCurrency(id uint32) (*Currency, bool, error) {
	currency := new(Currency)
	ok, err := e.state.KVGet(currencyKey(id), currency)
	if err != nil || !ok {
		return nil, false, err
	}
	currency.ensureDefaults()
	return currency, true, nil
}

func (e *Engine) loadCurrency(id uint32) (*Currency, error) {
	currency, ok, err := e.getCurrency(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCurrencyNotFound
	}
	return currency, nil
}

// loadLiveCurrency rejects destroyed currencies.
func (e *Engine) loadLiveCurrency(id uint32) (*Currency, error) {
	currency, err := e.loadCurrency(id)
	if err != nil {
		return nil, err
	}
	if currency.Destroyed {
		return nil, ErrCurrencyDestroyed
	}
	return currency, nil
}

func (e *Engine) storeCurrency(currency *Currency) error {
	return e.state.KVPut(currencyKey(currency.ID), currency)
}

func (e *Engine) getPool(id uint32) (*Pool, bool, error) {
	pool := new(Pool)
	ok, err := e.state.KVGet(poolKey(id), pool)
	if err != nil || !ok {
		return nil, false, err
	}
	pool.ensureDefaults()
	return pool, true, nil
}

func (e *Engine) loadPool(id uint32) (*Pool, error) {
	pool, ok, err := e.getPool(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

func (e *Engine) storePool(pool *Pool) error {
	return e.state.KVPut(poolKey(pool.ID), pool)
}

func (e *Engine) getMembership(poolID uint32, user [20]byte) (*Membership, bool, error) {
	member := new(Membership)
	ok, err := e.state.KVGet(memberKey(poolID, user), member)
	if err != nil || !ok {
		return nil, false, err
	}
	member.ensureDefaults()
	return member, true, nil
}

func (e *Engine) loadMembership(poolID uint32, user [20]byte) (*Membership, error) {
	member, ok, err := e.getMembership(poolID, user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrMembershipNotFound
	}
	return member, nil
}

func (e *Engine) storeMembership(member *Membership) error {
	return e.state.KVPut(memberKey(member.Pool, member.User), member)
}

func (e *Engine) getChunk(poolID uint32, era uint64) (*UnbondingChunk, bool, error) {
	chunk := new(UnbondingChunk)
	ok, err := e.state.KVGet(unbondKey(poolID, era), chunk)
	if err != nil || !ok {
		return nil, false, err
	}
	return chunk, true, nil
}

func (e *Engine) storeChunk(poolID uint32, era uint64, chunk *UnbondingChunk) error {
	if len(chunk.Entries) == 0 {
		return e.state.KVDelete(unbondKey(poolID, era))
	}
	return e.state.KVPut(unbondKey(poolID, era), chunk)
}

func (e *Engine) loadTVL() (*TVLState, error) {
	tvl := new(TVLState)
	ok, err := e.state.KVGet(keyTVL, tvl)
	if err != nil {
		return nil, err
	}
	if !ok {
		tvl = &TVLState{Max: copyBigInt(e.params.MaxTVL)}
	}
	tvl.ensureDefaults()
	if tvl.Max.Sign() == 0 {
		tvl.Max = copyBigInt(e.params.MaxTVL)
	}
	return tvl, nil
}

func (e *Engine) storeTVL(tvl *TVLState) error {
	return e.state.KVPut(keyTVL, tvl)
}

// lockValue adds a native-equivalent amount to the TVL guard, enforcing the
// authorised maximum.
func (e *Engine) lockValue(delta *big.Int) error {
	if delta == nil || delta.Sign() == 0 {
		return nil
	}
	tvl, err := e.loadTVL()
	if err != nil {
		return err
	}
	tvl.Current = new(big.Int).Add(tvl.Current, delta)
	if tvl.Current.Cmp(tvl.Max) > 0 {
		return ErrTVLCapExceeded
	}
	e.observeTVL(tvl.Current)
	return e.storeTVL(tvl)
}

// lockValueUnchecked adds to the TVL guard without enforcing the maximum.
// Compounded rewards were already locked as claimable value and must not be
// rejected at re-stake time.
func (e *Engine) lockValueUnchecked(delta *big.Int) error {
	if delta == nil || delta.Sign() == 0 {
		return nil
	}
	tvl, err := e.loadTVL()
	if err != nil {
		return err
	}
	tvl.Current = new(big.Int).Add(tvl.Current, delta)
	e.observeTVL(tvl.Current)
	return e.storeTVL(tvl)
}

// unlockValue releases a native-equivalent amount from the TVL guard,
// clamping at zero.
func (e *Engine) unlockValue(delta *big.Int) error {
	if delta == nil || delta.Sign() == 0 {
		return nil
	}
	tvl, err := e.loadTVL()
	if err != nil {
		return err
	}
	tvl.Current = new(big.Int).Sub(tvl.Current, delta)
	if tvl.Current.Sign() < 0 {
		tvl.Current = big.NewInt(0)
	}
	e.observeTVL(tvl.Current)
	return e.storeTVL(tvl)
}

func (e *Engine) observeTVL(current *big.Int) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveTVL(current)
}

// --- conversion rates ---

func (e *Engine) rateAt(era uint64, currencyID uint32) (*big.Int, error) {
	rate := new(big.Int)
	ok, err := e.state.KVGet(rateKey(era, currencyID), rate)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRateNotFound
	}
	return rate, nil
}

func (e *Engine) currencyValueAt(era uint64, currencyID uint32, amount *big.Int) (*big.Int, error) {
	rate, err := e.rateAt(era, currencyID)
	if err != nil {
		return nil, err
	}
	return currencyToNative(amount, rate)
}

func (e *Engine) nativeAmountAt(era uint64, currencyID uint32, amount *big.Int) (*big.Int, error) {
	rate, err := e.rateAt(era, currencyID)
	if err != nil {
		return nil, err
	}
	return nativeToCurrency(amount, rate)
}

// --- queries (read-only, overlay-safe) ---

// CurrencyInfo returns a deep copy of the registered currency.
func (e *Engine) CurrencyInfo(id uint32) (*Currency, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	currency, err := e.loadCurrency(id)
	if err != nil {
		return nil, err
	}
	return currency.Clone(), nil
}

// PoolInfo returns a deep copy of the pool record.
func (e *Engine) PoolInfo(id uint32) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pool, err := e.loadPool(id)
	if err != nil {
		return nil, err
	}
	return pool.Clone(), nil
}

// MembershipInfo returns a deep copy of the member's position in a pool.
func (e *Engine) MembershipInfo(poolID uint32, user [20]byte) (*Membership, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	member, err := e.loadMembership(poolID, user)
	if err != nil {
		return nil, err
	}
	return member.Clone(), nil
}

// TVLInfo returns the current total-value-locked bookkeeping.
func (e *Engine) TVLInfo() (*TVLState, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	tvl, err := e.loadTVL()
	if err != nil {
		return nil, err
	}
	return &TVLState{Current: copyBigInt(tvl.Current), Max: copyBigInt(tvl.Max)}, nil
}

// RewardInfo returns the recorded reward for a pool and era.
func (e *Engine) RewardInfo(era uint64, poolID uint32) (*EraReward, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	reward := new(EraReward)
	ok, err := e.state.KVGet(rewardKey(era, poolID), reward)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRewardNotFound
	}
	reward.ensureDefaults()
	return reward, nil
}

// ExposureInfo returns the recorded exposure snapshot for a pool and era.
func (e *Engine) ExposureInfo(era uint64, poolID uint32) (*Exposure, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	exposure := new(Exposure)
	ok, err := e.state.KVGet(exposureKey(era, poolID), exposure)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrExposureNotFound
	}
	return exposure, nil
}

// Balance exposes the ledger balance for queries and tests.
func (e *Engine) Balance(currencyID uint32, addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.Balance(currencyID, addr)
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Warn(msg, args...)
}

func (e *Engine) errorLog(msg string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Error(msg, args...)
}
