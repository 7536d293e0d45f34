package pools

import (
	"testing"

	"lstchain/core/events"
)

// boostFixture sets up the native pool plus a token pool, both with boost
// offers, and a user staked 100 units in the native pool.
func boostFixture(t *testing.T) (*Engine, *events.Recorder, [20]byte) {
	t.Helper()
	validator := addr(0xaa)
	engine, recorder := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)
	sys := SystemCaller()
	if err := engine.RegisterCurrency(sys, 1, "TOKEN", 6, units(1000), amount(1), unitRate()); err != nil {
		t.Fatalf("register token: %v", err)
	}
	if err := engine.CreatePool(sys, 1, 1, 500, addr(0xb0)); err != nil {
		t.Fatalf("create token pool: %v", err)
	}
	openPool(t, engine, 1, validator)
	if err := engine.ConfigureBoost(sys, NativePoolID, 200, units(40)); err != nil {
		t.Fatalf("boost native: %v", err)
	}
	if err := engine.ConfigureBoost(sys, 1, 300, units(50)); err != nil {
		t.Fatalf("boost token: %v", err)
	}

	user := addr(1)
	fund(t, engine, NativeCurrencyID, user, units(100))
	if err := engine.Stake(UserCaller(user), NativePoolID, units(100)); err != nil {
		t.Fatalf("stake native: %v", err)
	}
	fund(t, engine, 1, user, units(10))
	if err := engine.Stake(UserCaller(user), 1, units(10)); err != nil {
		t.Fatalf("stake token: %v", err)
	}
	return engine, recorder, user
}

func TestOptimiseBoostAllocatesAndIsIdempotent(t *testing.T) {
	engine, recorder, user := boostFixture(t)
	if err := engine.OptimiseBoost(UserCaller(user), user, []uint32{NativePoolID, 1}); err != nil {
		t.Fatalf("optimise: %v", err)
	}
	native, err := engine.PoolInfo(NativePoolID)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if native.Boost.MemberCount != 1 || native.Boost.TotalPoints.Cmp(units(100)) != 0 {
		t.Fatalf("native boost aggregate wrong: %+v", native.Boost)
	}
	token, err := engine.PoolInfo(1)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if token.Boost.MemberCount != 1 || token.Boost.TotalPoints.Cmp(units(10)) != 0 {
		t.Fatalf("token boost aggregate wrong: %+v", token.Boost)
	}

	// The same request again changes nothing and emits nothing.
	recorder.Reset()
	if err := engine.OptimiseBoost(UserCaller(user), user, []uint32{1, NativePoolID}); err != nil {
		t.Fatalf("re-optimise: %v", err)
	}
	if len(recorder.Events) != 0 {
		t.Fatalf("idempotent optimise emitted %d events", len(recorder.Events))
	}
}

func TestOptimiseBoostRequiresQualifyingBalance(t *testing.T) {
	engine, _, user := boostFixture(t)
	// 40 + 50 = 90 fits inside the 100-unit native balance, but a third
	// pool pushing past it must fail atomically.
	sys := SystemCaller()
	if err := engine.RegisterCurrency(sys, 2, "OTHER", 6, units(1000), amount(1), unitRate()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := engine.CreatePool(sys, 2, 2, 500, addr(0xb1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	openPool(t, engine, 2, addr(0xaa))
	if err := engine.ConfigureBoost(sys, 2, 100, units(20)); err != nil {
		t.Fatalf("boost: %v", err)
	}
	fund(t, engine, 2, user, units(5))
	if err := engine.Stake(UserCaller(user), 2, units(5)); err != nil {
		t.Fatalf("stake: %v", err)
	}

	err := engine.OptimiseBoost(UserCaller(user), user, []uint32{NativePoolID, 1, 2})
	if err != ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	native, err := engine.PoolInfo(NativePoolID)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if native.Boost.MemberCount != 0 {
		t.Fatal("failed optimise left partial allocations")
	}
}

func TestOptimiseBoostOperatorCannotOverride(t *testing.T) {
	engine, _, user := boostFixture(t)
	if err := engine.OptimiseBoost(SystemCaller(), user, []uint32{NativePoolID}); err != nil {
		t.Fatalf("operator seed: %v", err)
	}
	err := engine.OptimiseBoost(SystemCaller(), user, []uint32{1})
	if err != ErrBoostAllocationsSet {
		t.Fatalf("expected ErrBoostAllocationsSet, got %v", err)
	}
	// The user themselves may still reallocate.
	if err := engine.OptimiseBoost(UserCaller(user), user, []uint32{1}); err != nil {
		t.Fatalf("user reallocation: %v", err)
	}
}

func TestUnbondDropsUnderfundedBoosts(t *testing.T) {
	engine, _, user := boostFixture(t)
	if err := engine.OptimiseBoost(UserCaller(user), user, []uint32{NativePoolID, 1}); err != nil {
		t.Fatalf("optimise: %v", err)
	}
	// Unbonding 50 leaves 50, below the combined minimum of 90: every
	// allocation is dropped.
	if err := engine.Unbond(UserCaller(user), NativePoolID, user, units(50)); err != nil {
		t.Fatalf("unbond: %v", err)
	}
	pools, err := engine.userBoostPools(user)
	if err != nil {
		t.Fatalf("user pools: %v", err)
	}
	if len(pools) != 0 {
		t.Fatalf("allocations survived underfunding: %v", pools)
	}
	token, err := engine.PoolInfo(1)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if token.Boost.MemberCount != 0 || token.Boost.TotalPoints.Sign() != 0 {
		t.Fatalf("token aggregates not reset: %+v", token.Boost)
	}
}

func TestBoostRewardPaysEligibleMembersOnly(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)
	sys := SystemCaller()
	if err := engine.ConfigureBoost(sys, NativePoolID, 1000, units(10)); err != nil {
		t.Fatalf("configure boost: %v", err)
	}

	eligible := addr(1)
	plain := addr(2)
	fund(t, engine, NativeCurrencyID, eligible, units(50))
	fund(t, engine, NativeCurrencyID, plain, units(50))
	if err := engine.Stake(UserCaller(eligible), NativePoolID, units(50)); err != nil {
		t.Fatalf("stake eligible: %v", err)
	}
	if err := engine.Stake(UserCaller(plain), NativePoolID, units(50)); err != nil {
		t.Fatalf("stake plain: %v", err)
	}
	if err := engine.SetCompounding(UserCaller(eligible), NativePoolID, false); err != nil {
		t.Fatalf("compounding off: %v", err)
	}
	if err := engine.SetCompounding(UserCaller(plain), NativePoolID, false); err != nil {
		t.Fatalf("compounding off: %v", err)
	}
	if err := engine.OptimiseBoost(UserCaller(eligible), eligible, []uint32{NativePoolID}); err != nil {
		t.Fatalf("optimise: %v", err)
	}
	pool, err := engine.PoolInfo(NativePoolID)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	fund(t, engine, NativeCurrencyID, pool.FundsAccount, units(50))

	if err := engine.BeginEra(1); err != nil {
		t.Fatalf("begin era: %v", err)
	}
	exposure, err := engine.ExposureInfo(1, NativePoolID)
	if err != nil {
		t.Fatalf("exposure: %v", err)
	}
	if exposure.Boost == nil || exposure.Boost.TotalValue.Cmp(units(50)) != 0 {
		t.Fatalf("boost exposure wrong: %+v", exposure.Boost)
	}
	if err := engine.EndEra(1, SecondsPerYear); err != nil {
		t.Fatalf("end era: %v", err)
	}
	reward, err := engine.RewardInfo(1, NativePoolID)
	if err != nil {
		t.Fatalf("reward: %v", err)
	}
	// Base: 100 units at 10% = 10. Boost: 50 eligible units at 10% = 5.
	if reward.Base.Cmp(units(10)) != 0 || reward.Boost.Cmp(units(5)) != 0 {
		t.Fatalf("reward split wrong: base %s boost %s", reward.Base, reward.Boost)
	}

	if err := engine.Claim(UserCaller(eligible), 1, NativePoolID); err != nil {
		t.Fatalf("eligible claim: %v", err)
	}
	if err := engine.Claim(UserCaller(plain), 1, NativePoolID); err != nil {
		t.Fatalf("plain claim: %v", err)
	}
	// Eligible: half the base plus the whole boost. Plain: half the base.
	if got := balanceOf(t, engine, NativeCurrencyID, eligible); got.Cmp(units(10)) != 0 {
		t.Fatalf("eligible payout wrong: %s", got)
	}
	if got := balanceOf(t, engine, NativeCurrencyID, plain); got.Cmp(units(5)) != 0 {
		t.Fatalf("plain payout wrong: %s", got)
	}
}

func TestClearBoostRemovesEligibility(t *testing.T) {
	engine, _, user := boostFixture(t)
	if err := engine.OptimiseBoost(UserCaller(user), user, []uint32{NativePoolID}); err != nil {
		t.Fatalf("optimise: %v", err)
	}
	if err := engine.ClearBoost(SystemCaller(), NativePoolID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	pool, err := engine.PoolInfo(NativePoolID)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if pool.Boost != nil {
		t.Fatal("boost offer survived clear")
	}
	pools, err := engine.userBoostPools(user)
	if err != nil {
		t.Fatalf("user pools: %v", err)
	}
	if len(pools) != 0 {
		t.Fatalf("user allocation survived clear: %v", pools)
	}
	if err := engine.ClearBoost(SystemCaller(), NativePoolID); err != ErrNoBoostOffer {
		t.Fatalf("expected ErrNoBoostOffer, got %v", err)
	}
}

func TestClearBoostRejectedWhileDestroying(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)
	sys := SystemCaller()
	if err := engine.ConfigureBoost(sys, NativePoolID, 200, units(40)); err != nil {
		t.Fatalf("configure boost: %v", err)
	}
	if err := engine.DestroyPool(sys, NativePoolID, nil); err != nil {
		t.Fatalf("flip to destroying: %v", err)
	}
	if err := engine.ClearBoost(sys, NativePoolID); err != ErrPoolDestroying {
		t.Fatalf("expected ErrPoolDestroying, got %v", err)
	}
}
