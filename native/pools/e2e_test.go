package pools

import (
	"math/big"
	"testing"
)

// TestMultiCurrencyLifecycle drives a full cycle across two currencies: stake
// at a non-unit rate, snapshot, reward, claim with compounding into the
// native pool, unbond and withdraw, with conservation checks along the way.
func TestMultiCurrencyLifecycle(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)
	sys := SystemCaller()

	// One token is worth two native units.
	tokenRate := new(big.Int).Mul(unitRate(), big.NewInt(2))
	if err := engine.RegisterCurrency(sys, 1, "TOKEN", 6, units(10_000), units(1), tokenRate); err != nil {
		t.Fatalf("register token: %v", err)
	}
	if err := engine.CreatePool(sys, 1, 1, 1000, addr(0xb0)); err != nil {
		t.Fatalf("create token pool: %v", err)
	}
	openPool(t, engine, 1, validator)

	alice := addr(1)
	fund(t, engine, NativeCurrencyID, alice, units(100))
	fund(t, engine, 1, alice, units(50))
	if err := engine.Stake(UserCaller(alice), NativePoolID, units(100)); err != nil {
		t.Fatalf("stake native: %v", err)
	}
	if err := engine.Stake(UserCaller(alice), 1, units(50)); err != nil {
		t.Fatalf("stake token: %v", err)
	}

	tvl, err := engine.TVLInfo()
	if err != nil {
		t.Fatalf("tvl: %v", err)
	}
	// 100 native + 50 tokens at rate 2.
	if tvl.Current.Cmp(units(200)) != 0 {
		t.Fatalf("tvl after staking: %s", tvl.Current)
	}

	nativePool, err := engine.PoolInfo(NativePoolID)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	tokenPool, err := engine.PoolInfo(1)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	fund(t, engine, NativeCurrencyID, nativePool.FundsAccount, units(100))
	fund(t, engine, NativeCurrencyID, tokenPool.FundsAccount, units(100))

	if err := engine.BeginEra(1); err != nil {
		t.Fatalf("begin era: %v", err)
	}
	exposure, err := engine.ExposureInfo(1, 1)
	if err != nil {
		t.Fatalf("token exposure: %v", err)
	}
	if exposure.TotalValue.Cmp(units(100)) != 0 {
		t.Fatalf("token exposure value: %s", exposure.TotalValue)
	}

	if err := engine.EndEra(1, SecondsPerYear); err != nil {
		t.Fatalf("end era: %v", err)
	}
	tokenReward, err := engine.RewardInfo(1, 1)
	if err != nil {
		t.Fatalf("token reward: %v", err)
	}
	// 100 native-equivalent at 10%.
	if tokenReward.Base.Cmp(units(10)) != 0 {
		t.Fatalf("token reward: %s", tokenReward.Base)
	}

	// Claiming the token-pool reward compounds into the native pool.
	if err := engine.Claim(UserCaller(alice), 1, 1); err != nil {
		t.Fatalf("claim: %v", err)
	}
	member, err := engine.MembershipInfo(NativePoolID, alice)
	if err != nil {
		t.Fatalf("native membership: %v", err)
	}
	if member.Points.Cmp(units(110)) != 0 {
		t.Fatalf("compounded native points: %s", member.Points)
	}

	// Unbond a quarter of the token position and withdraw at maturity.
	if err := engine.Unbond(UserCaller(alice), 1, alice, units(20)); err != nil {
		t.Fatalf("unbond: %v", err)
	}
	assertConservation(t, engine, 1, 1)
	for era := uint64(2); era <= 3; era++ {
		if err := engine.BeginEra(era); err != nil {
			t.Fatalf("begin era %d: %v", era, err)
		}
	}
	if err := engine.Withdraw(UserCaller(alice), 1, alice); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if balanceOf(t, engine, 1, alice).Cmp(units(20)) != 0 {
		t.Fatal("token withdrawal not credited")
	}

	tvl, err = engine.TVLInfo()
	if err != nil {
		t.Fatalf("tvl: %v", err)
	}
	// 200 staked + 10 compounded - 40 unbonded (20 tokens at rate 2).
	if tvl.Current.Cmp(units(170)) != 0 {
		t.Fatalf("tvl after cycle: %s", tvl.Current)
	}
	assertConservation(t, engine, NativeCurrencyID, NativePoolID)
	assertConservation(t, engine, 1, 1)
}
