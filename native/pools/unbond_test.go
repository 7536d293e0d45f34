package pools

import (
	"testing"
)

func TestUnbondPartialAndFull(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)

	user := addr(1)
	fund(t, engine, NativeCurrencyID, user, units(100))
	if err := engine.Stake(UserCaller(user), NativePoolID, units(100)); err != nil {
		t.Fatalf("stake: %v", err)
	}

	if err := engine.Unbond(UserCaller(user), NativePoolID, user, units(30)); err != nil {
		t.Fatalf("partial unbond: %v", err)
	}
	pool, err := engine.PoolInfo(NativePoolID)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if pool.TotalStaked.Cmp(units(70)) != 0 {
		t.Fatalf("unexpected staked total: %s", pool.TotalStaked)
	}
	if pool.TotalUnbonding.Cmp(units(30)) != 0 {
		t.Fatalf("unexpected unbonding total: %s", pool.TotalUnbonding)
	}
	assertConservation(t, engine, NativeCurrencyID, NativePoolID)

	// A nil amount unbonds the remainder and disables compounding.
	if err := engine.Unbond(UserCaller(user), NativePoolID, user, nil); err != nil {
		t.Fatalf("full unbond: %v", err)
	}
	member, err := engine.MembershipInfo(NativePoolID, user)
	if err != nil {
		t.Fatalf("membership: %v", err)
	}
	if member.Points.Sign() != 0 {
		t.Fatalf("points remain after full unbond: %s", member.Points)
	}
	if member.Compounding {
		t.Fatal("compounding still enabled after full unbond")
	}
	if len(member.UnbondingEras) != 1 {
		t.Fatalf("same-era unbonds must merge into one chunk: %v", member.UnbondingEras)
	}
}

func TestUnbondAuthorization(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)

	user := addr(1)
	stranger := addr(2)
	fund(t, engine, NativeCurrencyID, user, units(10))
	if err := engine.Stake(UserCaller(user), NativePoolID, units(10)); err != nil {
		t.Fatalf("stake: %v", err)
	}

	if err := engine.Unbond(UserCaller(stranger), NativePoolID, user, nil); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	// Once the pool is destroying, anyone may unbond on the member's behalf.
	if err := engine.DestroyPool(SystemCaller(), NativePoolID, nil); err != nil {
		t.Fatalf("flip destroying: %v", err)
	}
	if err := engine.Unbond(AnonymousCaller(), NativePoolID, user, nil); err != nil {
		t.Fatalf("on-behalf unbond while destroying: %v", err)
	}
}

func TestWithdrawWaitsForBondingDuration(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)

	user := addr(1)
	fund(t, engine, NativeCurrencyID, user, units(100))
	if err := engine.Stake(UserCaller(user), NativePoolID, units(100)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := engine.BeginEra(1); err != nil {
		t.Fatalf("begin era 1: %v", err)
	}
	if err := engine.Unbond(UserCaller(user), NativePoolID, user, units(40)); err != nil {
		t.Fatalf("unbond: %v", err)
	}

	if err := engine.Withdraw(UserCaller(user), NativePoolID, user); err != ErrNothingDue {
		t.Fatalf("expected ErrNothingDue before maturity, got %v", err)
	}
	if err := engine.BeginEra(2); err != nil {
		t.Fatalf("begin era 2: %v", err)
	}
	if err := engine.Withdraw(UserCaller(user), NativePoolID, user); err != ErrNothingDue {
		t.Fatalf("expected ErrNothingDue one era early, got %v", err)
	}
	if err := engine.BeginEra(3); err != nil {
		t.Fatalf("begin era 3: %v", err)
	}
	if err := engine.Withdraw(UserCaller(user), NativePoolID, user); err != nil {
		t.Fatalf("withdraw at maturity: %v", err)
	}
	if balanceOf(t, engine, NativeCurrencyID, user).Cmp(units(40)) != 0 {
		t.Fatal("matured funds not returned")
	}
	assertConservation(t, engine, NativeCurrencyID, NativePoolID)
}

func TestWithdrawRemovesEmptiedMembership(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)

	user := addr(1)
	fund(t, engine, NativeCurrencyID, user, units(10))
	if err := engine.Stake(UserCaller(user), NativePoolID, units(10)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := engine.Unbond(UserCaller(user), NativePoolID, user, nil); err != nil {
		t.Fatalf("unbond: %v", err)
	}
	if err := engine.BeginEra(2); err != nil {
		t.Fatalf("begin era 2: %v", err)
	}
	if err := engine.Withdraw(UserCaller(user), NativePoolID, user); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if _, err := engine.MembershipInfo(NativePoolID, user); err != ErrMembershipNotFound {
		t.Fatalf("expected membership removal, got %v", err)
	}
	pool, err := engine.PoolInfo(NativePoolID)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if pool.MemberCount != 0 {
		t.Fatalf("member count not decremented: %d", pool.MemberCount)
	}
}

func TestUnbondKeepsBalanceAboveMinBond(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)
	sys := SystemCaller()
	if err := engine.RegisterCurrency(sys, 1, "TOKEN", 6, units(1000), units(10), unitRate()); err != nil {
		t.Fatalf("register token: %v", err)
	}
	if err := engine.CreatePool(sys, 1, 1, 500, addr(0xb0)); err != nil {
		t.Fatalf("create pool: %v", err)
	}
	openPool(t, engine, 1, validator)

	user := addr(1)
	fund(t, engine, 1, user, units(20))
	if err := engine.Stake(UserCaller(user), 1, units(20)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	// Leaving 5 would violate the minimum of 10; leaving 10 is allowed.
	if err := engine.Unbond(UserCaller(user), 1, user, units(15)); err != ErrBelowMinBond {
		t.Fatalf("expected ErrBelowMinBond, got %v", err)
	}
	if err := engine.Unbond(UserCaller(user), 1, user, units(10)); err != nil {
		t.Fatalf("unbond to minimum: %v", err)
	}
}
