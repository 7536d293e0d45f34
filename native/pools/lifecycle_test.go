package pools

import (
	"testing"

	"lstchain/core/events"
)

func TestCreatePoolRequiresBasePool(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	sys := SystemCaller()
	if err := engine.RegisterCurrency(sys, NativeCurrencyID, "NATIVE", 18, units(1000), nil, unitRate()); err != nil {
		t.Fatalf("register native: %v", err)
	}
	if err := engine.CreatePool(sys, 1, NativeCurrencyID, 500, addr(0xb0)); err != ErrBasePoolMissing {
		t.Fatalf("expected ErrBasePoolMissing, got %v", err)
	}
	if err := engine.CreatePool(sys, NativePoolID, NativeCurrencyID, 500, addr(0xa0)); err != nil {
		t.Fatalf("create base pool: %v", err)
	}
	pool, err := engine.PoolInfo(NativePoolID)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if pool.State != PoolStatePaused {
		t.Fatalf("pools must start paused, got %s", pool.State)
	}
	if pool.FundsAccount == pool.ClaimableAccount {
		t.Fatal("holding accounts must differ")
	}
	if err := engine.CreatePool(sys, NativePoolID, NativeCurrencyID, 500, addr(0xa0)); err != ErrPoolExists {
		t.Fatalf("expected ErrPoolExists, got %v", err)
	}
}

func TestOpeningPoolRequiresTargets(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	sys := SystemCaller()
	if err := engine.RegisterCurrency(sys, NativeCurrencyID, "NATIVE", 18, units(1000), nil, unitRate()); err != nil {
		t.Fatalf("register native: %v", err)
	}
	if err := engine.CreatePool(sys, NativePoolID, NativeCurrencyID, 500, addr(0xa0)); err != nil {
		t.Fatalf("create pool: %v", err)
	}
	open := PoolStateOpen
	if err := engine.UpdatePool(sys, NativePoolID, PoolUpdate{State: &open}); err != ErrNoTargets {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
	if err := engine.Nominate(sys, NativePoolID, [][20]byte{addr(0x77)}); err != ErrInvalidValidator {
		t.Fatalf("expected ErrInvalidValidator, got %v", err)
	}
	if err := engine.Nominate(sys, NativePoolID, [][20]byte{validator}); err != nil {
		t.Fatalf("nominate: %v", err)
	}
	if err := engine.UpdatePool(sys, NativePoolID, PoolUpdate{State: &open}); err != nil {
		t.Fatalf("open: %v", err)
	}
}

func TestNominatorMayOnlyHandOver(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)

	nominator := addr(0xa0)
	successor := addr(0xa1)
	apy := uint64(2000)
	err := engine.UpdatePool(UserCaller(nominator), NativePoolID, PoolUpdate{APY: &apy})
	if err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized for apy change, got %v", err)
	}
	err = engine.UpdatePool(UserCaller(successor), NativePoolID, PoolUpdate{Nominator: &successor})
	if err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized for stranger, got %v", err)
	}
	if err := engine.UpdatePool(UserCaller(nominator), NativePoolID, PoolUpdate{Nominator: &successor}); err != nil {
		t.Fatalf("hand over: %v", err)
	}
	pool, err := engine.PoolInfo(NativePoolID)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if pool.Nominator != successor {
		t.Fatal("nominator not handed over")
	}
	// The new nominator can renominate.
	if err := engine.Nominate(UserCaller(successor), NativePoolID, [][20]byte{validator}); err != nil {
		t.Fatalf("successor nominate: %v", err)
	}
}

func TestDestroyPoolTwoPhase(t *testing.T) {
	validator := addr(0xaa)
	engine, recorder := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)

	user := addr(1)
	fund(t, engine, NativeCurrencyID, user, units(10))
	if err := engine.Stake(UserCaller(user), NativePoolID, units(10)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	sys := SystemCaller()
	if err := engine.DestroyPool(sys, NativePoolID, nil); err != nil {
		t.Fatalf("phase 1: %v", err)
	}
	pool, err := engine.PoolInfo(NativePoolID)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if pool.State != PoolStateDestroying {
		t.Fatalf("pool not destroying: %s", pool.State)
	}
	// Destroying blocks normal operations.
	if err := engine.Stake(UserCaller(user), NativePoolID, units(1)); err != ErrPoolStateInvalid {
		t.Fatalf("expected ErrPoolStateInvalid, got %v", err)
	}
	open := PoolStateOpen
	if err := engine.UpdatePool(sys, NativePoolID, PoolUpdate{State: &open}); err != ErrPoolDestroying {
		t.Fatalf("expected ErrPoolDestroying, got %v", err)
	}

	// Cleanup fails while stake remains, then succeeds once drained.
	dest := addr(0xcc)
	if err := engine.DestroyPool(sys, NativePoolID, &dest); err != ErrPoolNotEmpty {
		t.Fatalf("expected ErrPoolNotEmpty, got %v", err)
	}
	if err := engine.Unbond(AnonymousCaller(), NativePoolID, user, nil); err != nil {
		t.Fatalf("drain unbond: %v", err)
	}
	if err := engine.BeginEra(2); err != nil {
		t.Fatalf("begin era: %v", err)
	}
	if err := engine.Withdraw(AnonymousCaller(), NativePoolID, user); err != nil {
		t.Fatalf("drain withdraw: %v", err)
	}
	if err := engine.DestroyPool(sys, NativePoolID, &dest); err != nil {
		t.Fatalf("phase 2: %v", err)
	}
	if _, err := engine.PoolInfo(NativePoolID); err != ErrPoolNotFound {
		t.Fatalf("pool record survived: %v", err)
	}
	if len(recorder.ByType(events.TypePoolDestroyed)) != 1 {
		t.Fatal("destroyed event missing")
	}
	// The seeded existential deposits are swept to the destination.
	if balanceOf(t, engine, NativeCurrencyID, dest).Sign() == 0 {
		t.Fatal("leftovers not swept")
	}
	if err := engine.DestroyPool(sys, NativePoolID, &dest); err != ErrPoolNotFound {
		t.Fatalf("expected ErrPoolNotFound after removal, got %v", err)
	}
}

func TestDestroyPoolWithoutDestinationFailsOnLeftovers(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)
	sys := SystemCaller()
	if err := engine.DestroyPool(sys, NativePoolID, nil); err != nil {
		t.Fatalf("phase 1: %v", err)
	}
	// The funds account still holds its existential seed.
	if err := engine.DestroyPool(sys, NativePoolID, nil); err != ErrMissingDestination {
		t.Fatalf("expected ErrMissingDestination, got %v", err)
	}
}
