package pools

import (
	"math/big"
	"testing"
)

func TestRegisterCurrencyValidation(t *testing.T) {
	engine, _ := newTestEngine(t, newTestProvider())
	sys := SystemCaller()

	if err := engine.RegisterCurrency(UserCaller(addr(1)), NativeCurrencyID, "NATIVE", 18, units(100), nil, unitRate()); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := engine.RegisterCurrency(sys, 7, "TOKEN", 6, units(100), nil, unitRate()); err != ErrNativeCurrencyMissing {
		t.Fatalf("expected ErrNativeCurrencyMissing, got %v", err)
	}
	if err := engine.RegisterCurrency(sys, NativeCurrencyID, "NATIVE", 18, units(100), amount(1), unitRate()); err != ErrNativeMinBond {
		t.Fatalf("expected ErrNativeMinBond, got %v", err)
	}
	if err := engine.RegisterCurrency(sys, NativeCurrencyID, "NATIVE", 18, units(100), nil, unitRate()); err != nil {
		t.Fatalf("register native: %v", err)
	}
	if err := engine.RegisterCurrency(sys, 1, "TOKEN", 0, units(100), nil, unitRate()); err != ErrInvalidDecimals {
		t.Fatalf("expected ErrInvalidDecimals, got %v", err)
	}
	if err := engine.RegisterCurrency(sys, 1, "TOKEN", 6, units(1), units(2), unitRate()); err != ErrInvalidBondLimits {
		t.Fatalf("expected ErrInvalidBondLimits, got %v", err)
	}
	if err := engine.RegisterCurrency(sys, 1, "TOKEN", 6, units(100), units(1), big.NewInt(0)); err != ErrInvalidRate {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if err := engine.RegisterCurrency(sys, 1, "TOKEN", 6, units(100), units(1), unitRate()); err != nil {
		t.Fatalf("register token: %v", err)
	}

	currency, err := engine.CurrencyInfo(1)
	if err != nil {
		t.Fatalf("currency info: %v", err)
	}
	if currency.Name != "TOKEN" || currency.Decimals != 6 {
		t.Fatalf("unexpected currency record: %+v", currency)
	}
}

func TestUpdateCurrencyGuardsCommittedTotals(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)

	user := addr(1)
	fund(t, engine, NativeCurrencyID, user, units(50))
	if err := engine.Stake(UserCaller(user), NativePoolID, units(50)); err != nil {
		t.Fatalf("stake: %v", err)
	}

	lower := units(40)
	err := engine.UpdateCurrency(SystemCaller(), NativeCurrencyID, CurrencyUpdate{MaxBond: lower})
	if err != ErrMaxBelowCommitted {
		t.Fatalf("expected ErrMaxBelowCommitted, got %v", err)
	}
	name := "RENAMED"
	if err := engine.UpdateCurrency(SystemCaller(), NativeCurrencyID, CurrencyUpdate{Name: &name}); err != nil {
		t.Fatalf("update name: %v", err)
	}
	currency, err := engine.CurrencyInfo(NativeCurrencyID)
	if err != nil {
		t.Fatalf("currency info: %v", err)
	}
	if currency.Name != "RENAMED" {
		t.Fatalf("name not updated: %q", currency.Name)
	}
}

func TestNextRateTakesEffectAtEraBoundary(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)
	sys := SystemCaller()
	if err := engine.RegisterCurrency(sys, 1, "TOKEN", 6, units(1000), amount(1), unitRate()); err != nil {
		t.Fatalf("register token: %v", err)
	}

	doubled := new(big.Int).Mul(unitRate(), big.NewInt(2))
	if err := engine.SetNextRate(sys, 1, doubled); err != nil {
		t.Fatalf("set next rate: %v", err)
	}
	// The staged rate must not leak into the current era.
	current, err := engine.rateAt(0, 1)
	if err != nil {
		t.Fatalf("rate at era 0: %v", err)
	}
	if current.Cmp(unitRate()) != 0 {
		t.Fatalf("current era rate changed: %s", current)
	}

	if err := engine.BeginEra(1); err != nil {
		t.Fatalf("begin era: %v", err)
	}
	next, err := engine.rateAt(1, 1)
	if err != nil {
		t.Fatalf("rate at era 1: %v", err)
	}
	if next.Cmp(doubled) != 0 {
		t.Fatalf("staged rate not applied: %s", next)
	}
	// The native rate carries over unchanged.
	native, err := engine.rateAt(1, NativeCurrencyID)
	if err != nil {
		t.Fatalf("native rate at era 1: %v", err)
	}
	if native.Cmp(unitRate()) != 0 {
		t.Fatalf("native rate drifted: %s", native)
	}
}

func TestDestroyCurrencyRequiresNoPools(t *testing.T) {
	validator := addr(0xaa)
	engine, _ := newTestEngine(t, newTestProvider(validator))
	setupNative(t, engine, validator)
	sys := SystemCaller()
	if err := engine.RegisterCurrency(sys, 1, "TOKEN", 6, units(1000), amount(1), unitRate()); err != nil {
		t.Fatalf("register token: %v", err)
	}
	if err := engine.CreatePool(sys, 1, 1, 500, addr(0xb0)); err != nil {
		t.Fatalf("create pool: %v", err)
	}

	if err := engine.DestroyCurrency(sys, NativeCurrencyID); err != ErrNativeCurrencyFixed {
		t.Fatalf("expected ErrNativeCurrencyFixed, got %v", err)
	}
	if err := engine.DestroyCurrency(sys, 1); err != ErrCurrencyInUse {
		t.Fatalf("expected ErrCurrencyInUse, got %v", err)
	}

	// Tear the pool down, then destruction succeeds and is irreversible.
	if err := engine.DestroyPool(sys, 1, nil); err != nil {
		t.Fatalf("destroy pool phase 1: %v", err)
	}
	dest := addr(0xcc)
	if err := engine.DestroyPool(sys, 1, &dest); err != nil {
		t.Fatalf("destroy pool phase 2: %v", err)
	}
	if err := engine.DestroyCurrency(sys, 1); err != nil {
		t.Fatalf("destroy currency: %v", err)
	}
	if err := engine.DestroyCurrency(sys, 1); err != ErrCurrencyDestroyed {
		t.Fatalf("expected ErrCurrencyDestroyed, got %v", err)
	}
	if err := engine.SetNextRate(sys, 1, unitRate()); err != ErrCurrencyDestroyed {
		t.Fatalf("expected ErrCurrencyDestroyed on rate set, got %v", err)
	}
}
