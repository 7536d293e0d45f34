package events

import (
	"math/big"
	"testing"
)

func TestRecorderFiltersByType(t *testing.T) {
	recorder := &Recorder{}
	recorder.Emit(CurrencyRegistered{ID: 1, Name: "TOKEN"})
	recorder.Emit(PoolCreated{ID: 2})
	recorder.Emit(CurrencyRegistered{ID: 3, Name: "OTHER"})

	registered := recorder.ByType(TypeCurrencyRegistered)
	if len(registered) != 2 {
		t.Fatalf("expected 2 registered events, got %d", len(registered))
	}
	recorder.Reset()
	if len(recorder.Events) != 0 {
		t.Fatalf("reset left %d events", len(recorder.Events))
	}
}

func TestEventAttributeConversion(t *testing.T) {
	var user [20]byte
	user[19] = 0xab
	event := Staked{
		Pool:   7,
		User:   user,
		Amount: big.NewInt(1500),
		Points: big.NewInt(1500),
		Joined: true,
	}
	converted := event.Event()
	if converted.Type != TypeStaked {
		t.Fatalf("unexpected type %q", converted.Type)
	}
	if converted.Attributes["pool"] != "7" {
		t.Fatalf("pool attribute %q", converted.Attributes["pool"])
	}
	if converted.Attributes["amount"] != "1500" {
		t.Fatalf("amount attribute %q", converted.Attributes["amount"])
	}
	if converted.Attributes["user"] != "0x00000000000000000000000000000000000000ab" {
		t.Fatalf("user attribute %q", converted.Attributes["user"])
	}
	if converted.Attributes["joined"] != "true" {
		t.Fatalf("joined attribute %q", converted.Attributes["joined"])
	}
}

func TestNilAmountsRenderAsZero(t *testing.T) {
	event := RewardMissed{Era: 1, Pool: 2, Reason: "insufficient funds"}
	converted := event.Event()
	if converted.Attributes["amount"] != "0" {
		t.Fatalf("nil amount rendered as %q", converted.Attributes["amount"])
	}
}
