package state

import (
	"encoding/binary"
	"errors"
	"math/big"
)

var (
	// ErrInsufficientBalance is returned when a transfer or burn exceeds the
	// source balance, or would leave it below the required minimum.
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	// ErrInvalidAmount is returned for nil or negative amounts.
	ErrInvalidAmount = errors.New("state: amount must not be negative")
)

var balancePrefix = []byte("balance/")

func balanceKey(currency uint32, addr [20]byte) []byte {
	key := make([]byte, 0, len(balancePrefix)+4+20)
	key = append(key, balancePrefix...)
	key = binary.BigEndian.AppendUint32(key, currency)
	key = append(key, addr[:]...)
	return key
}

// Balance returns the balance held by addr in the given currency. Missing
// entries read as zero.
func (m *Manager) Balance(currency uint32, addr [20]byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.KVGet(balanceKey(currency, addr), value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

func (m *Manager) setBalance(currency uint32, addr [20]byte, value *big.Int) error {
	key := balanceKey(currency, addr)
	if value.Sign() == 0 {
		return m.KVDelete(key)
	}
	return m.KVPut(key, value)
}

// Transfer moves amount of currency from one account to another. A non-nil
// minRemaining enforces a keep-alive policy: the source balance after the
// transfer must stay at or above it.
func (m *Manager) Transfer(currency uint32, from, to [20]byte, amount, minRemaining *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBalance, err := m.Balance(currency, from)
	if err != nil {
		return err
	}
	remaining := new(big.Int).Sub(fromBalance, amount)
	if remaining.Sign() < 0 {
		return ErrInsufficientBalance
	}
	if minRemaining != nil && remaining.Cmp(minRemaining) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := m.Balance(currency, to)
	if err != nil {
		return err
	}
	if err := m.setBalance(currency, from, remaining); err != nil {
		return err
	}
	return m.setBalance(currency, to, new(big.Int).Add(toBalance, amount))
}

// Mint credits amount of currency to addr.
func (m *Manager) Mint(currency uint32, addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	balance, err := m.Balance(currency, addr)
	if err != nil {
		return err
	}
	return m.setBalance(currency, addr, new(big.Int).Add(balance, amount))
}

// Burn removes amount of currency from addr.
func (m *Manager) Burn(currency uint32, addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	balance, err := m.Balance(currency, addr)
	if err != nil {
		return err
	}
	remaining := new(big.Int).Sub(balance, amount)
	if remaining.Sign() < 0 {
		return ErrInsufficientBalance
	}
	return m.setBalance(currency, addr, remaining)
}
