package pools

import (
	"math/big"

	"github.com/holiman/uint256"
)

// rateScale is the fixed-point denominator for conversion rates and slash
// ratios: a rate of 1e18 is 1 native base unit per currency base unit.
var rateScale = big.NewInt(1_000_000_000_000_000_000)

// mulDiv computes floor(a*b/den) with a 512-bit intermediate product so the
// multiply can never lose precision before the divide. Inputs and result must
// fit 256 bits.
func mulDiv(a, b, den *big.Int) (*big.Int, error) {
	if den == nil || den.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	x, overflow := uint256.FromBig(orZero(a))
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	y, overflow := uint256.FromBig(orZero(b))
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	d, overflow := uint256.FromBig(den)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	result, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return result.ToBig(), nil
}

// currencyToNative converts currency base units into native base units at the
// supplied fixed-point rate, truncating.
func currencyToNative(amount, rate *big.Int) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrInvalidRate
	}
	return mulDiv(amount, rate, rateScale)
}

// nativeToCurrency converts native base units into currency base units at the
// supplied fixed-point rate, truncating.
func nativeToCurrency(amount, rate *big.Int) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrInvalidRate
	}
	return mulDiv(amount, rateScale, rate)
}

// currencyToPoints converts a currency amount into pool points at the pool's
// running ratio, defaulting to 1:1 for an empty pool.
func currencyToPoints(pool *Pool, amount *big.Int) (*big.Int, error) {
	if pool.TotalPoints.Sign() == 0 || pool.TotalStaked.Sign() == 0 {
		return copyBigInt(amount), nil
	}
	return mulDiv(amount, pool.TotalPoints, pool.TotalStaked)
}

// pointsToCurrency converts pool points into a currency amount at the pool's
// running ratio, defaulting to 1:1 for an empty pool.
func pointsToCurrency(pool *Pool, points *big.Int) (*big.Int, error) {
	if pool.TotalPoints.Sign() == 0 || pool.TotalStaked.Sign() == 0 {
		return copyBigInt(points), nil
	}
	return mulDiv(points, pool.TotalStaked, pool.TotalPoints)
}

// applyRatio computes floor(value * ratio / 1e18).
func applyRatio(value, ratio *big.Int) (*big.Int, error) {
	return mulDiv(value, ratio, rateScale)
}

// yieldAmount computes floor(value * apyBps * durationSeconds /
// (10_000 * yearSeconds)).
func yieldAmount(value *big.Int, apyBps, durationSeconds uint64) (*big.Int, error) {
	numerator := new(big.Int).Mul(
		new(big.Int).SetUint64(apyBps),
		new(big.Int).SetUint64(durationSeconds),
	)
	denominator := new(big.Int).Mul(
		big.NewInt(10_000),
		new(big.Int).SetUint64(SecondsPerYear),
	)
	return mulDiv(value, numerator, denominator)
}

func orZero(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return value
}
