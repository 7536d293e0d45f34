package pools

import "errors"

var (
	ErrNilState     = errors.New("pools: state not configured")
	ErrNilProvider  = errors.New("pools: staking provider not configured")
	ErrUnauthorized = errors.New("pools: unauthorized")

	// Currency registry.
	ErrCurrencyNotFound      = errors.New("pools: currency not found")
	ErrCurrencyExists        = errors.New("pools: currency already exists")
	ErrCurrencyDestroyed     = errors.New("pools: currency destroyed")
	ErrCurrencyInUse         = errors.New("pools: currency still referenced by a pool")
	ErrNativeCurrencyMissing = errors.New("pools: native currency not registered")
	ErrNativeCurrencyFixed   = errors.New("pools: native currency cannot be destroyed")
	ErrNativeMinBond         = errors.New("pools: native currency min bond must be zero")
	ErrInvalidName           = errors.New("pools: name must not be empty")
	ErrInvalidDecimals       = errors.New("pools: decimals must be positive")
	ErrInvalidBondLimits     = errors.New("pools: max bond must exceed min bond")
	ErrInvalidRate           = errors.New("pools: rate must be positive")
	ErrMaxBelowCommitted     = errors.New("pools: max bond below committed totals")
	ErrRateNotFound          = errors.New("pools: no conversion rate for era")

	// Pool registry.
	ErrPoolNotFound       = errors.New("pools: pool not found")
	ErrPoolExists         = errors.New("pools: pool already exists")
	ErrBasePoolMissing    = errors.New("pools: base pool not created")
	ErrNativePoolCurrency = errors.New("pools: base pool must use the native currency")
	ErrInvalidAPY         = errors.New("pools: apy must be positive")
	ErrPoolDestroying     = errors.New("pools: pool is being destroyed")
	ErrPoolStateInvalid   = errors.New("pools: pool state does not permit this action")
	ErrNoTargets          = errors.New("pools: pool requires at least one validator target")
	ErrInvalidValidator   = errors.New("pools: target is not a valid validator")
	ErrPoolNotEmpty       = errors.New("pools: pool still holds members, stake or rewards")
	ErrMissingDestination = errors.New("pools: leftover destination required")

	// Membership and funds.
	ErrMembershipNotFound  = errors.New("pools: membership not found")
	ErrInvalidAmount       = errors.New("pools: amount must be positive")
	ErrBelowMinBond        = errors.New("pools: balance below currency minimum bond")
	ErrAboveMaxBond        = errors.New("pools: amount exceeds currency maximum bond")
	ErrTVLCapExceeded      = errors.New("pools: total value locked cap exceeded")
	ErrCapacityExceeded    = errors.New("pools: bounded list capacity exceeded")
	ErrInsufficientPoints  = errors.New("pools: insufficient active points")
	ErrInsufficientBalance = errors.New("pools: insufficient balance")
	ErrNothingDue          = errors.New("pools: no unbonding chunk is due")

	// Rewards and claims.
	ErrExposureNotFound = errors.New("pools: exposure not recorded for era")
	ErrRewardNotFound   = errors.New("pools: reward not recorded for era")
	ErrAlreadyClaimed   = errors.New("pools: reward already claimed")
	ErrNothingToClaim   = errors.New("pools: nothing to claim")

	// Slashing.
	ErrSlashNotFound = errors.New("pools: pending slash not found")
	ErrSlashIndex    = errors.New("pools: unapplied slash index out of range")

	// Boost.
	ErrNoBoostOffer        = errors.New("pools: pool has no boost offer")
	ErrBoostAllocationsSet = errors.New("pools: user already holds boost allocations")

	// Arithmetic.
	ErrArithmeticOverflow = errors.New("pools: arithmetic overflow")
	ErrDivisionByZero     = errors.New("pools: division by zero total")
)
