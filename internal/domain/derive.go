package domain

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
)

// SecondsPerDurationUnit converts the auction duration from chain-native
// time units to seconds.
const SecondsPerDurationUnit = 14

// ErrMalformedTimestamp is returned when a chain timestamp string does not
// parse as a base-10 integer.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// ErrInsufficientNewBid is returned when a target bid does not exceed the
// amount already escrowed for the account.
var ErrInsufficientNewBid = errors.New("bid does not exceed escrowed amount")

// EndDate computes the auction end as Unix seconds:
// startedAt + durationUnits * SecondsPerDurationUnit.
func EndDate(startedAt string, durationUnits uint64) (int64, error) {
	start, err := strconv.ParseInt(startedAt, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, startedAt)
	}
	return start + int64(durationUnits)*SecondsPerDurationUnit, nil
}

// BidDelta computes the incremental payment required to raise an account's
// bid from its escrowed amount to target. The chain escrows prior bids, so
// only the difference is sent with a new bid transaction. A delta that is
// zero or negative is not a valid payment and yields ErrInsufficientNewBid.
func BidDelta(target, escrowed *big.Int) (*big.Int, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: no target bid", ErrInsufficientNewBid)
	}
	delta := new(big.Int).Set(target)
	if escrowed != nil {
		delta.Sub(delta, escrowed)
	}
	if delta.Sign() <= 0 {
		return nil, fmt.Errorf("%w: target %s, escrowed %s", ErrInsufficientNewBid, target, escrowed)
	}
	return delta, nil
}
