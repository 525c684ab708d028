package staking

import "math/big"

// Interest accrues in three elapsed-time tiers. Rates are applied with
// truncating integer division, so 1% of 150 pays 1.
const (
	// InterestCliffSeconds is the minimum cycle age before any interest accrues.
	InterestCliffSeconds uint64 = 86_400 // 1 day
	// InterestMatureSeconds is the cycle age at which the mature rate applies.
	InterestMatureSeconds uint64 = 604_800 // 7 days

	baseRatePercent   = 1
	matureRatePercent = 10
)

var percentDivisor = big.NewInt(100)

// Accrued computes the interest due on amount after elapsed seconds. It is a
// pure function: nil or non-positive amounts yield zero regardless of elapsed
// time, and the result is non-decreasing in elapsed for a fixed amount.
func Accrued(amount *big.Int, elapsed uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	var rate int64
	switch {
	case elapsed < InterestCliffSeconds:
		return big.NewInt(0)
	case elapsed < InterestMatureSeconds:
		rate = baseRatePercent
	default:
		rate = matureRatePercent
	}
	interest := new(big.Int).Mul(amount, big.NewInt(rate))
	return interest.Div(interest, percentDivisor)
}
