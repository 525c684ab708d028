package staking

import "math/big"

// Position is the per-account staking record. A zero-valued Position means the
// account has never staked or has fully redeemed.
//
// Invariants maintained by the engine:
//   - Amount == 0 implies StartTime == 0.
//   - A nonzero StartTime always belongs to the currently active cycle; it is
//     reset only when the cycle ends (full redemption or a superseding stake).
//   - InterestClaimed is meaningful only while Amount > 0; it is cleared at
//     the start of every cycle and set either by a successful claim or by any
//     redemption (forfeiture).
type Position struct {
	Amount          *big.Int
	StartTime       uint64
	InterestClaimed bool
}

// NewPosition returns an empty record for an account with no active cycle.
func NewPosition() *Position {
	return &Position{Amount: big.NewInt(0)}
}

// Active reports whether the record describes an open stake cycle.
func (p *Position) Active() bool {
	return p != nil && p.Amount != nil && p.Amount.Sign() > 0
}

// Clone returns a deep copy of the record.
func (p *Position) Clone() *Position {
	if p == nil {
		return NewPosition()
	}
	amount := big.NewInt(0)
	if p.Amount != nil {
		amount = new(big.Int).Set(p.Amount)
	}
	return &Position{
		Amount:          amount,
		StartTime:       p.StartTime,
		InterestClaimed: p.InterestClaimed,
	}
}
