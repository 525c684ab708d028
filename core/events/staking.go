package events

import (
	"math/big"

	"stakevault/core/types"
	"stakevault/crypto"
)

const (
	// TypeStaked captures a new deposit opening a stake cycle.
	TypeStaked = "staking.staked"
	// TypeRedeemed captures a partial or full principal payout.
	TypeRedeemed = "staking.redeemed"
	// TypeInterestClaimed is emitted when cycle interest is paid to an account.
	TypeInterestClaimed = "staking.interestClaimed"
	// TypeSwept signals a withdrawal of the vault's surplus reserve to the owner.
	TypeSwept = "staking.swept"
	// TypeOwnershipTransferred records a change of the vault administrator.
	TypeOwnershipTransferred = "staking.ownershipTransferred"
)

// Staked captures the deposit that opened a new stake cycle.
type Staked struct {
	Account   [20]byte
	Amount    *big.Int
	StartTime uint64
}

func (Staked) EventType() string { return TypeStaked }

func (e Staked) Event() *types.Event {
	return &types.Event{
		Type: TypeStaked,
		Attributes: map[string]string{
			"account":   crypto.NewAddress(e.Account[:]).String(),
			"amount":    formatAmount(e.Amount),
			"startTime": uintToString(e.StartTime),
		},
	}
}

// Redeemed captures principal returned to an account.
type Redeemed struct {
	Account   [20]byte
	Amount    *big.Int
	Remaining *big.Int
}

func (Redeemed) EventType() string { return TypeRedeemed }

func (e Redeemed) Event() *types.Event {
	return &types.Event{
		Type: TypeRedeemed,
		Attributes: map[string]string{
			"account":   crypto.NewAddress(e.Account[:]).String(),
			"amount":    formatAmount(e.Amount),
			"remaining": formatAmount(e.Remaining),
		},
	}
}

// InterestClaimed captures an interest payout for the current cycle.
type InterestClaimed struct {
	Account  [20]byte
	Interest *big.Int
}

func (InterestClaimed) EventType() string { return TypeInterestClaimed }

func (e InterestClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeInterestClaimed,
		Attributes: map[string]string{
			"account":  crypto.NewAddress(e.Account[:]).String(),
			"interest": formatAmount(e.Interest),
		},
	}
}

// Swept captures a surplus withdrawal to the vault owner.
type Swept struct {
	Owner  [20]byte
	Amount *big.Int
}

func (Swept) EventType() string { return TypeSwept }

func (e Swept) Event() *types.Event {
	return &types.Event{
		Type: TypeSwept,
		Attributes: map[string]string{
			"owner":  crypto.NewAddress(e.Owner[:]).String(),
			"amount": formatAmount(e.Amount),
		},
	}
}

// OwnershipTransferred captures a change of vault administrator.
type OwnershipTransferred struct {
	PreviousOwner [20]byte
	NewOwner      [20]byte
}

func (OwnershipTransferred) EventType() string { return TypeOwnershipTransferred }

func (e OwnershipTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeOwnershipTransferred,
		Attributes: map[string]string{
			"previousOwner": crypto.NewAddress(e.PreviousOwner[:]).String(),
			"newOwner":      crypto.NewAddress(e.NewOwner[:]).String(),
		},
	}
}
