package events

import (
	"math/big"

	"stakevault/core/types"
	"stakevault/crypto"
)

const (
	TypeTokenTransferred = "token.transferred"
	TypeTokenApproved    = "token.approved"
	TypeTokenMinted      = "token.minted"
)

// TokenTransferred captures a balance movement on the token ledger.
type TokenTransferred struct {
	From   [20]byte
	To     [20]byte
	Amount *big.Int
}

func (TokenTransferred) EventType() string { return TypeTokenTransferred }

func (e TokenTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransferred,
		Attributes: map[string]string{
			"from":   crypto.NewAddress(e.From[:]).String(),
			"to":     crypto.NewAddress(e.To[:]).String(),
			"amount": formatAmount(e.Amount),
		},
	}
}

// TokenApproved captures an allowance grant.
type TokenApproved struct {
	Owner   [20]byte
	Spender [20]byte
	Amount  *big.Int
}

func (TokenApproved) EventType() string { return TypeTokenApproved }

func (e TokenApproved) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenApproved,
		Attributes: map[string]string{
			"owner":   crypto.NewAddress(e.Owner[:]).String(),
			"spender": crypto.NewAddress(e.Spender[:]).String(),
			"amount":  formatAmount(e.Amount),
		},
	}
}

// TokenMinted captures supply issued at genesis or by the owner.
type TokenMinted struct {
	To     [20]byte
	Amount *big.Int
}

func (TokenMinted) EventType() string { return TypeTokenMinted }

func (e TokenMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenMinted,
		Attributes: map[string]string{
			"to":     crypto.NewAddress(e.To[:]).String(),
			"amount": formatAmount(e.Amount),
		},
	}
}
