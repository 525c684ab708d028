package state

import (
	"fmt"
	"math/big"

	"stakevault/native/staking"
)

func stakePositionKey(addr [20]byte) []byte {
	return prefixedKey(stakePositionPrefix, addr[:])
}

type storedPosition struct {
	Amount          *big.Int
	StartTime       uint64
	InterestClaimed bool
}

// StakeGet loads the staking record for an account. Accounts that were never
// observed yield a zero-valued record.
func (m *Manager) StakeGet(addr [20]byte) (*staking.Position, error) {
	stored := &storedPosition{}
	ok, err := m.readRLP(stakePositionKey(addr), stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return staking.NewPosition(), nil
	}
	amount := big.NewInt(0)
	if stored.Amount != nil {
		amount = new(big.Int).Set(stored.Amount)
	}
	return &staking.Position{
		Amount:          amount,
		StartTime:       stored.StartTime,
		InterestClaimed: stored.InterestClaimed,
	}, nil
}

// StakePut persists the staking record for an account.
func (m *Manager) StakePut(addr [20]byte, p *staking.Position) error {
	if p == nil {
		p = staking.NewPosition()
	}
	amount := big.NewInt(0)
	if p.Amount != nil {
		amount = new(big.Int).Set(p.Amount)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: negative stake amount")
	}
	stored := &storedPosition{
		Amount:          amount,
		StartTime:       p.StartTime,
		InterestClaimed: p.InterestClaimed,
	}
	return m.writeRLP(stakePositionKey(addr), stored)
}

// StakeOwner returns the configured vault administrator. The zero address is
// returned when ownership has never been initialised.
func (m *Manager) StakeOwner() ([20]byte, error) {
	var owner [20]byte
	raw := []byte{}
	ok, err := m.readRLP(prefixedKey(stakeOwnerKeyBytes), &raw)
	if err != nil {
		return owner, err
	}
	if !ok {
		return owner, nil
	}
	if len(raw) != len(owner) {
		return owner, fmt.Errorf("state: malformed owner record")
	}
	copy(owner[:], raw)
	return owner, nil
}

// SetStakeOwner persists the vault administrator.
func (m *Manager) SetStakeOwner(owner [20]byte) error {
	return m.writeRLP(prefixedKey(stakeOwnerKeyBytes), owner[:])
}

// StakeTotal returns the aggregate principal currently staked across all
// accounts. Sweep uses it to compute the vault's surplus reserve.
func (m *Manager) StakeTotal() (*big.Int, error) {
	return m.readBigInt(prefixedKey(stakeTotalKeyBytes))
}

// SetStakeTotal persists the aggregate staked principal.
func (m *Manager) SetStakeTotal(total *big.Int) error {
	return m.writeBigInt(prefixedKey(stakeTotalKeyBytes), total)
}
