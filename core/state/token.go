package state

import "math/big"

func tokenBalanceKey(addr [20]byte) []byte {
	return prefixedKey(tokenBalancePrefix, addr[:])
}

func tokenAllowanceKey(owner, spender [20]byte) []byte {
	return prefixedKey(tokenAllowancePrefix, owner[:], spender[:])
}

// TokenBalance returns the ledger balance for an account, zero when unset.
func (m *Manager) TokenBalance(addr [20]byte) (*big.Int, error) {
	return m.readBigInt(tokenBalanceKey(addr))
}

// SetTokenBalance persists the ledger balance for an account.
func (m *Manager) SetTokenBalance(addr [20]byte, amount *big.Int) error {
	return m.writeBigInt(tokenBalanceKey(addr), amount)
}

// TokenAllowance returns the amount spender may move out of owner's balance.
func (m *Manager) TokenAllowance(owner, spender [20]byte) (*big.Int, error) {
	return m.readBigInt(tokenAllowanceKey(owner, spender))
}

// SetTokenAllowance persists an allowance grant.
func (m *Manager) SetTokenAllowance(owner, spender [20]byte, amount *big.Int) error {
	return m.writeBigInt(tokenAllowanceKey(owner, spender), amount)
}

// TokenSupply returns the total minted supply.
func (m *Manager) TokenSupply() (*big.Int, error) {
	return m.readBigInt(prefixedKey(tokenSupplyKeyBytes))
}

// SetTokenSupply persists the total minted supply.
func (m *Manager) SetTokenSupply(supply *big.Int) error {
	return m.writeBigInt(prefixedKey(tokenSupplyKeyBytes), supply)
}
