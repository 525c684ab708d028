package token

import "math/big"

// VaultLedger narrows the token engine to the view the staking engine needs:
// payouts out of the vault, deposits pulled into the vault, and the vault's
// current balance. The vault address itself acts as the spender for pulls, so
// depositors grant their allowance to the vault.
type VaultLedger struct {
	engine *Engine
	vault  [20]byte
}

// NewVaultLedger binds the token engine to a vault custody address.
func NewVaultLedger(engine *Engine, vault [20]byte) *VaultLedger {
	return &VaultLedger{engine: engine, vault: vault}
}

// Vault returns the custody address the ledger is bound to.
func (v *VaultLedger) Vault() [20]byte {
	return v.vault
}

// Transfer pays amount out of the vault to an account.
func (v *VaultLedger) Transfer(to [20]byte, amount *big.Int) error {
	return v.engine.Transfer(v.vault, to, amount)
}

// TransferFrom moves amount from an account with the vault acting as spender,
// consuming the allowance the account granted to the vault. Deposits pass the
// vault itself as to.
func (v *VaultLedger) TransferFrom(from, to [20]byte, amount *big.Int) error {
	return v.engine.TransferFrom(v.vault, from, to, amount)
}

// BalanceOf returns the ledger balance of an account.
func (v *VaultLedger) BalanceOf(addr [20]byte) (*big.Int, error) {
	return v.engine.BalanceOf(addr)
}
