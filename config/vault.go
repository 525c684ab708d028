package config

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

// DeriveVaultAddress maps a network name onto a deterministic 20-byte custody
// address. No private key exists for it, so custody funds move only through
// the staking engine.
func DeriveVaultAddress(network string) [20]byte {
	digest := ethcrypto.Keccak256([]byte("stakevault/custody/" + network))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}
