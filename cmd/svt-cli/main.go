package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"stakevault/crypto"
)

var rpcEndpoint = defaultRPCEndpoint()
var rpcAuthToken = os.Getenv("SVT_RPC_TOKEN")

func defaultRPCEndpoint() string {
	if url := os.Getenv("SVT_RPC_URL"); url != "" {
		return url
	}
	return "http://127.0.0.1:8645"
}

func main() {
	args := os.Args[1:]
	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	switch command {
	case "generate-key":
		generateKey()
	case "balance":
		requireArgs(args, 2, "Please provide an address.")
		getBalance(args[1])
	case "position":
		requireArgs(args, 2, "Please provide an address.")
		getPosition(args[1])
	case "accrued":
		requireArgs(args, 2, "Please provide an address.")
		getAccruedInterest(args[1])
	case "approve":
		requireArgs(args, 3, "Please provide an address and an amount.")
		approveVault(args[1], args[2])
	case "stake":
		requireArgs(args, 3, "Please provide an address and an amount.")
		stake(args[1], args[2])
	case "redeem":
		requireArgs(args, 3, "Please provide an address and an amount.")
		redeem(args[1], args[2])
	case "claim":
		requireArgs(args, 2, "Please provide an address.")
		claimInterest(args[1])
	case "sweep":
		requireArgs(args, 2, "Please provide the owner address.")
		sweep(args[1])
	case "transfer-ownership":
		requireArgs(args, 3, "Please provide the owner and new owner addresses.")
		transferOwnership(args[1], args[2])
	case "owner":
		getOwner()
	case "total-staked":
		getTotalStaked()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func requireArgs(args []string, n int, message string) {
	if len(args) < n {
		fmt.Println("Error: " + message)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: svt-cli <command> [arguments]

Commands:
  generate-key                          Generate a new key pair
  balance <address>                     Token ledger balance of an account
  position <address>                    Staking record of an account
  accrued <address>                     Interest currently due to an account
  approve <address> <amount>            Grant the vault an allowance for deposits
  stake <address> <amount>              Open (or roll over) a stake cycle
  redeem <address> <amount>             Redeem staked principal
  claim <address>                       Claim accrued interest for the cycle
  sweep <owner>                         Withdraw the surplus reserve (owner only)
  transfer-ownership <owner> <new>      Replace the vault administrator
  owner                                 Show the vault administrator
  total-staked                          Show aggregate staked principal

Environment:
  SVT_RPC_URL     RPC endpoint (default http://127.0.0.1:8645)
  SVT_RPC_TOKEN   Bearer token for mutating methods`)
}

func generateKey() {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Printf("Failed to generate key: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Address:     %s\n", key.PubKey().Address().String())
	fmt.Printf("Private key: %s\n", hex.EncodeToString(key.Bytes()))
}
