package main

import "fmt"

type positionResponse struct {
	Account            string `json:"account"`
	StakedAmount       string `json:"stakedAmount"`
	StakingStartTime   uint64 `json:"stakingStartTime"`
	HasClaimedInterest bool   `json:"hasClaimedInterest"`
}

type amountResponse struct {
	Amount string `json:"amount"`
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

type claimResponse struct {
	Interest string `json:"interest"`
}

type sweepResponse struct {
	Swept string `json:"swept"`
}

type addressResponse struct {
	Address string `json:"address"`
}

func getBalance(address string) {
	raw := callRPC("token_balanceOf", []interface{}{map[string]string{"account": address}}, false)
	var resp balanceResponse
	decodeInto(raw, &resp)
	fmt.Printf("Balance of %s: %s\n", resp.Account, resp.Balance)
}

func getPosition(address string) {
	raw := callRPC("staking_position", []interface{}{map[string]string{"account": address}}, false)
	var resp positionResponse
	decodeInto(raw, &resp)
	fmt.Printf("Stake position for %s\n", resp.Account)
	fmt.Printf("  Staked amount:    %s\n", resp.StakedAmount)
	fmt.Printf("  Cycle start time: %d\n", resp.StakingStartTime)
	fmt.Printf("  Interest claimed: %t\n", resp.HasClaimedInterest)
}

func getAccruedInterest(address string) {
	raw := callRPC("staking_getAccruedInterest", []interface{}{map[string]string{"account": address}}, false)
	var resp amountResponse
	decodeInto(raw, &resp)
	fmt.Printf("Accrued interest for %s: %s\n", address, resp.Amount)
}

func approveVault(address, amount string) {
	vaultRaw := callRPC("staking_token", []interface{}{map[string]string{}}, false)
	var vault addressResponse
	decodeInto(vaultRaw, &vault)
	callRPC("token_approve", []interface{}{map[string]string{
		"caller": address, "spender": vault.Address, "amount": amount,
	}}, true)
	fmt.Printf("Approved vault %s for %s\n", vault.Address, amount)
}

func stake(address, amount string) {
	raw := callRPC("staking_stake", []interface{}{map[string]string{"caller": address, "amount": amount}}, true)
	var resp positionResponse
	decodeInto(raw, &resp)
	fmt.Printf("Staked %s; active stake is now %s (cycle start %d)\n", amount, resp.StakedAmount, resp.StakingStartTime)
}

func redeem(address, amount string) {
	raw := callRPC("staking_redeem", []interface{}{map[string]string{"caller": address, "amount": amount}}, true)
	var resp positionResponse
	decodeInto(raw, &resp)
	fmt.Printf("Redeemed %s; remaining stake is %s\n", amount, resp.StakedAmount)
}

func claimInterest(address string) {
	raw := callRPC("staking_claimInterest", []interface{}{map[string]string{"caller": address}}, true)
	var resp claimResponse
	decodeInto(raw, &resp)
	fmt.Printf("Claimed interest: %s\n", resp.Interest)
}

func sweep(owner string) {
	raw := callRPC("staking_sweep", []interface{}{map[string]string{"caller": owner}}, true)
	var resp sweepResponse
	decodeInto(raw, &resp)
	fmt.Printf("Swept surplus reserve: %s\n", resp.Swept)
}

func transferOwnership(owner, newOwner string) {
	callRPC("staking_transferOwnership", []interface{}{map[string]string{
		"caller": owner, "newOwner": newOwner,
	}}, true)
	fmt.Printf("Ownership transferred to %s\n", newOwner)
}

func getOwner() {
	raw := callRPC("staking_owner", []interface{}{map[string]string{}}, false)
	var resp addressResponse
	decodeInto(raw, &resp)
	fmt.Printf("Vault owner: %s\n", resp.Address)
}

func getTotalStaked() {
	raw := callRPC("staking_totalStaked", []interface{}{map[string]string{}}, false)
	var resp amountResponse
	decodeInto(raw, &resp)
	fmt.Printf("Total staked: %s\n", resp.Amount)
}
