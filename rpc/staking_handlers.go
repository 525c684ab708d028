package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"stakevault/crypto"
	"stakevault/native/staking"
)

type stakeParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type redeemParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type claimParams struct {
	Caller string `json:"caller"`
}

type sweepParams struct {
	Caller string `json:"caller"`
}

type transferOwnershipParams struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

type accountParams struct {
	Account string `json:"account"`
}

type positionResult struct {
	Account            string `json:"account"`
	StakedAmount       string `json:"stakedAmount"`
	StakingStartTime   uint64 `json:"stakingStartTime"`
	HasClaimedInterest bool   `json:"hasClaimedInterest"`
}

type claimResult struct {
	Interest string `json:"interest"`
}

type sweepResult struct {
	Swept string `json:"swept"`
}

type amountResult struct {
	Amount string `json:"amount"`
}

type addressResult struct {
	Address string `json:"address"`
}

func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return fmt.Errorf("invalid parameter object: %v", err)
	}
	return nil
}

func decodeAccount(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

func (s *Server) handleStakingStake(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params stakeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAccount(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.Stake(caller, amount); err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	s.writePosition(w, req.ID, params.Caller, caller)
}

func (s *Server) handleStakingRedeem(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params redeemParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAccount(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.Redeem(caller, amount); err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	s.writePosition(w, req.ID, params.Caller, caller)
}

func (s *Server) handleStakingClaimInterest(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params claimParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAccount(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	paid, err := s.node.ClaimInterest(caller)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, claimResult{Interest: paid.String()})
}

func (s *Server) handleStakingSweep(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params sweepParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAccount(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	swept, err := s.node.Sweep(caller)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, sweepResult{Swept: swept.String()})
}

func (s *Server) handleStakingTransferOwnership(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params transferOwnershipParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeAccount(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	newOwner, err := decodeAccount(params.NewOwner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid new owner address", err.Error())
		return
	}
	if err := s.node.TransferOwnership(caller, newOwner); err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, addressResult{Address: params.NewOwner})
}

func (s *Server) handleStakingGetAccruedInterest(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := decodeAccount(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	interest, err := s.node.AccruedInterest(account)
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: interest.String()})
}

func (s *Server) handleStakingPosition(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := decodeAccount(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	s.writePosition(w, req.ID, params.Account, account)
}

func (s *Server) writePosition(w http.ResponseWriter, id interface{}, display string, account [20]byte) {
	pos, err := s.node.StakePosition(account)
	if err != nil {
		writeOperationError(w, id, err)
		return
	}
	writeResult(w, id, positionFromRecord(display, pos))
}

func positionFromRecord(display string, pos *staking.Position) positionResult {
	amount := "0"
	if pos != nil && pos.Amount != nil {
		amount = pos.Amount.String()
	}
	result := positionResult{Account: display, StakedAmount: amount}
	if pos != nil {
		result.StakingStartTime = pos.StartTime
		result.HasClaimedInterest = pos.InterestClaimed
	}
	return result
}

func (s *Server) handleStakingTotalStaked(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	total, err := s.node.TotalStaked()
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, amountResult{Amount: total.String()})
}

func (s *Server) handleStakingOwner(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	owner, err := s.node.StakeOwner()
	if err != nil {
		writeOperationError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, addressResult{Address: crypto.NewAddress(owner[:]).String()})
}

func (s *Server) handleStakingToken(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	vault := s.node.Vault()
	writeResult(w, req.ID, addressResult{Address: crypto.NewAddress(vault[:]).String()})
}
