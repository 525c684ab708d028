package core

import (
	"math/big"
	"sync"

	"stakevault/core/events"
	"stakevault/core/state"
	"stakevault/native/staking"
	"stakevault/native/token"
	"stakevault/observability/metrics"
	"stakevault/storage"
)

// Node owns the vault's state manager and engines and serialises every
// mutating operation. The staking engine's reentrancy guard catches nested
// invocation within one operation; the node mutex keeps independent RPC
// requests from tripping it.
type Node struct {
	db      storage.Database
	state   *state.Manager
	staking *staking.Engine
	token   *token.Engine
	vault   [20]byte

	emitter     events.Emitter
	tokenEvents *events.Queue

	stateMu sync.Mutex
}

// NewNode wires the state manager and engines over the supplied database.
// The vault address is the custody account on the token ledger; owner is the
// initial administrator (applied only when state carries none yet).
//
// The token engine emits into a queue rather than straight to the emitter:
// its writes buffer in the shared state manager, so its events must wait for
// the same commit. The staking engine queues internally and flushes after its
// own commit.
func NewNode(db storage.Database, vault, owner [20]byte, emitter events.Emitter) (*Node, error) {
	manager := state.NewManager(db)
	tokenEvents := events.NewQueue()

	tokenEngine := token.NewEngine()
	tokenEngine.SetState(manager)
	tokenEngine.SetEmitter(tokenEvents)

	stakingEngine := staking.NewEngine()
	stakingEngine.SetState(manager)
	stakingEngine.SetToken(token.NewVaultLedger(tokenEngine, vault))
	stakingEngine.SetVault(vault)
	stakingEngine.SetEmitter(emitter)

	if err := stakingEngine.Initialize(owner); err != nil {
		return nil, err
	}

	return &Node{
		db:          db,
		state:       manager,
		staking:     stakingEngine,
		token:       tokenEngine,
		vault:       vault,
		emitter:     emitter,
		tokenEvents: tokenEvents,
	}, nil
}

// settleEvents flushes token events queued during a successful operation and
// drops them when the operation aborted, keeping the audit trail aligned with
// committed state.
func (n *Node) settleEvents(err error) {
	if err != nil {
		n.tokenEvents.Reset()
		return
	}
	n.tokenEvents.Flush(n.emitter)
}

// StakingEngine exposes the staking engine for embedding and tests.
func (n *Node) StakingEngine() *staking.Engine { return n.staking }

// observe records the operation outcome and refreshes the total-staked gauge.
func (n *Node) observe(op string, err error) {
	metrics.Staking().ObserveOperation(op, err)
	if total, totalErr := n.staking.TotalStaked(); totalErr == nil {
		metrics.Staking().SetTotalStaked(total)
	}
}

// Stake opens (or rolls over) a stake cycle for caller.
func (n *Node) Stake(caller [20]byte, amount *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	err := n.staking.Stake(caller, amount)
	n.settleEvents(err)
	n.observe("stake", err)
	return err
}

// Redeem returns principal to caller, forfeiting unclaimed interest.
func (n *Node) Redeem(caller [20]byte, amount *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	err := n.staking.Redeem(caller, amount)
	n.settleEvents(err)
	n.observe("redeem", err)
	return err
}

// ClaimInterest pays the caller's accrued interest for the current cycle.
func (n *Node) ClaimInterest(caller [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	paid, err := n.staking.ClaimInterest(caller)
	n.settleEvents(err)
	n.observe("claimInterest", err)
	if err == nil && paid != nil {
		metrics.Staking().AddInterestPaid(paid)
	}
	return paid, err
}

// Sweep withdraws the vault's surplus reserve to the owner.
func (n *Node) Sweep(caller [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	swept, err := n.staking.Sweep(caller)
	n.settleEvents(err)
	n.observe("sweep", err)
	return swept, err
}

// TransferOwnership replaces the vault administrator.
func (n *Node) TransferOwnership(caller, newOwner [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	err := n.staking.TransferOwnership(caller, newOwner)
	n.settleEvents(err)
	n.observe("transferOwnership", err)
	return err
}

// AccruedInterest reports the interest currently due to an account.
func (n *Node) AccruedInterest(account [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.staking.AccruedInterest(account)
}

// StakePosition returns the account's staking record.
func (n *Node) StakePosition(account [20]byte) (*staking.Position, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.staking.Position(account)
}

// TotalStaked returns the aggregate staked principal.
func (n *Node) TotalStaked() (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.staking.TotalStaked()
}

// StakeOwner returns the current vault administrator.
func (n *Node) StakeOwner() ([20]byte, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.staking.Owner()
}

// Vault returns the custody address on the token ledger.
func (n *Node) Vault() [20]byte { return n.vault }

// --- Token ledger surface ---

// tokenOp wraps a token engine mutation with commit-or-discard semantics.
// Staking operations carry their own commit inside the engine guard; direct
// token mutations commit here. Queued events follow the same fate as the
// state writes.
func (n *Node) tokenOp(fn func() error) error {
	err := fn()
	if err != nil {
		n.state.Discard()
	} else {
		err = n.state.Commit()
	}
	n.settleEvents(err)
	return err
}

// TokenBalanceOf returns the ledger balance of an account.
func (n *Node) TokenBalanceOf(account [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.token.BalanceOf(account)
}

// TokenAllowance returns the remaining vault allowance granted by owner to
// spender.
func (n *Node) TokenAllowance(owner, spender [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.token.Allowance(owner, spender)
}

// TokenApprove grants spender an allowance out of caller's balance.
func (n *Node) TokenApprove(caller, spender [20]byte, amount *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.tokenOp(func() error { return n.token.Approve(caller, spender, amount) })
}

// TokenTransfer moves tokens between accounts.
func (n *Node) TokenTransfer(caller, to [20]byte, amount *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.tokenOp(func() error { return n.token.Transfer(caller, to, amount) })
}

// TokenMint issues supply to an account. Used at genesis and for funding the
// vault's interest reserve.
func (n *Node) TokenMint(to [20]byte, amount *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.tokenOp(func() error { return n.token.Mint(to, amount) })
}
