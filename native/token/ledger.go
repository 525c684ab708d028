package token

import (
	"math/big"

	"stakevault/core/events"
)

type engineState interface {
	TokenBalance(addr [20]byte) (*big.Int, error)
	SetTokenBalance(addr [20]byte, amount *big.Int) error
	TokenAllowance(owner, spender [20]byte) (*big.Int, error)
	SetTokenAllowance(owner, spender [20]byte, amount *big.Int) error
	TokenSupply() (*big.Int, error)
	SetTokenSupply(supply *big.Int) error
}

// Engine implements the vault's token ledger: plain balances, allowances and
// a mint authority. The staking engine only ever sees the narrow VaultLedger
// view; everything else is exposed for RPC and genesis funding.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine creates a token engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// BalanceOf returns the ledger balance of an account.
func (e *Engine) BalanceOf(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.TokenBalance(addr)
}

// Allowance returns the remaining amount spender may move out of owner's
// balance.
func (e *Engine) Allowance(owner, spender [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.TokenAllowance(owner, spender)
}

// Approve grants spender the right to move up to amount out of owner's
// balance. A zero amount revokes the grant.
func (e *Engine) Approve(owner, spender [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	if err := e.state.SetTokenAllowance(owner, spender, amt); err != nil {
		return err
	}
	e.emit(events.TokenApproved{Owner: owner, Spender: spender, Amount: amt})
	return nil
}

// Transfer moves amount from one account to another.
func (e *Engine) Transfer(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return e.move(from, to, amt)
}

// TransferFrom moves amount from one account to another on behalf of spender,
// consuming spender's allowance.
func (e *Engine) TransferFrom(spender, from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	allowance, err := e.state.TokenAllowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amt) < 0 {
		return ErrInsufficientAllowance
	}
	if err := e.move(from, to, amt); err != nil {
		return err
	}
	return e.state.SetTokenAllowance(from, spender, new(big.Int).Sub(allowance, amt))
}

// Mint issues new supply to an account. Used for genesis allocations and for
// funding the vault's interest reserve.
func (e *Engine) Mint(to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := e.state.TokenBalance(to)
	if err != nil {
		return err
	}
	supply, err := e.state.TokenSupply()
	if err != nil {
		return err
	}
	if err := e.state.SetTokenBalance(to, new(big.Int).Add(balance, amt)); err != nil {
		return err
	}
	if err := e.state.SetTokenSupply(new(big.Int).Add(supply, amt)); err != nil {
		return err
	}
	e.emit(events.TokenMinted{To: to, Amount: amt})
	return nil
}

// move debits from and credits to. The balance check runs before any write so
// a failed transfer leaves both accounts untouched.
func (e *Engine) move(from, to [20]byte, amt *big.Int) error {
	fromBalance, err := e.state.TokenBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := e.state.TokenBalance(to)
	if err != nil {
		return err
	}
	if from == to {
		e.emit(events.TokenTransferred{From: from, To: to, Amount: amt})
		return nil
	}
	if err := e.state.SetTokenBalance(from, new(big.Int).Sub(fromBalance, amt)); err != nil {
		return err
	}
	if err := e.state.SetTokenBalance(to, new(big.Int).Add(toBalance, amt)); err != nil {
		return err
	}
	e.emit(events.TokenTransferred{From: from, To: to, Amount: amt})
	return nil
}
