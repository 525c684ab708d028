package staking

import (
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"stakevault/core/events"
)

// engineState is the narrow view of vault state the engine mutates. Writes are
// buffered by the backend until Commit, so a failed operation discards every
// pending mutation and the ledger observes all-or-nothing semantics.
type engineState interface {
	StakeGet(addr [20]byte) (*Position, error)
	StakePut(addr [20]byte, p *Position) error
	StakeOwner() ([20]byte, error)
	SetStakeOwner(owner [20]byte) error
	StakeTotal() (*big.Int, error)
	SetStakeTotal(total *big.Int) error
	Commit() error
	Discard()
}

// TokenLedger is the external token ledger the vault settles against. All
// three calls are fallible; any failure aborts the surrounding operation with
// ErrTransferFailed. Transfer pays out of the vault's custody, TransferFrom
// pulls a deposit from an account into custody.
type TokenLedger interface {
	Transfer(to [20]byte, amount *big.Int) error
	TransferFrom(from, to [20]byte, amount *big.Int) error
	BalanceOf(account [20]byte) (*big.Int, error)
}

// Engine implements the staking vault: tiered time-based interest, atomic
// re-staking, redemption with interest forfeiture, and owner-gated
// administration. External transfers are wrapped by a single reentrancy lock.
type Engine struct {
	state   engineState
	token   TokenLedger
	vault   [20]byte
	emitter events.Emitter
	nowFn   func() int64

	locked  atomic.Bool
	pending []events.Event
}

// NewEngine creates a staking engine with a no-op emitter. Callers must wire
// SetState, SetToken and SetVault before invoking operations.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetToken configures the external token ledger.
func (e *Engine) SetToken(token TokenLedger) { e.token = token }

// SetVault configures the custody address holding staked principal and the
// interest reserve.
func (e *Engine) SetVault(vault [20]byte) { e.vault = vault }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Initialize establishes the vault owner when none is set. It is a genesis
// operation: once an owner exists only TransferOwnership may change it.
func (e *Engine) Initialize(owner [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if owner == ([20]byte{}) {
		return ErrInvalidAddress
	}
	current, err := e.state.StakeOwner()
	if err != nil {
		return err
	}
	if current != ([20]byte{}) {
		return nil
	}
	if err := e.state.SetStakeOwner(owner); err != nil {
		return err
	}
	return e.state.Commit()
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// emit queues an event for delivery after the operation commits.
func (e *Engine) emit(evt events.Event) {
	if evt == nil {
		return
	}
	e.pending = append(e.pending, evt)
}

// run wraps a guarded operation body. The lock is released on every exit
// path; a failing body discards all buffered state writes, a succeeding body
// commits them and only then flushes queued events.
func (e *Engine) run(fn func() error) error {
	if e == nil || e.state == nil || e.token == nil {
		return ErrNilState
	}
	if !e.locked.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	defer e.locked.Store(false)
	e.pending = e.pending[:0]
	if err := fn(); err != nil {
		e.pending = e.pending[:0]
		e.state.Discard()
		return err
	}
	if err := e.state.Commit(); err != nil {
		e.pending = e.pending[:0]
		return err
	}
	if e.emitter != nil {
		for _, evt := range e.pending {
			e.emitter.Emit(evt)
		}
	}
	e.pending = e.pending[:0]
	return nil
}

func (e *Engine) elapsed(startTime uint64) uint64 {
	now := e.now()
	if now <= 0 || uint64(now) <= startTime {
		return 0
	}
	return uint64(now) - startTime
}

func (e *Engine) requireOwner(caller [20]byte) error {
	owner, err := e.state.StakeOwner()
	if err != nil {
		return err
	}
	if owner == ([20]byte{}) || caller != owner {
		return ErrUnauthorizedCaller
	}
	return nil
}

// payOut transfers amount from vault custody to an account, wrapping any
// ledger failure into ErrTransferFailed.
func (e *Engine) payOut(to [20]byte, amount *big.Int) error {
	if err := e.token.Transfer(to, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

// settle closes the caller's current cycle: unclaimed interest is paid first,
// then the full principal, and the record is reset. Invoked by Stake when a
// cycle is already open; payouts for the old cycle precede the new deposit.
func (e *Engine) settle(caller [20]byte, pos *Position, total *big.Int) error {
	if !pos.InterestClaimed {
		interest := Accrued(pos.Amount, e.elapsed(pos.StartTime))
		if interest.Sign() > 0 {
			if err := e.payOut(caller, interest); err != nil {
				return err
			}
			e.emit(events.InterestClaimed{Account: caller, Interest: interest})
		}
	}
	if err := e.payOut(caller, pos.Amount); err != nil {
		return err
	}
	e.emit(events.Redeemed{Account: caller, Amount: pos.Amount, Remaining: big.NewInt(0)})
	total.Sub(total, pos.Amount)
	return e.state.StakePut(caller, NewPosition())
}

// Stake opens a new cycle for caller with amount tokens. An already open
// cycle is settled first: unclaimed interest and the full prior principal are
// paid back before the new deposit is pulled in.
func (e *Engine) Stake(caller [20]byte, amount *big.Int) error {
	return e.run(func() error {
		if amount == nil || amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		pos, err := e.state.StakeGet(caller)
		if err != nil {
			return err
		}
		total, err := e.state.StakeTotal()
		if err != nil {
			return err
		}
		if pos.Active() {
			if err := e.settle(caller, pos, total); err != nil {
				return err
			}
		}
		if err := e.token.TransferFrom(caller, e.vault, amount); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		now := e.now()
		next := &Position{
			Amount:    new(big.Int).Set(amount),
			StartTime: uint64(now),
		}
		if err := e.state.StakePut(caller, next); err != nil {
			return err
		}
		if err := e.state.SetStakeTotal(total.Add(total, amount)); err != nil {
			return err
		}
		e.emit(events.Staked{Account: caller, Amount: new(big.Int).Set(amount), StartTime: next.StartTime})
		return nil
	})
}

// Redeem returns amount of staked principal to caller. Redeeming before a
// claim forfeits the cycle's interest permanently: the claimed flag is set
// even though no interest is paid here. A full redemption resets the record.
func (e *Engine) Redeem(caller [20]byte, amount *big.Int) error {
	return e.run(func() error {
		if amount == nil || amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
		pos, err := e.state.StakeGet(caller)
		if err != nil {
			return err
		}
		if pos.Amount.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		remaining := new(big.Int).Sub(pos.Amount, amount)
		next := &Position{
			Amount:          remaining,
			StartTime:       pos.StartTime,
			InterestClaimed: true,
		}
		if remaining.Sign() == 0 {
			next = NewPosition()
		}
		if err := e.state.StakePut(caller, next); err != nil {
			return err
		}
		total, err := e.state.StakeTotal()
		if err != nil {
			return err
		}
		if err := e.state.SetStakeTotal(total.Sub(total, amount)); err != nil {
			return err
		}
		if err := e.payOut(caller, amount); err != nil {
			return err
		}
		e.emit(events.Redeemed{Account: caller, Amount: new(big.Int).Set(amount), Remaining: remaining})
		return nil
	})
}

// ClaimInterest pays the caller's accrued interest for the current cycle.
// Principal and start time are untouched; a cycle's interest is payable at
// most once.
func (e *Engine) ClaimInterest(caller [20]byte) (*big.Int, error) {
	var paid *big.Int
	err := e.run(func() error {
		pos, err := e.state.StakeGet(caller)
		if err != nil {
			return err
		}
		if !pos.Active() {
			return ErrNoActiveStake
		}
		if pos.InterestClaimed {
			return ErrAlreadyClaimed
		}
		interest := Accrued(pos.Amount, e.elapsed(pos.StartTime))
		if interest.Sign() == 0 {
			return ErrNoInterestDue
		}
		pos.InterestClaimed = true
		if err := e.state.StakePut(caller, pos); err != nil {
			return err
		}
		if err := e.payOut(caller, interest); err != nil {
			return err
		}
		e.emit(events.InterestClaimed{Account: caller, Interest: interest})
		paid = interest
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// Sweep withdraws the vault's surplus reserve to the owner: the portion of
// the custody balance exceeding the aggregate staked principal. Staked
// principal is never touched. A zero surplus is a successful no-op.
func (e *Engine) Sweep(caller [20]byte) (*big.Int, error) {
	swept := big.NewInt(0)
	err := e.run(func() error {
		if err := e.requireOwner(caller); err != nil {
			return err
		}
		balance, err := e.token.BalanceOf(e.vault)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
		total, err := e.state.StakeTotal()
		if err != nil {
			return err
		}
		surplus := new(big.Int).Sub(balance, total)
		if surplus.Sign() <= 0 {
			return nil
		}
		if err := e.payOut(caller, surplus); err != nil {
			return err
		}
		e.emit(events.Swept{Owner: caller, Amount: surplus})
		swept = surplus
		return nil
	})
	if err != nil {
		return nil, err
	}
	return swept, nil
}

// TransferOwnership replaces the vault administrator.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	return e.run(func() error {
		if err := e.requireOwner(caller); err != nil {
			return err
		}
		if newOwner == ([20]byte{}) {
			return ErrInvalidAddress
		}
		if err := e.state.SetStakeOwner(newOwner); err != nil {
			return err
		}
		e.emit(events.OwnershipTransferred{PreviousOwner: caller, NewOwner: newOwner})
		return nil
	})
}

// AccruedInterest reports the interest currently due to an account. It is a
// pure query: zero when no cycle is open or the cycle's interest was already
// claimed or forfeited.
func (e *Engine) AccruedInterest(account [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pos, err := e.state.StakeGet(account)
	if err != nil {
		return nil, err
	}
	if !pos.Active() || pos.InterestClaimed {
		return big.NewInt(0), nil
	}
	return Accrued(pos.Amount, e.elapsed(pos.StartTime)), nil
}

// Position returns a copy of the account's staking record.
func (e *Engine) Position(account [20]byte) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	pos, err := e.state.StakeGet(account)
	if err != nil {
		return nil, err
	}
	return pos.Clone(), nil
}

// Owner returns the current vault administrator.
func (e *Engine) Owner() ([20]byte, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, ErrNilState
	}
	return e.state.StakeOwner()
}

// Vault returns the custody address on the external token ledger.
func (e *Engine) Vault() [20]byte {
	return e.vault
}

// TotalStaked returns the aggregate principal across all open cycles.
func (e *Engine) TotalStaked() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.StakeTotal()
}
