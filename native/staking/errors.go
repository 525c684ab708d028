package staking

import "errors"

var (
	// ErrNilState is returned when the engine is used before its state
	// backend or token ledger is configured.
	ErrNilState = errors.New("staking: state not configured")
	// ErrInvalidAmount rejects stake or redeem calls with a non-positive amount.
	ErrInvalidAmount = errors.New("staking: amount must be positive")
	// ErrInsufficientBalance rejects redemptions exceeding the active stake.
	ErrInsufficientBalance = errors.New("staking: insufficient staked balance")
	// ErrUnauthorizedCaller rejects owner-gated operations from non-owners.
	ErrUnauthorizedCaller = errors.New("staking: unauthorized caller")
	// ErrInvalidAddress rejects the null identity where a real one is required.
	ErrInvalidAddress = errors.New("staking: invalid address")
	// ErrReentrantCall rejects a guarded operation invoked while another
	// guarded operation holds the lock.
	ErrReentrantCall = errors.New("staking: reentrant call")
	// ErrAlreadyClaimed rejects a second interest claim within one cycle.
	ErrAlreadyClaimed = errors.New("staking: interest already claimed")
	// ErrNoActiveStake rejects claims from accounts with no open cycle.
	ErrNoActiveStake = errors.New("staking: no active stake")
	// ErrNoInterestDue rejects claims before any interest has accrued.
	ErrNoInterestDue = errors.New("staking: no interest due")
	// ErrTransferFailed wraps any failure reported by the external token
	// ledger; the surrounding operation aborts without state mutation.
	ErrTransferFailed = errors.New("staking: token transfer failed")
)
