package staking

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"stakevault/core/events"
)

type snapshot struct {
	positions map[[20]byte]*Position
	owner     [20]byte
	total     *big.Int
}

func newSnapshot() snapshot {
	return snapshot{
		positions: make(map[[20]byte]*Position),
		total:     big.NewInt(0),
	}
}

func (s snapshot) clone() snapshot {
	out := newSnapshot()
	for addr, pos := range s.positions {
		out.positions[addr] = pos.Clone()
	}
	out.owner = s.owner
	out.total = new(big.Int).Set(s.total)
	return out
}

// mockState mirrors the buffered-commit behaviour of the real state manager:
// writes land in a pending layer that Commit promotes and Discard drops.
type mockState struct {
	base    snapshot
	pending snapshot
}

func newMockState() *mockState {
	return &mockState{base: newSnapshot(), pending: newSnapshot()}
}

func (m *mockState) StakeGet(addr [20]byte) (*Position, error) {
	if pos, ok := m.pending.positions[addr]; ok {
		return pos.Clone(), nil
	}
	return NewPosition(), nil
}

func (m *mockState) StakePut(addr [20]byte, p *Position) error {
	m.pending.positions[addr] = p.Clone()
	return nil
}

func (m *mockState) StakeOwner() ([20]byte, error) { return m.pending.owner, nil }

func (m *mockState) SetStakeOwner(owner [20]byte) error {
	m.pending.owner = owner
	return nil
}

func (m *mockState) StakeTotal() (*big.Int, error) {
	return new(big.Int).Set(m.pending.total), nil
}

func (m *mockState) SetStakeTotal(total *big.Int) error {
	m.pending.total = new(big.Int).Set(total)
	return nil
}

func (m *mockState) Commit() error {
	m.base = m.pending.clone()
	return nil
}

func (m *mockState) Discard() {
	m.pending = m.base.clone()
}

// committed returns the durable record for an account, bypassing the pending
// layer, so tests can assert that failed operations left nothing behind.
func (m *mockState) committed(addr [20]byte) *Position {
	if pos, ok := m.base.positions[addr]; ok {
		return pos.Clone()
	}
	return NewPosition()
}

type transferCall struct {
	kind   string
	from   [20]byte
	to     [20]byte
	amount *big.Int
}

// mockLedger is a recording token ledger with injectable failures and an
// optional callback fired during Transfer, used to simulate a malicious
// reentrant token.
type mockLedger struct {
	vault    [20]byte
	balances map[[20]byte]*big.Int
	calls    []transferCall

	failTransfer     bool
	failTransferFrom bool
	onTransfer       func()
}

func newMockLedger(vault [20]byte) *mockLedger {
	return &mockLedger{vault: vault, balances: make(map[[20]byte]*big.Int)}
}

func (l *mockLedger) balance(addr [20]byte) *big.Int {
	if b, ok := l.balances[addr]; ok {
		return b
	}
	b := big.NewInt(0)
	l.balances[addr] = b
	return b
}

func (l *mockLedger) setBalance(addr [20]byte, amount int64) {
	l.balances[addr] = big.NewInt(amount)
}

func (l *mockLedger) Transfer(to [20]byte, amount *big.Int) error {
	if l.onTransfer != nil {
		l.onTransfer()
	}
	if l.failTransfer {
		return fmt.Errorf("ledger unavailable")
	}
	if l.balance(l.vault).Cmp(amount) < 0 {
		return fmt.Errorf("insufficient vault balance")
	}
	l.balance(l.vault).Sub(l.balance(l.vault), amount)
	l.balance(to).Add(l.balance(to), amount)
	l.calls = append(l.calls, transferCall{kind: "transfer", from: l.vault, to: to, amount: new(big.Int).Set(amount)})
	return nil
}

func (l *mockLedger) TransferFrom(from, to [20]byte, amount *big.Int) error {
	if l.failTransferFrom {
		return fmt.Errorf("allowance exhausted")
	}
	if l.balance(from).Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance")
	}
	l.balance(from).Sub(l.balance(from), amount)
	l.balance(to).Add(l.balance(to), amount)
	l.calls = append(l.calls, transferCall{kind: "transferFrom", from: from, to: to, amount: new(big.Int).Set(amount)})
	return nil
}

func (l *mockLedger) BalanceOf(account [20]byte) (*big.Int, error) {
	return new(big.Int).Set(l.balance(account)), nil
}

type recordingEmitter struct {
	emitted []events.Event
}

func (r *recordingEmitter) Emit(evt events.Event) { r.emitted = append(r.emitted, evt) }

func (r *recordingEmitter) types() []string {
	out := make([]string, 0, len(r.emitted))
	for _, evt := range r.emitted {
		out = append(out, evt.EventType())
	}
	return out
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

type fixture struct {
	engine  *Engine
	state   *mockState
	ledger  *mockLedger
	emitter *recordingEmitter
	now     int64
	vault   [20]byte
	owner   [20]byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	vault := newTestAddress(0xAA)
	owner := newTestAddress(0x01)

	f := &fixture{
		state:   newMockState(),
		ledger:  newMockLedger(vault),
		emitter: &recordingEmitter{},
		vault:   vault,
		owner:   owner,
	}
	engine := NewEngine()
	engine.SetState(f.state)
	engine.SetToken(f.ledger)
	engine.SetVault(vault)
	engine.SetEmitter(f.emitter)
	engine.SetNowFunc(func() int64 { return f.now })
	if err := engine.Initialize(owner); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	f.engine = engine
	return f
}

func mustStake(t *testing.T, f *fixture, caller [20]byte, amount int64) {
	t.Helper()
	if err := f.engine.Stake(caller, big.NewInt(amount)); err != nil {
		t.Fatalf("stake %d: %v", amount, err)
	}
}

func TestStakeOpensCycle(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.now = 1_000

	mustStake(t, f, alice, 1_000)

	pos := f.state.committed(alice)
	if pos.Amount.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("unexpected staked amount: %s", pos.Amount)
	}
	if pos.StartTime != 1_000 {
		t.Fatalf("unexpected start time: %d", pos.StartTime)
	}
	if pos.InterestClaimed {
		t.Fatalf("fresh cycle must not be marked claimed")
	}
	if got := f.ledger.balance(f.vault); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("vault balance: got %s want 1000", got)
	}
	total, err := f.engine.TotalStaked()
	if err != nil {
		t.Fatalf("total staked: %v", err)
	}
	if total.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("total staked: got %s want 1000", total)
	}
	if got := f.emitter.types(); len(got) != 1 || got[0] != events.TypeStaked {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestStakeRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)

	if err := f.engine.Stake(alice, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := f.engine.Stake(alice, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil amount, got %v", err)
	}
}

func TestRestakeSettlesPriorCycle(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.ledger.setBalance(f.vault, 10_000) // interest reserve
	f.now = 0

	mustStake(t, f, alice, 1_000)
	f.ledger.calls = nil
	f.emitter.emitted = nil

	f.now = 700_000 // past the mature tier
	mustStake(t, f, alice, 500)

	// Old-cycle payouts precede the new deposit: 100 interest out, 1000
	// principal out, 500 pulled in.
	if len(f.ledger.calls) != 3 {
		t.Fatalf("expected 3 transfers, got %d", len(f.ledger.calls))
	}
	if c := f.ledger.calls[0]; c.kind != "transfer" || c.amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("first transfer should pay 100 interest, got %s %s", c.kind, c.amount)
	}
	if c := f.ledger.calls[1]; c.kind != "transfer" || c.amount.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("second transfer should return 1000 principal, got %s %s", c.kind, c.amount)
	}
	if c := f.ledger.calls[2]; c.kind != "transferFrom" || c.amount.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("third transfer should pull 500 deposit, got %s %s", c.kind, c.amount)
	}

	pos := f.state.committed(alice)
	if pos.Amount.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("unexpected staked amount: %s", pos.Amount)
	}
	if pos.StartTime != 700_000 {
		t.Fatalf("unexpected start time: %d", pos.StartTime)
	}
	if pos.InterestClaimed {
		t.Fatalf("new cycle must start unclaimed")
	}

	got := f.emitter.types()
	want := []string{events.TypeInterestClaimed, events.TypeRedeemed, events.TypeStaked}
	if len(got) != len(want) {
		t.Fatalf("unexpected events: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestRestakeWithClaimedInterestPaysPrincipalOnly(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.ledger.setBalance(f.vault, 10_000)
	f.now = 0

	mustStake(t, f, alice, 1_000)
	f.now = 700_000
	if _, err := f.engine.ClaimInterest(alice); err != nil {
		t.Fatalf("claim: %v", err)
	}
	f.ledger.calls = nil

	mustStake(t, f, alice, 200)

	if len(f.ledger.calls) != 2 {
		t.Fatalf("expected principal payout and deposit pull, got %d transfers", len(f.ledger.calls))
	}
	if c := f.ledger.calls[0]; c.amount.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected 1000 principal payout, got %s", c.amount)
	}
}

func TestRedeemForfeitsInterest(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.now = 1_000

	mustStake(t, f, alice, 1_000)
	f.now = 91_000

	if err := f.engine.Redeem(alice, big.NewInt(400)); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	pos := f.state.committed(alice)
	if pos.Amount.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("unexpected remaining stake: %s", pos.Amount)
	}
	if pos.StartTime != 1_000 {
		t.Fatalf("partial redemption must keep the cycle start time, got %d", pos.StartTime)
	}
	if !pos.InterestClaimed {
		t.Fatalf("redeeming before claiming must forfeit interest")
	}

	if _, err := f.engine.ClaimInterest(alice); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed after forfeiture, got %v", err)
	}

	// Forfeiture is permanent for the cycle even past the mature tier.
	f.now = 700_000
	if _, err := f.engine.ClaimInterest(alice); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed at any later time, got %v", err)
	}
}

func TestRedeemFullResetsRecord(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.now = 0

	mustStake(t, f, alice, 1_000)
	f.now = 90_000

	if err := f.engine.Redeem(alice, big.NewInt(1_000)); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	pos := f.state.committed(alice)
	if pos.Amount.Sign() != 0 || pos.StartTime != 0 || pos.InterestClaimed {
		t.Fatalf("full redemption must reset the record, got %+v", pos)
	}
	total, _ := f.engine.TotalStaked()
	if total.Sign() != 0 {
		t.Fatalf("total staked should be zero, got %s", total)
	}
	if got := f.ledger.balance(alice); got.Cmp(big.NewInt(5_000)) != 0 {
		t.Fatalf("alice balance: got %s want 5000", got)
	}
}

func TestRedeemInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)

	if err := f.engine.Redeem(alice, big.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance on empty account, got %v", err)
	}

	f.ledger.setBalance(alice, 5_000)
	mustStake(t, f, alice, 100)
	if err := f.engine.Redeem(alice, big.NewInt(101)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestClaimInterestPaysOncePerCycle(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.ledger.setBalance(f.vault, 10_000)
	f.now = 0

	mustStake(t, f, alice, 1_000)
	f.now = 700_000

	paid, err := f.engine.ClaimInterest(alice)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if paid.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected 100 interest, got %s", paid)
	}

	pos := f.state.committed(alice)
	if pos.Amount.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("claim must not touch principal, got %s", pos.Amount)
	}
	if !pos.InterestClaimed {
		t.Fatalf("claim must set the claimed flag")
	}

	if _, err := f.engine.ClaimInterest(alice); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestClaimInterestPreconditions(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)

	if _, err := f.engine.ClaimInterest(alice); !errors.Is(err, ErrNoActiveStake) {
		t.Fatalf("expected ErrNoActiveStake, got %v", err)
	}

	f.ledger.setBalance(alice, 5_000)
	f.now = 0
	mustStake(t, f, alice, 1_000)

	f.now = 3_600 // within the cliff
	if _, err := f.engine.ClaimInterest(alice); !errors.Is(err, ErrNoInterestDue) {
		t.Fatalf("expected ErrNoInterestDue, got %v", err)
	}
}

func TestAccruedInterestTiers(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.now = 0
	mustStake(t, f, alice, 1_000)

	cases := []struct {
		at   int64
		want int64
	}{
		{at: 3_600, want: 0},
		{at: 90_000, want: 10},
		{at: 700_000, want: 100},
	}
	for _, tc := range cases {
		f.now = tc.at
		got, err := f.engine.AccruedInterest(alice)
		if err != nil {
			t.Fatalf("accrued at %d: %v", tc.at, err)
		}
		if got.Cmp(big.NewInt(tc.want)) != 0 {
			t.Fatalf("accrued at %d: got %s want %d", tc.at, got, tc.want)
		}
	}
}

func TestAccruedInterestZeroCases(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)

	got, err := f.engine.AccruedInterest(alice)
	if err != nil {
		t.Fatalf("accrued: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("unstaked account must accrue zero, got %s", got)
	}

	f.ledger.setBalance(alice, 5_000)
	f.ledger.setBalance(f.vault, 10_000)
	f.now = 0
	mustStake(t, f, alice, 1_000)
	f.now = 700_000
	if _, err := f.engine.ClaimInterest(alice); err != nil {
		t.Fatalf("claim: %v", err)
	}

	f.now = 1_400_000
	got, err = f.engine.AccruedInterest(alice)
	if err != nil {
		t.Fatalf("accrued: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("claimed cycle must accrue zero regardless of elapsed time, got %s", got)
	}
}

func TestReentrantCallRejected(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.ledger.setBalance(f.vault, 10_000)
	f.now = 0
	mustStake(t, f, alice, 1_000)
	f.now = 700_000

	var nested error
	f.ledger.onTransfer = func() {
		// A malicious token attempts to re-enter during the payout.
		nested = f.engine.Redeem(alice, big.NewInt(1))
	}

	if _, err := f.engine.ClaimInterest(alice); err != nil {
		t.Fatalf("outer claim should succeed, got %v", err)
	}
	if !errors.Is(nested, ErrReentrantCall) {
		t.Fatalf("nested call should fail with ErrReentrantCall, got %v", nested)
	}
}

func TestTransferFailureLeavesNoPartialState(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.ledger.setBalance(f.vault, 10_000)
	f.now = 0
	mustStake(t, f, alice, 1_000)
	f.now = 700_000

	f.ledger.failTransfer = true
	if _, err := f.engine.ClaimInterest(alice); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	pos := f.state.committed(alice)
	if pos.InterestClaimed {
		t.Fatalf("failed claim must not persist the claimed flag")
	}

	// The claim is still payable once the ledger recovers.
	f.ledger.failTransfer = false
	paid, err := f.engine.ClaimInterest(alice)
	if err != nil {
		t.Fatalf("claim after recovery: %v", err)
	}
	if paid.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected 100 interest, got %s", paid)
	}
}

func TestStakeDepositFailureAborts(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.now = 0

	f.ledger.failTransferFrom = true
	if err := f.engine.Stake(alice, big.NewInt(1_000)); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	pos := f.state.committed(alice)
	if pos.Active() {
		t.Fatalf("failed deposit must not open a cycle")
	}
}

func TestSweepWithdrawsSurplusOnly(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.ledger.setBalance(f.vault, 300) // reserve before any deposits
	f.now = 0
	mustStake(t, f, alice, 1_000)

	swept, err := f.engine.Sweep(f.owner)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("expected surplus of 300, got %s", swept)
	}
	if got := f.ledger.balance(f.vault); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("staked principal must remain in custody, got %s", got)
	}
	if got := f.ledger.balance(f.owner); got.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("owner should receive the surplus, got %s", got)
	}

	// With no surplus left, sweep is a successful no-op without an event.
	f.emitter.emitted = nil
	swept, err = f.engine.Sweep(f.owner)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if swept.Sign() != 0 {
		t.Fatalf("expected zero surplus, got %s", swept)
	}
	if len(f.emitter.emitted) != 0 {
		t.Fatalf("no-op sweep must not emit events")
	}
}

func TestSweepRequiresOwner(t *testing.T) {
	f := newFixture(t)
	mallory := newTestAddress(0x66)

	if _, err := f.engine.Sweep(mallory); !errors.Is(err, ErrUnauthorizedCaller) {
		t.Fatalf("expected ErrUnauthorizedCaller, got %v", err)
	}
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t)
	next := newTestAddress(0x02)

	if err := f.engine.TransferOwnership(f.owner, next); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	owner, err := f.engine.Owner()
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner != next {
		t.Fatalf("ownership not transferred")
	}

	// The previous owner is locked out.
	if _, err := f.engine.Sweep(f.owner); !errors.Is(err, ErrUnauthorizedCaller) {
		t.Fatalf("expected ErrUnauthorizedCaller for previous owner, got %v", err)
	}
}

func TestTransferOwnershipValidation(t *testing.T) {
	f := newFixture(t)
	mallory := newTestAddress(0x66)

	if err := f.engine.TransferOwnership(mallory, mallory); !errors.Is(err, ErrUnauthorizedCaller) {
		t.Fatalf("expected ErrUnauthorizedCaller, got %v", err)
	}
	if err := f.engine.TransferOwnership(f.owner, [20]byte{}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestInitializeRejectsNullOwner(t *testing.T) {
	engine := NewEngine()
	engine.SetState(newMockState())
	if err := engine.Initialize([20]byte{}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestNoDoubleInterestAcrossCallSequences(t *testing.T) {
	f := newFixture(t)
	alice := newTestAddress(0x10)
	f.ledger.setBalance(alice, 5_000)
	f.ledger.setBalance(f.vault, 10_000)
	f.now = 0
	mustStake(t, f, alice, 1_000)
	f.now = 700_000

	if _, err := f.engine.ClaimInterest(alice); err != nil {
		t.Fatalf("claim: %v", err)
	}

	// No sequence of later calls within the same cycle pays interest again.
	if _, err := f.engine.ClaimInterest(alice); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
	if err := f.engine.Redeem(alice, big.NewInt(250)); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if _, err := f.engine.ClaimInterest(alice); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed after redeem, got %v", err)
	}

	interestPayouts := 0
	for _, c := range f.ledger.calls {
		if c.kind == "transfer" && c.amount.Cmp(big.NewInt(100)) == 0 && c.to == alice {
			interestPayouts++
		}
	}
	if interestPayouts != 1 {
		t.Fatalf("expected exactly one interest payout, got %d", interestPayouts)
	}
}
