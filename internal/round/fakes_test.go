package round

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cups_webapp/internal/rgs"

	"github.com/shopspring/decimal"
)

func amount(v int64) *int64 {
	return &v
}

func activeBetErr() error {
	return &rgs.Error{Kind: rgs.KindActiveBet, Op: "play", Status: 400, Code: rgs.CodeValidation, Message: "player has active bet"}
}

type playResult struct {
	resp *rgs.PlayResponse
	err  error
}

// fakeWallet serves queued play results; the last one repeats once the queue is drained.
type fakeWallet struct {
	mu        sync.Mutex
	auth      *rgs.AuthenticateResponse
	authErr   error
	plays     []playResult
	endResp   *rgs.EndRoundResponse
	endErr    error
	playBets  []decimal.Decimal
	endCalls  int
	playCalls int
}

func (w *fakeWallet) Authenticate(context.Context) (*rgs.AuthenticateResponse, error) {
	return w.auth, w.authErr
}

func (w *fakeWallet) Play(_ context.Context, bet decimal.Decimal) (*rgs.PlayResponse, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.playCalls++
	w.playBets = append(w.playBets, bet)
	if len(w.plays) == 0 {
		return nil, fmt.Errorf("no play result queued")
	}
	next := w.plays[0]
	if len(w.plays) > 1 {
		w.plays = w.plays[1:]
	}
	return next.resp, next.err
}

func (w *fakeWallet) EndRound(context.Context) (*rgs.EndRoundResponse, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.endCalls++
	return w.endResp, w.endErr
}

func (w *fakeWallet) ends() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.endCalls
}

func winPlay(multiplier float64) playResult {
	return playResult{resp: &rgs.PlayResponse{
		Balance: rgs.Balance{Amount: amount(999_000_000)},
		Round:   rgs.Round{PayoutMultiplier: multiplier},
	}}
}

func lossPlay() playResult {
	return playResult{resp: &rgs.PlayResponse{Round: rgs.Round{PayoutMultiplier: 0}}}
}

// recPresenter records every call as a short op string
type recPresenter struct {
	mu  sync.Mutex
	ops []string
}

func (p *recPresenter) record(op string) {
	p.mu.Lock()
	p.ops = append(p.ops, op)
	p.mu.Unlock()
}

func (p *recPresenter) Ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.ops))
	copy(out, p.ops)
	return out
}

func (p *recPresenter) CupCount() int { return CupCount }

func (p *recPresenter) SetCupsInteractive(enabled bool) {
	p.record(fmt.Sprintf("interactive:%t", enabled))
}

func (p *recPresenter) Lift(_ context.Context, cup int) error {
	p.record(fmt.Sprintf("lift:%d", cup))
	return nil
}

func (p *recPresenter) Lower(_ context.Context, cup int) error {
	p.record(fmt.Sprintf("lower:%d", cup))
	return nil
}

func (p *recPresenter) Swap(_ context.Context, a, b int) error {
	p.record(fmt.Sprintf("swap:%d:%d", a, b))
	return nil
}

func (p *recPresenter) ShowMarker(cup int) { p.record(fmt.Sprintf("show:%d", cup)) }
func (p *recPresenter) HideMarker() { p.record("hide") }
func (p *recPresenter) Layout() { p.record("layout") }

// instantClock records dwell periods without sleeping
type instantClock struct {
	mu     sync.Mutex
	dwells []time.Duration
}

func (c *instantClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.dwells = append(c.dwells, d)
	c.mu.Unlock()
	return ctx.Err()
}

func (c *instantClock) Dwells() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.dwells))
	copy(out, c.dwells)
	return out
}

// pickingObserver picks cup as soon as the round awaits a pick and records states
type pickingObserver struct {
	mu       sync.Mutex
	orch     *Orchestrator
	cups     []int
	states   []State
	balances []decimal.Decimal
	pickErrs []error
}

func (ob *pickingObserver) RoundState(_ string, s State) {
	ob.mu.Lock()
	ob.states = append(ob.states, s)
	cups := ob.cups
	orch := ob.orch
	ob.mu.Unlock()

	if s != StateAwaitingPick || orch == nil {
		return
	}
	for _, cup := range cups {
		err := orch.Pick(cup)
		ob.mu.Lock()
		ob.pickErrs = append(ob.pickErrs, err)
		ob.mu.Unlock()
	}
}

func (ob *pickingObserver) BalanceUpdated(b decimal.Decimal, _ *rgs.EndRoundResponse) {
	ob.mu.Lock()
	ob.balances = append(ob.balances, b)
	ob.mu.Unlock()
}

func (ob *pickingObserver) States() []State {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	out := make([]State, len(ob.states))
	copy(out, ob.states)
	return out
}
