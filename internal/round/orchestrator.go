package round

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"cups_webapp/internal/logger"
	"cups_webapp/internal/metrics"
	"cups_webapp/internal/rgs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrRoundInFlight = errors.New("a round is already in flight")

// State of the orchestrator within one round
type State string

const (
	StateIdle         State = "idle"
	StateRequesting   State = "requesting"
	StateAwaitingPick State = "awaiting_pick"
	StateRevealing    State = "revealing"
	StateFinalizing   State = "finalizing"
)

// Observer is told about state transitions and confirmed balance updates
type Observer interface {
	RoundState(roundID string, state State)
	BalanceUpdated(balance decimal.Decimal, resp *rgs.EndRoundResponse)
}

type nopObserver struct{}

func (nopObserver) RoundState(string, State) {}
func (nopObserver) BalanceUpdated(decimal.Decimal, *rgs.EndRoundResponse) {}

// Request configures one round
type Request struct {
	Bet decimal.Decimal
	// AutoPick picks a random cup as soon as cups are enabled
	AutoPick bool
	// Shuffle plays the cosmetic shuffle before enabling cups
	Shuffle bool
	// ForceEndRound skips the reveal and finalizes right after the pick
	ForceEndRound bool
}

// Outcome of a completed round
type Outcome struct {
	RoundID          string          `json:"round_id"`
	Bet              decimal.Decimal `json:"bet"`
	Chosen           int             `json:"chosen"`
	Revealed         int             `json:"revealed"`
	Win              bool            `json:"win"`
	Forced           bool            `json:"forced"`
	Finalized        bool            `json:"finalized"`
	PayoutMultiplier float64         `json:"payout_multiplier"`
	Balance          decimal.Decimal `json:"balance"`
	Phase            Phase           `json:"phase"`
}

// Result names the outcome for history and metrics
func (o *Outcome) Result() string {
	switch {
	case o.Forced:
		return "recovered"
	case o.Win:
		return "win"
	default:
		return "loss"
	}
}

// Orchestrator runs rounds for one session, one at a time
type Orchestrator struct {
	store     *Store
	presenter Presenter
	observer  Observer
	clock     Clock
	rng       *rand.Rand
	timings   Timings
	bets      *BetTable
	gate      *PickGate

	inFlight atomic.Bool
	mu       sync.RWMutex
	state    State
	roundID  string
}

type OrchestratorOption func(*Orchestrator)

func WithObserver(obs Observer) OrchestratorOption {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithClock(c Clock) OrchestratorOption {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

func WithRand(rng *rand.Rand) OrchestratorOption {
	return func(o *Orchestrator) {
		if rng != nil {
			o.rng = rng
		}
	}
}

func WithTimings(t Timings) OrchestratorOption {
	return func(o *Orchestrator) {
		o.timings = t
	}
}

func WithBetTable(t *BetTable) OrchestratorOption {
	return func(o *Orchestrator) {
		if t != nil {
			o.bets = t
		}
	}
}

func NewOrchestrator(store *Store, presenter Presenter, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		presenter: presenter,
		observer:  nopObserver{},
		clock:     SystemClock,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		timings:   DefaultTimings(),
		bets:      DefaultBetTable(),
		gate:      NewPickGate(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Store() *Store {
	return o.store
}

func (o *Orchestrator) Bets() *BetTable {
	return o.bets
}

// State returns the current state and round id (empty when idle)
func (o *Orchestrator) State() (State, string) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state, o.roundID
}

// InFlight reports whether a round is running
func (o *Orchestrator) InFlight() bool {
	return o.inFlight.Load()
}

// Pick offers a cup to the round awaiting a pick. Only the first pick of a
// round is honored.
func (o *Orchestrator) Pick(cup int) error {
	return o.gate.Pick(cup)
}

func (o *Orchestrator) setState(ctx context.Context, s State) {
	o.mu.Lock()
	o.state = s
	id := o.roundID
	if s == StateIdle {
		o.roundID = ""
	}
	o.mu.Unlock()

	logger.WithContext(ctx).Debug("round state", "state", s)
	o.observer.RoundState(id, s)
}

// Play runs one full round: play request, pick, reveal, and finalize when
// the round won or the server reported an open bet. It blocks until the
// round is over.
func (o *Orchestrator) Play(ctx context.Context, req Request) (*Outcome, error) {
	if !o.bets.Contains(req.Bet) {
		return nil, fmt.Errorf("%w: %s", ErrBetNotAllowed, req.Bet)
	}
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, ErrRoundInFlight
	}
	defer o.inFlight.Store(false)

	roundID := uuid.NewString()
	log := logger.WithContext(ctx).With("round_id", roundID)
	ctx = logger.IntoContext(ctx, log)

	o.mu.Lock()
	o.roundID = roundID
	o.mu.Unlock()
	defer o.setState(ctx, StateIdle)

	out := &Outcome{
		RoundID:  roundID,
		Bet:      req.Bet,
		Chosen:   -1,
		Revealed: -1,
		Forced:   req.ForceEndRound,
	}

	o.setState(ctx, StateRequesting)
	play, err := o.store.ExecuteGameRound(ctx, req.Bet)
	if err != nil {
		o.store.RollbackDebit()
		if !rgs.IsActiveBetError(err) {
			metrics.Rounds.WithLabelValues("failed").Inc()
			return nil, err
		}
		log.Warn("active bet open on server, finalizing after pick")
		metrics.ActiveBetRecoveries.Inc()
		out.Forced = true
	}
	if play != nil {
		out.PayoutMultiplier = play.Round.PayoutMultiplier
		out.Win = play.Round.IsWin()
	}

	if req.Shuffle && !out.Forced {
		if err := Shuffle(o.presenter, o.clock, o.rng, o.timings.PeekDwell).Run(ctx); err != nil {
			return nil, err
		}
	}

	chosen, err := o.awaitPick(ctx, req.AutoPick)
	if err != nil {
		return nil, err
	}
	out.Chosen = chosen
	log.Info("cup picked", "cup", chosen, "forced", out.Forced)

	if err := o.resolve(ctx, out); err != nil {
		metrics.Rounds.WithLabelValues("failed").Inc()
		return nil, err
	}

	o.presenter.Layout()
	out.Balance = o.store.Balance()
	out.Phase = o.store.Phase()
	metrics.Rounds.WithLabelValues(out.Result()).Inc()
	log.Info("round complete", "result", out.Result(), "balance", out.Balance.String(), "phase", out.Phase)
	return out, nil
}

func (o *Orchestrator) awaitPick(ctx context.Context, auto bool) (int, error) {
	n := o.presenter.CupCount()
	o.gate.Open(n)
	o.presenter.SetCupsInteractive(true)
	o.setState(ctx, StateAwaitingPick)

	if auto {
		_ = o.gate.Pick(o.rng.Intn(n))
	}

	chosen, err := o.gate.Wait(ctx)
	o.gate.Close()
	o.presenter.SetCupsInteractive(false)
	return chosen, err
}

// resolve plays the branch for the round's result
func (o *Orchestrator) resolve(ctx context.Context, out *Outcome) error {
	if out.Forced {
		return o.finalize(ctx, out)
	}

	o.setState(ctx, StateRevealing)
	if out.Win {
		out.Revealed = out.Chosen
		if err := Reveal(o.presenter, o.clock, out.Chosen, o.timings.WinDwell, true).Run(ctx); err != nil {
			return err
		}
		return o.finalize(ctx, out)
	}

	// The server only expects end-round after a win. The open bet of a loss
	// is closed through the active bet recovery of the next play call.
	out.Revealed = otherCup(o.rng, o.presenter.CupCount(), out.Chosen)
	seq := Reveal(o.presenter, o.clock, out.Chosen, o.timings.LossDwell, false)
	seq = append(seq, Reveal(o.presenter, o.clock, out.Revealed, o.timings.MarkerDwell, true)...)
	return seq.Run(ctx)
}

func (o *Orchestrator) finalize(ctx context.Context, out *Outcome) error {
	o.setState(ctx, StateFinalizing)
	resp, err := o.store.FinalizeRound(ctx)
	if err != nil {
		return err
	}
	out.Finalized = true
	o.observer.BalanceUpdated(o.store.Balance(), resp)
	return nil
}
