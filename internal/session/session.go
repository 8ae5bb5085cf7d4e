package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"cups_webapp/internal/autoplay"
	"cups_webapp/internal/domain"
	"cups_webapp/internal/logger"
	"cups_webapp/internal/rgs"
	"cups_webapp/internal/round"
	"cups_webapp/internal/ws"

	"github.com/shopspring/decimal"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrAutoPlayRunning = errors.New("auto-play is running")
	ErrSessionClosed   = errors.New("session closed")
)

// Recorder persists finished rounds
type Recorder interface {
	Record(ctx context.Context, rec *domain.RoundRecord) error
}

const recordTimeout = 5 * time.Second

// Session is one player's game: a store and orchestrator bound to one RGS
// session, an auto-play loop and the renderers attached to it. Manual rounds
// and auto-play runs share one guard so only one of them is active.
type Session struct {
	Key       string
	Launch    rgs.LaunchConfig
	CreatedAt time.Time

	store    *round.Store
	orch     *round.Orchestrator
	auto     *autoplay.Loop
	renderer *ws.Renderer
	recorder Recorder
	shuffle  bool

	busy     atomic.Bool
	lastSeen atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	waiting chan string
}

// View is what the UI needs to draw the session
type View struct {
	Key        string          `json:"session"`
	Balance    decimal.Decimal `json:"balance"`
	Phase      round.Phase     `json:"phase"`
	LastWin    float64         `json:"last_win"`
	RoundState string          `json:"round_state,omitempty"`
	State      round.State     `json:"state"`
	RoundID    string          `json:"round_id,omitempty"`
	Currency   string          `json:"currency,omitempty"`
	AutoPlay   AutoPlayView    `json:"autoplay"`
	Bets       BetsView        `json:"bets"`
}

type AutoPlayView struct {
	Running   bool `json:"running"`
	Remaining int  `json:"remaining"`
}

type BetsView struct {
	Default decimal.Decimal   `json:"default"`
	Steps   []decimal.Decimal `json:"steps"`
}

// observer forwards to the renderer and wakes StartRound once the round
// awaits a pick
type observer struct {
	s *Session
	r *ws.Renderer
}

func (o observer) RoundState(roundID string, state round.State) {
	o.r.RoundState(roundID, state)
	if state == round.StateAwaitingPick {
		o.s.notifyAwaiting(roundID)
	}
}

func (o observer) BalanceUpdated(balance decimal.Decimal, resp *rgs.EndRoundResponse) {
	o.r.BalanceUpdated(balance, resp)
}

func newSession(parent context.Context, key string, launch rgs.LaunchConfig, store *round.Store, hub *ws.Hub, recorder Recorder, cfg Config) *Session {
	ctx, cancel := context.WithCancel(parent)
	ctx = logger.IntoContext(ctx, logger.Get().With("session", key))

	s := &Session{
		Key:       key,
		Launch:    launch,
		CreatedAt: time.Now(),
		store:     store,
		renderer:  ws.NewRenderer(hub, key, cfg.Clock, cfg.CupMove),
		recorder:  recorder,
		shuffle:   cfg.Shuffle,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.touch()

	s.orch = round.NewOrchestrator(store, s.renderer,
		round.WithObserver(observer{s: s, r: s.renderer}),
		round.WithClock(cfg.Clock),
		round.WithRand(cfg.rand()),
		round.WithTimings(cfg.Timings),
		round.WithBetTable(cfg.Bets),
	)
	s.auto = autoplay.New(s,
		autoplay.WithReporter(s.renderer),
		autoplay.WithClock(cfg.Clock),
		autoplay.WithDelay(cfg.AutoPlayDelay),
	)
	return s
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// Idle reports how long the session has gone without a request
func (s *Session) Idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Busy reports whether a round or auto-play run is active
func (s *Session) Busy() bool {
	return s.busy.Load()
}

func (s *Session) claim() error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	if s.busy.CompareAndSwap(false, true) {
		return nil
	}
	if s.auto.Running() {
		return ErrAutoPlayRunning
	}
	return round.ErrRoundInFlight
}

func (s *Session) notifyAwaiting(roundID string) {
	s.mu.Lock()
	ch := s.waiting
	s.waiting = nil
	s.mu.Unlock()

	if ch != nil {
		ch <- roundID
	}
}

// StartRound starts a manual round in the background and returns its id as
// soon as the cups accept a pick. Errors before that point are returned;
// later ones reach the renderers.
func (s *Session) StartRound(ctx context.Context, bet decimal.Decimal) (string, error) {
	s.touch()
	if !s.orch.Bets().Contains(bet) {
		return "", fmt.Errorf("%w: %s", round.ErrBetNotAllowed, bet)
	}
	if err := s.claim(); err != nil {
		return "", err
	}

	awaiting := make(chan string, 1)
	failed := make(chan error, 1)
	s.mu.Lock()
	s.waiting = awaiting
	s.mu.Unlock()

	go func() {
		defer s.busy.Store(false)
		_, err := s.playRound(s.ctx, round.Request{Bet: bet, Shuffle: s.shuffle})
		if err != nil {
			failed <- err
		}
		s.mu.Lock()
		s.waiting = nil
		s.mu.Unlock()
	}()

	select {
	case id := <-awaiting:
		return id, nil
	case err := <-failed:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// PlayRound plays one auto-picked round; the auto-play loop calls it while
// holding the session guard
func (s *Session) PlayRound(ctx context.Context, bet decimal.Decimal) (*round.Outcome, error) {
	return s.playRound(ctx, round.Request{Bet: bet, AutoPick: true, Shuffle: s.shuffle})
}

func (s *Session) playRound(ctx context.Context, req round.Request) (*round.Outcome, error) {
	out, err := s.orch.Play(ctx, req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.renderer.Error(err)
		}
		return nil, err
	}
	s.renderer.RoundDone(out)
	s.record(ctx, out)
	return out, nil
}

func (s *Session) record(ctx context.Context, out *round.Outcome) {
	if s.recorder == nil {
		return
	}

	rec := &domain.RoundRecord{
		ID:               out.RoundID,
		SessionKey:       s.Key,
		RGSSession:       s.Launch.SessionID,
		Bet:              out.Bet,
		Currency:         s.Launch.Currency,
		PayoutMultiplier: out.PayoutMultiplier,
		Result:           domain.RoundResult(out.Result()),
		BalanceAfter:     out.Balance,
		ChosenCup:        out.Chosen,
		RevealedCup:      out.Revealed,
		Details: map[string]interface{}{
			"finalized": out.Finalized,
			"phase":     out.Phase,
		},
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := s.recorder.Record(rctx, rec); err != nil {
		logger.WithContext(ctx).Error("failed to record round", "round_id", out.RoundID, "error", err)
	}
}

// Pick offers a cup to the round awaiting a pick
func (s *Session) Pick(cup int) error {
	s.touch()
	return s.orch.Pick(cup)
}

// StartAutoPlay starts a run in the background
func (s *Session) StartAutoPlay(cfg autoplay.Config) error {
	s.touch()
	if cfg.Rounds < 1 {
		return autoplay.ErrInvalidRounds
	}
	if !s.orch.Bets().Contains(cfg.Bet) {
		return fmt.Errorf("%w: %s", round.ErrBetNotAllowed, cfg.Bet)
	}
	if err := s.claim(); err != nil {
		return err
	}
	if !s.auto.TryStart() {
		s.busy.Store(false)
		return ErrAutoPlayRunning
	}

	go func() {
		defer s.busy.Store(false)
		_, _ = s.auto.RunClaimed(s.ctx, cfg)
	}()
	return nil
}

// StopAutoPlay asks a running loop to end after its current round. It
// reports whether a run was active.
func (s *Session) StopAutoPlay() bool {
	s.touch()
	running := s.auto.Running()
	s.auto.Stop()
	return running
}

func (s *Session) Snapshot() View {
	snap := s.store.Snapshot()
	state, roundID := s.orch.State()
	bets := s.orch.Bets()

	return View{
		Key:        s.Key,
		Balance:    snap.Balance,
		Phase:      snap.Phase,
		LastWin:    snap.LastWin,
		RoundState: snap.RoundState,
		State:      state,
		RoundID:    roundID,
		Currency:   s.Launch.Currency,
		AutoPlay: AutoPlayView{
			Running:   s.auto.Running(),
			Remaining: s.auto.Remaining(),
		},
		Bets: BetsView{
			Default: bets.Default(),
			Steps:   bets.Steps(),
		},
	}
}

// Close stops auto-play and abandons a round waiting for a pick
func (s *Session) Close() {
	s.auto.Stop()
	s.cancel()
}
