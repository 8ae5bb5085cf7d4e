package round

import (
	"context"
	"sync"

	"cups_webapp/internal/logger"
	"cups_webapp/internal/rgs"

	"github.com/shopspring/decimal"
)

// Phase mirrors the server's view of the session: rest means no open bet
type Phase string

const (
	PhaseRest    Phase = "rest"
	PhasePlaying Phase = "playing"
)

// Wallet is the subset of the RGS client the round layer needs
type Wallet interface {
	Authenticate(ctx context.Context) (*rgs.AuthenticateResponse, error)
	Play(ctx context.Context, bet decimal.Decimal) (*rgs.PlayResponse, error)
	EndRound(ctx context.Context) (*rgs.EndRoundResponse, error)
}

// Store holds the balance and phase mirror for one session. Balance and
// phase only change through Authenticate, ExecuteGameRound, FinalizeRound
// and RollbackDebit.
type Store struct {
	wallet Wallet

	mu           sync.RWMutex
	balance      decimal.Decimal
	phase        Phase
	lastPlay     *rgs.PlayResponse
	lastEndRound *rgs.EndRoundResponse
	lastWin      float64
	pendingDebit decimal.Decimal
}

// Snapshot is a point-in-time copy of the store
type Snapshot struct {
	Balance    decimal.Decimal `json:"balance"`
	Phase      Phase           `json:"phase"`
	LastWin    float64         `json:"last_win"`
	RoundState string          `json:"round_state,omitempty"`
}

func NewStore(wallet Wallet, startingBalance decimal.Decimal) *Store {
	return &Store{
		wallet:  wallet,
		balance: startingBalance,
		phase:   PhaseRest,
	}
}

// Authenticate loads the session balance from the server
func (s *Store) Authenticate(ctx context.Context) error {
	resp, err := s.wallet.Authenticate(ctx)
	if err != nil {
		logger.WithContext(ctx).Error("rgs authentication failed", "error", err)
		return err
	}

	s.mu.Lock()
	if bal, ok := resp.Balance.Value(); ok {
		s.balance = bal
	}
	balance := s.balance
	s.mu.Unlock()

	logger.WithContext(ctx).Info("rgs authenticated", "balance", balance.String())
	return nil
}

// ExecuteGameRound debits bet locally when no bet is open, then requests a
// round. On success the play response replaces the previous one and the
// phase becomes playing. On failure the error is returned untouched and the
// debit stays pending until RollbackDebit.
func (s *Store) ExecuteGameRound(ctx context.Context, bet decimal.Decimal) (*rgs.PlayResponse, error) {
	s.mu.Lock()
	s.pendingDebit = decimal.Zero
	if s.phase == PhaseRest {
		s.balance = s.balance.Sub(bet)
		s.pendingDebit = bet
	}
	s.mu.Unlock()

	resp, err := s.wallet.Play(ctx, bet)
	if err != nil {
		if rgs.IsActiveBetError(err) {
			logger.WithContext(ctx).Warn("rgs play rejected: active bet open", "error", err)
		} else {
			logger.WithContext(ctx).Error("rgs play failed", "error", err)
		}
		return nil, err
	}

	s.mu.Lock()
	s.lastPlay = resp
	s.lastEndRound = nil
	s.phase = PhasePlaying
	s.lastWin = resp.Round.PayoutMultiplier
	s.pendingDebit = decimal.Zero
	s.mu.Unlock()

	log := logger.WithContext(ctx)
	if resp.Round.State != "" {
		log.Debug("rgs round state", "state", resp.Round.State)
	}
	log.Info("rgs round played", "bet", bet.String(), "payout_multiplier", resp.Round.PayoutMultiplier)
	return resp, nil
}

// RollbackDebit restores the optimistic debit of a failed play call. It
// reports whether anything was restored.
func (s *Store) RollbackDebit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pendingDebit.IsPositive() {
		return false
	}
	s.balance = s.balance.Add(s.pendingDebit)
	s.pendingDebit = decimal.Zero
	return true
}

// FinalizeRound closes the open round. The confirmed balance overwrites the
// local one and the phase returns to rest only when the server sent an
// amount. On failure nothing changes.
func (s *Store) FinalizeRound(ctx context.Context) (*rgs.EndRoundResponse, error) {
	resp, err := s.wallet.EndRound(ctx)
	if err != nil {
		logger.WithContext(ctx).Error("rgs end round failed", "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.lastEndRound = resp
	s.pendingDebit = decimal.Zero
	if bal, ok := resp.Balance.Value(); ok {
		s.balance = bal
		s.phase = PhaseRest
	}
	balance := s.balance
	s.mu.Unlock()

	logger.WithContext(ctx).Info("rgs round finalized", "balance", balance.String())
	return resp, nil
}

func (s *Store) Balance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

func (s *Store) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Store) LastWin() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastWin
}

func (s *Store) LastPlayResponse() *rgs.PlayResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPlay
}

func (s *Store) LastEndRoundResponse() *rgs.EndRoundResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastEndRound
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Balance: s.balance,
		Phase:   s.phase,
		LastWin: s.lastWin,
	}
	if s.lastPlay != nil {
		snap.RoundState = s.lastPlay.Round.State
	}
	return snap
}
