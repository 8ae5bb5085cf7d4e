package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"cups_webapp/internal/logger"
	"cups_webapp/internal/metrics"
	"cups_webapp/internal/rgs"
	"cups_webapp/internal/round"
	"cups_webapp/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Config shared by every session of a manager
type Config struct {
	StartingBalance decimal.Decimal
	Bets            *round.BetTable
	Timings         round.Timings
	CupMove         time.Duration
	AutoPlayDelay   time.Duration
	Shuffle         bool
	TTL             time.Duration
	Clock           round.Clock
	// Seed fixes the cup randomness; zero seeds from the time
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		StartingBalance: decimal.NewFromInt(1000),
		Bets:            round.DefaultBetTable(),
		Timings:         round.DefaultTimings(),
		CupMove:         ws.DefaultCupMove,
		AutoPlayDelay:   500 * time.Millisecond,
		Shuffle:         true,
		TTL:             time.Hour,
		Clock:           round.SystemClock,
	}
}

func (c Config) rand() *rand.Rand {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// WalletFactory builds the wallet for a player's launch parameters
type WalletFactory func(launch rgs.LaunchConfig) round.Wallet

func rgsWallet(launch rgs.LaunchConfig) round.Wallet {
	return rgs.NewClient(launch)
}

// Manager owns the live sessions and routes renderer input to them
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg       Config
	hub       *ws.Hub
	recorder  Recorder
	newWallet WalletFactory
	ctx       context.Context
}

type ManagerOption func(*Manager)

func WithRecorder(r Recorder) ManagerOption {
	return func(m *Manager) {
		m.recorder = r
	}
}

func WithWalletFactory(f WalletFactory) ManagerOption {
	return func(m *Manager) {
		if f != nil {
			m.newWallet = f
		}
	}
}

// NewManager creates a manager. Sessions live until ctx ends, Remove is
// called or they idle past the TTL.
func NewManager(ctx context.Context, cfg Config, hub *ws.Hub, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		cfg:       cfg,
		hub:       hub,
		newWallet: rgsWallet,
		ctx:       ctx,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ ws.Router = (*Manager)(nil)

// Create authenticates a new player session against the RGS
func (m *Manager) Create(ctx context.Context, launch rgs.LaunchConfig) (*Session, error) {
	if err := launch.Validate(); err != nil {
		return nil, err
	}

	store := round.NewStore(m.newWallet(launch), m.cfg.StartingBalance)
	if err := store.Authenticate(ctx); err != nil {
		return nil, err
	}

	key := uuid.NewString()
	s := newSession(m.ctx, key, launch, store, m.hub, m.recorder, m.cfg)

	m.mu.Lock()
	m.sessions[key] = s
	m.mu.Unlock()
	metrics.ActiveSessions.Inc()

	logger.Info("session created", "session", key, "currency", launch.Currency, "mode", launch.Mode)
	return s, nil
}

func (m *Manager) Get(key string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) HasSession(key string) bool {
	_, err := m.Get(key)
	return err == nil
}

// Pick routes a renderer pick to its session
func (m *Manager) Pick(key string, cup int) error {
	s, err := m.Get(key)
	if err != nil {
		return err
	}
	return s.Pick(cup)
}

// Remove closes the session and disconnects its renderers
func (m *Manager) Remove(key string) bool {
	m.mu.Lock()
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()

	if !ok {
		return false
	}
	m.closeSession(s)
	return true
}

func (m *Manager) closeSession(s *Session) {
	s.Close()
	m.hub.CloseSession(s.Key)
	metrics.ActiveSessions.Dec()
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunCleanup evicts idle sessions every interval until ctx ends
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return nil
		case now := <-ticker.C:
			m.cleanupStale(now)
		}
	}
}

func (m *Manager) cleanupStale(now time.Time) int {
	var stale []*Session

	m.mu.Lock()
	for key, s := range m.sessions {
		if !s.Busy() && s.Idle(now) > m.cfg.TTL && m.hub.Count(key) == 0 {
			delete(m.sessions, key)
			stale = append(stale, s)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		m.closeSession(s)
		logger.Info("cleaned up idle session", "session", s.Key)
	}
	return len(stale)
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		m.closeSession(s)
	}
}
