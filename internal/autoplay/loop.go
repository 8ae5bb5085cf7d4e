package autoplay

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"cups_webapp/internal/logger"
	"cups_webapp/internal/metrics"
	"cups_webapp/internal/round"

	"github.com/shopspring/decimal"
)

var ErrInvalidRounds = errors.New("auto-play needs at least one round")

// DefaultDelay is the pause between two auto-played rounds
const DefaultDelay = 500 * time.Millisecond

// StopReason says why a run ended
type StopReason string

const (
	ReasonExhausted StopReason = "exhausted"
	ReasonWin       StopReason = "stop_on_win"
	ReasonLoss      StopReason = "stop_on_loss"
	ReasonStopped   StopReason = "stopped"
	ReasonCanceled  StopReason = "canceled"
	ReasonError     StopReason = "error"
)

// RoundRunner plays one complete round. The session implements it on top of
// the orchestrator so manual and automatic rounds share one guard.
type RoundRunner interface {
	PlayRound(ctx context.Context, bet decimal.Decimal) (*round.Outcome, error)
}

// Reporter receives progress of a run
type Reporter interface {
	Progress(remaining int)
	Phase(phase round.Phase)
	RoundDone(out *round.Outcome)
	Stopped(reason StopReason, err error)
}

type nopReporter struct{}

func (nopReporter) Progress(int) {}
func (nopReporter) Phase(round.Phase) {}
func (nopReporter) RoundDone(*round.Outcome) {}
func (nopReporter) Stopped(StopReason, error) {}

// Config of one auto-play run
type Config struct {
	Rounds     int             `json:"rounds"`
	Bet        decimal.Decimal `json:"bet"`
	StopOnWin  bool            `json:"stop_on_win"`
	StopOnLoss bool            `json:"stop_on_loss"`
}

// Loop drives a RoundRunner for a number of rounds. Only one run may be
// active; Stop is checked before each round and never interrupts one.
type Loop struct {
	runner   RoundRunner
	reporter Reporter
	clock    round.Clock
	delay    time.Duration

	running   atomic.Bool
	stop      atomic.Bool
	remaining atomic.Int64
}

type Option func(*Loop)

func WithReporter(r Reporter) Option {
	return func(l *Loop) {
		if r != nil {
			l.reporter = r
		}
	}
}

func WithClock(c round.Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

func WithDelay(d time.Duration) Option {
	return func(l *Loop) {
		if d >= 0 {
			l.delay = d
		}
	}
}

func New(runner RoundRunner, opts ...Option) *Loop {
	l := &Loop{
		runner:   runner,
		reporter: nopReporter{},
		clock:    round.SystemClock,
		delay:    DefaultDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loop) Running() bool {
	return l.running.Load()
}

// Remaining is the number of rounds left in the current run
func (l *Loop) Remaining() int {
	return int(l.remaining.Load())
}

// Stop asks the running loop to end before its next round
func (l *Loop) Stop() {
	if l.running.Load() {
		l.stop.Store(true)
	}
}

// TryStart claims the loop. It returns false when a run is already active.
func (l *Loop) TryStart() bool {
	if !l.running.CompareAndSwap(false, true) {
		return false
	}
	l.stop.Store(false)
	return true
}

// Run claims the loop and plays up to cfg.Rounds rounds. When a run is
// already active it logs and returns with an empty reason.
func (l *Loop) Run(ctx context.Context, cfg Config) (StopReason, error) {
	if cfg.Rounds < 1 {
		return "", ErrInvalidRounds
	}
	if !l.TryStart() {
		logger.WithContext(ctx).Warn("auto-play already running, start ignored")
		return "", nil
	}
	return l.RunClaimed(ctx, cfg)
}

// RunClaimed runs after a successful TryStart and releases the loop when done
func (l *Loop) RunClaimed(ctx context.Context, cfg Config) (reason StopReason, err error) {
	log := logger.WithContext(ctx).With("rounds", cfg.Rounds, "bet", cfg.Bet.String())
	log.Info("auto-play started", "stop_on_win", cfg.StopOnWin, "stop_on_loss", cfg.StopOnLoss)

	l.remaining.Store(int64(cfg.Rounds))
	defer func() {
		l.remaining.Store(0)
		l.stop.Store(false)
		l.running.Store(false)
		metrics.AutoPlayRuns.WithLabelValues(string(reason)).Inc()
		l.reporter.Stopped(reason, err)
		if err != nil {
			log.Error("auto-play stopped", "reason", reason, "error", err)
		} else {
			log.Info("auto-play stopped", "reason", reason)
		}
	}()

	for l.remaining.Load() > 0 {
		if l.stop.Load() {
			return ReasonStopped, nil
		}
		if ctx.Err() != nil {
			return ReasonCanceled, nil
		}

		l.reporter.Progress(l.Remaining())
		l.reporter.Phase(round.PhasePlaying)
		out, err := l.runner.PlayRound(ctx, cfg.Bet)
		l.reporter.Phase(round.PhaseRest)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ReasonCanceled, nil
			}
			return ReasonError, err
		}
		l.reporter.RoundDone(out)

		// recovered rounds carry no result
		if !out.Forced {
			if cfg.StopOnWin && out.Win {
				return ReasonWin, nil
			}
			if cfg.StopOnLoss && !out.Win {
				return ReasonLoss, nil
			}
		}

		if err := l.clock.Sleep(ctx, l.delay); err != nil {
			return ReasonCanceled, nil
		}
		l.remaining.Add(-1)
	}
	return ReasonExhausted, nil
}
