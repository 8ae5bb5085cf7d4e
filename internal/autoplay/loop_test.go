package autoplay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cups_webapp/internal/round"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	mu       sync.Mutex
	outcomes []*round.Outcome
	errs     []error
	calls    int
	before   func(call int)
}

func (r *scriptedRunner) PlayRound(_ context.Context, bet decimal.Decimal) (*round.Outcome, error) {
	r.mu.Lock()
	call := r.calls
	r.calls++
	before := r.before
	r.mu.Unlock()

	if before != nil {
		before(call)
	}
	if call < len(r.errs) && r.errs[call] != nil {
		return nil, r.errs[call]
	}
	out := &round.Outcome{Bet: bet}
	if call < len(r.outcomes) {
		out = r.outcomes[call]
	}
	return out, nil
}

func (r *scriptedRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type recReporter struct {
	mu       sync.Mutex
	progress []int
	phases   []round.Phase
	done     int
	reason   StopReason
	err      error
}

func (r *recReporter) Progress(n int) {
	r.mu.Lock()
	r.progress = append(r.progress, n)
	r.mu.Unlock()
}

func (r *recReporter) Phase(p round.Phase) {
	r.mu.Lock()
	r.phases = append(r.phases, p)
	r.mu.Unlock()
}

func (r *recReporter) RoundDone(*round.Outcome) {
	r.mu.Lock()
	r.done++
	r.mu.Unlock()
}

func (r *recReporter) Stopped(reason StopReason, err error) {
	r.mu.Lock()
	r.reason, r.err = reason, err
	r.mu.Unlock()
}

type noSleep struct{}

func (noSleep) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func win() *round.Outcome { return &round.Outcome{Win: true, Finalized: true} }
func loss() *round.Outcome { return &round.Outcome{} }

func newLoop(runner RoundRunner, rep Reporter) *Loop {
	return New(runner, WithReporter(rep), WithClock(noSleep{}))
}

func TestStopOnWinHaltsAfterWinningRound(t *testing.T) {
	runner := &scriptedRunner{outcomes: []*round.Outcome{loss(), win(), loss()}}
	rep := &recReporter{}
	l := newLoop(runner, rep)

	reason, err := l.Run(context.Background(), Config{Rounds: 3, StopOnWin: true, Bet: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, ReasonWin, reason)
	assert.Equal(t, 2, runner.Calls())
	assert.Equal(t, []int{3, 2}, rep.progress)
	assert.Equal(t, []round.Phase{round.PhasePlaying, round.PhaseRest, round.PhasePlaying, round.PhaseRest}, rep.phases)
	assert.Equal(t, ReasonWin, rep.reason)
	assert.False(t, l.Running())
	assert.Zero(t, l.Remaining())
}

func TestStopOnLoss(t *testing.T) {
	runner := &scriptedRunner{outcomes: []*round.Outcome{win(), win(), loss(), win()}}
	l := newLoop(runner, nil)

	reason, err := l.Run(context.Background(), Config{Rounds: 10, StopOnLoss: true, Bet: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, ReasonLoss, reason)
	assert.Equal(t, 3, runner.Calls())
}

func TestRecoveredRoundIgnoredByPredicates(t *testing.T) {
	runner := &scriptedRunner{outcomes: []*round.Outcome{{Forced: true, Finalized: true}, win()}}
	l := newLoop(runner, nil)

	reason, err := l.Run(context.Background(), Config{Rounds: 5, StopOnWin: true, StopOnLoss: true, Bet: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, ReasonWin, reason)
	assert.Equal(t, 2, runner.Calls())
}

func TestRunsUntilExhausted(t *testing.T) {
	runner := &scriptedRunner{}
	rep := &recReporter{}
	l := newLoop(runner, rep)

	reason, err := l.Run(context.Background(), Config{Rounds: 4, Bet: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.Equal(t, ReasonExhausted, reason)
	assert.Equal(t, 4, runner.Calls())
	assert.Equal(t, []int{4, 3, 2, 1}, rep.progress)
	assert.Equal(t, 4, rep.done)
}

func TestStopEndsBeforeNextRound(t *testing.T) {
	runner := &scriptedRunner{}
	l := newLoop(runner, nil)
	runner.before = func(call int) {
		if call == 1 {
			l.Stop()
		}
	}

	reason, err := l.Run(context.Background(), Config{Rounds: 5, Bet: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, ReasonStopped, reason)
	assert.Equal(t, 2, runner.Calls(), "the round in progress completes")
}

func TestRoundErrorStopsLoop(t *testing.T) {
	boom := errors.New("boom")
	runner := &scriptedRunner{errs: []error{nil, boom}}
	rep := &recReporter{}
	l := newLoop(runner, rep)

	reason, err := l.Run(context.Background(), Config{Rounds: 5, Bet: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ReasonError, reason)
	assert.Equal(t, 2, runner.Calls())
	assert.ErrorIs(t, rep.err, boom)
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	runner := &scriptedRunner{}
	runner.before = func(call int) {
		if call == 0 {
			close(entered)
			<-release
		}
	}
	l := newLoop(runner, nil)

	done := make(chan StopReason, 1)
	go func() {
		reason, _ := l.Run(context.Background(), Config{Rounds: 1, Bet: decimal.NewFromInt(1)})
		done <- reason
	}()
	<-entered

	assert.True(t, l.Running())
	reason, err := l.Run(context.Background(), Config{Rounds: 3, Bet: decimal.NewFromInt(1)})
	assert.NoError(t, err)
	assert.Empty(t, reason)

	close(release)
	assert.Equal(t, ReasonExhausted, <-done)
	assert.Equal(t, 1, runner.Calls())
}

func TestCanceledContext(t *testing.T) {
	runner := &scriptedRunner{}
	l := newLoop(runner, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reason, err := l.Run(ctx, Config{Rounds: 3, Bet: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.Equal(t, ReasonCanceled, reason)
	assert.Zero(t, runner.Calls())
}

func TestInvalidRounds(t *testing.T) {
	l := newLoop(&scriptedRunner{}, nil)
	_, err := l.Run(context.Background(), Config{Rounds: 0})
	assert.ErrorIs(t, err, ErrInvalidRounds)
	assert.False(t, l.Running())
}
