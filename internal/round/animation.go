package round

import (
	"context"
	"math/rand"
	"time"
)

// CupCount is the number of cups on the table
const CupCount = 3

// Presenter is the rendering collaborator. Cups are addressed by their
// position 0..CupCount-1. Lift, Lower and Swap return once the animation has
// completed.
type Presenter interface {
	CupCount() int
	SetCupsInteractive(enabled bool)
	Lift(ctx context.Context, cup int) error
	Lower(ctx context.Context, cup int) error
	Swap(ctx context.Context, a, b int) error
	// ShowMarker places the prize marker above cup, layered just under it
	ShowMarker(cup int)
	HideMarker()
	// Layout restores the resting arrangement after a round
	Layout()
}

// Clock suspends for dwell periods
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SystemClock sleeps on real timers
var SystemClock Clock = systemClock{}

// Timings are the dwell periods of the reveal and shuffle animations
type Timings struct {
	WinDwell    time.Duration
	LossDwell   time.Duration
	MarkerDwell time.Duration
	PeekDwell   time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		WinDwell:    800 * time.Millisecond,
		LossDwell:   600 * time.Millisecond,
		MarkerDwell: 800 * time.Millisecond,
		PeekDwell:   500 * time.Millisecond,
	}
}

// Step is one awaitable animation step
type Step func(ctx context.Context) error

// Sequence runs its steps in order and stops at the first error
type Sequence []Step

func (s Sequence) Run(ctx context.Context) error {
	for _, step := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func Dwell(clock Clock, d time.Duration) Step {
	return func(ctx context.Context) error {
		return clock.Sleep(ctx, d)
	}
}

func LiftCup(p Presenter, cup int) Step {
	return func(ctx context.Context) error {
		return p.Lift(ctx, cup)
	}
}

func LowerCup(p Presenter, cup int) Step {
	return func(ctx context.Context) error {
		return p.Lower(ctx, cup)
	}
}

func SwapCups(p Presenter, a, b int) Step {
	return func(ctx context.Context) error {
		return p.Swap(ctx, a, b)
	}
}

func ShowMarker(p Presenter, cup int) Step {
	return func(context.Context) error {
		p.ShowMarker(cup)
		return nil
	}
}

func HideMarker(p Presenter) Step {
	return func(context.Context) error {
		p.HideMarker()
		return nil
	}
}

// Reveal lifts cup, optionally shows the marker under it, holds for dwell,
// then lowers it and hides the marker.
func Reveal(p Presenter, clock Clock, cup int, dwell time.Duration, marker bool) Sequence {
	seq := Sequence{LiftCup(p, cup)}
	if marker {
		seq = append(seq, ShowMarker(p, cup))
	}
	seq = append(seq, Dwell(clock, dwell), LowerCup(p, cup))
	if marker {
		seq = append(seq, HideMarker(p))
	}
	return seq
}

// Shuffle builds the cosmetic pre-pick sequence: peek at the marker under a
// random cup, swap 2-3 random pairs, peek again, swap 4-5 more pairs. It says
// nothing about the round's result.
func Shuffle(p Presenter, clock Clock, rng *rand.Rand, peek time.Duration) Sequence {
	n := p.CupCount()

	var seq Sequence
	seq = append(seq, Reveal(p, clock, rng.Intn(n), peek, true)...)
	seq = append(seq, swaps(p, rng, n, 2+rng.Intn(2))...)
	seq = append(seq, Reveal(p, clock, rng.Intn(n), peek, true)...)
	seq = append(seq, swaps(p, rng, n, 4+rng.Intn(2))...)
	return seq
}

func swaps(p Presenter, rng *rand.Rand, n, times int) Sequence {
	seq := make(Sequence, 0, times)
	for i := 0; i < times; i++ {
		a := rng.Intn(n)
		b := rng.Intn(n)
		for b == a {
			b = rng.Intn(n)
		}
		seq = append(seq, SwapCups(p, a, b))
	}
	return seq
}

// otherCup draws uniformly among the cups that are not chosen
func otherCup(rng *rand.Rand, n, chosen int) int {
	other := rng.Intn(n)
	for other == chosen {
		other = rng.Intn(n)
	}
	return other
}
