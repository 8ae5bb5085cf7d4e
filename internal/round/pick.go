package round

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrInvalidCup    = errors.New("cup index out of range")
	ErrPickNotOpen   = errors.New("cups are not accepting a pick")
	ErrAlreadyPicked = errors.New("a cup was already picked this round")
)

// PickGate accepts exactly one cup pick per opening. The first Pick latches;
// every later Pick until the next Open is refused.
type PickGate struct {
	mu     sync.Mutex
	open   bool
	cups   int
	chosen int
	picked chan int
}

func NewPickGate() *PickGate {
	return &PickGate{chosen: -1}
}

// Open resets the latch and starts accepting a pick among cups
func (g *PickGate) Open(cups int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.open = true
	g.cups = cups
	g.chosen = -1
	g.picked = make(chan int, 1)
}

// Close stops accepting picks without choosing
func (g *PickGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = false
}

// Pick offers a cup. It returns nil only for the pick that latched.
func (g *PickGate) Pick(cup int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.chosen >= 0 {
		return ErrAlreadyPicked
	}
	if !g.open {
		return ErrPickNotOpen
	}
	if cup < 0 || cup >= g.cups {
		return ErrInvalidCup
	}

	g.chosen = cup
	g.open = false
	g.picked <- cup
	return nil
}

// IsOpen reports whether a pick would be accepted
func (g *PickGate) IsOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.open
}

// Wait blocks until the current opening latches a pick or ctx ends
func (g *PickGate) Wait(ctx context.Context) (int, error) {
	g.mu.Lock()
	ch := g.picked
	g.mu.Unlock()

	if ch == nil {
		return -1, ErrPickNotOpen
	}

	select {
	case cup := <-ch:
		return cup, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}
