package round

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickGateLatchesFirstPick(t *testing.T) {
	g := NewPickGate()
	assert.ErrorIs(t, g.Pick(0), ErrPickNotOpen)

	g.Open(3)
	assert.True(t, g.IsOpen())
	assert.ErrorIs(t, g.Pick(3), ErrInvalidCup)
	assert.ErrorIs(t, g.Pick(-1), ErrInvalidCup)
	require.NoError(t, g.Pick(1))
	assert.False(t, g.IsOpen())
	assert.ErrorIs(t, g.Pick(2), ErrAlreadyPicked)

	cup, err := g.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cup)

	g.Open(3)
	require.NoError(t, g.Pick(2))
	cup, err = g.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cup)
}

func TestPickGateConcurrentPicks(t *testing.T) {
	g := NewPickGate()
	g.Open(3)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(cup int) {
			defer wg.Done()
			if g.Pick(cup) == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i % 3)
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
}

func TestPickGateWaitHonorsContext(t *testing.T) {
	g := NewPickGate()
	_, err := g.Wait(context.Background())
	assert.ErrorIs(t, err, ErrPickNotOpen)

	g.Open(3)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = g.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	g.Close()
	assert.ErrorIs(t, g.Pick(0), ErrPickNotOpen)
}
