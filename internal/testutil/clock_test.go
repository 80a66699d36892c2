package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepClock_Defaults(t *testing.T) {
	clock := NewStepClock(time.Time{}, 0)
	assert.Equal(t, Epoch, clock.Peek())
	assert.Equal(t, 0, clock.Calls())
}

func TestStepClock_NowAdvances(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := NewStepClock(start, time.Minute)

	// First call returns the start
	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start.Add(time.Minute), clock.Now())
	assert.Equal(t, start.Add(2*time.Minute), clock.Peek())
	assert.Equal(t, 2, clock.Calls())
}

func TestStepClock_Reset(t *testing.T) {
	clock := NewStepClock(time.Time{}, time.Hour)
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, Epoch, clock.Now(), "after reset Now returns the start again")
	assert.Equal(t, 1, clock.Calls())
}

func TestStepClock_ConcurrentDistinct(t *testing.T) {
	clock := NewStepClock(time.Time{}, time.Second)

	const workers = 20
	const perWorker = 50

	var wg sync.WaitGroup
	results := make(chan time.Time, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < perWorker; n++ {
				results <- clock.Now()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[time.Time]bool)
	for ts := range results {
		require.False(t, seen[ts], "duplicate instant %v", ts)
		seen[ts] = true
	}
	assert.Len(t, seen, workers*perWorker)
}
