package spin

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ sync.Locker = (*Lock)(nil)

func TestLock_MutualExclusion(t *testing.T) {
	var (
		l       Lock
		counter int
		wg      sync.WaitGroup
	)
	const workers, iterations = 8, 2000
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, workers*iterations, counter)
}

func TestTryLock(t *testing.T) {
	var l Lock
	require.True(t, l.TryLock())
	assert.False(t, l.TryLock())
	l.Unlock()
	assert.True(t, l.TryLock())
	l.Unlock()
}

func TestUnlock_Unlocked(t *testing.T) {
	var l Lock
	assert.Panics(t, func() { l.Unlock() })
}
