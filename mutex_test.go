package osal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakdam/osal-1/errkind"
	"github.com/zakdam/osal-1/port"
)

func newTestMutexRegistry(p port.Port, tasks creatorFinder, capacity, maxName int) *MutexRegistry {
	return NewMutexRegistry(p, tasks, capacity, maxName)
}

func TestMutex_RecursiveLockUnlock(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestMutexRegistry(p, tasks, 4, 32)

	var m int
	require.Equal(t, errkind.Success, r.Create(&m, "M"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		require.Equal(t, errkind.Success, r.Lock(m))
		require.Equal(t, errkind.Success, r.Lock(m)) // recursive
		require.Equal(t, errkind.Success, r.Unlock(m))
		require.Equal(t, errkind.Success, r.Unlock(m))
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recursive lock/unlock deadlocked")
	}
}

func TestMutex_SecondOwnerBlocksUntilReleased(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestMutexRegistry(p, tasks, 4, 32)

	var m int
	require.Equal(t, errkind.Success, r.Create(&m, "M"))

	acquired := make(chan struct{})
	released := make(chan struct{})
	go func() {
		require.Equal(t, errkind.Success, r.Lock(m))
		close(acquired)
		time.Sleep(30 * time.Millisecond)
		require.Equal(t, errkind.Success, r.Unlock(m))
		close(released)
	}()
	<-acquired

	start := time.Now()
	require.Equal(t, errkind.Success, r.Lock(m))
	elapsed := time.Since(start)
	<-released
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	require.Equal(t, errkind.Success, r.Unlock(m))
}

func TestMutex_UnlockWithoutOwnership(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestMutexRegistry(p, tasks, 4, 32)

	var m int
	require.Equal(t, errkind.Success, r.Create(&m, "M"))
	assert.Equal(t, errkind.MutexNotOwned, r.Unlock(m))
}

func TestMutex_ConcurrentCreateSameName(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestMutexRegistry(p, tasks, 4, 32)

	const n = 6
	results := make([]errkind.Kind, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var id int
			results[i] = r.Create(&id, "dup")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, k := range results {
		if k == errkind.Success {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
}
