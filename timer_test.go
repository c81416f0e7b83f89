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

func newTestTimerRegistry(p port.Port, tasks creatorFinder, capacity, maxName int) *TimerRegistry {
	return NewTimerRegistry(p, tasks, capacity, maxName)
}

func TestTimer_PeriodicFiresStartThenEveryInterval(t *testing.T) {
	// Spec §8 scenario 5.
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestTimerRegistry(p, tasks, 4, 32)

	var fires []time.Time
	var mu sync.Mutex
	cb := func(id int) {
		mu.Lock()
		fires = append(fires, time.Now())
		mu.Unlock()
	}

	var id int
	var accuracy uint32
	require.Equal(t, errkind.Success, r.Create(&id, "TMR", &accuracy, cb))
	assert.Greater(t, accuracy, uint32(0))

	start := time.Now()
	require.Equal(t, errkind.Success, r.Set(id, 30_000, 15_000)) // 30ms start, 15ms interval

	time.Sleep(120 * time.Millisecond)
	require.Equal(t, errkind.Success, r.Delete(id))

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(fires), 3, "expected at least an initial fire plus a couple of periodic ones")
	firstDelay := fires[0].Sub(start)
	assert.InDelta(t, 30*time.Millisecond, firstDelay, float64(15*time.Millisecond))
}

func TestTimer_OneShotFiresOnce(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestTimerRegistry(p, tasks, 4, 32)

	var count int
	var mu sync.Mutex
	cb := func(id int) {
		mu.Lock()
		count++
		mu.Unlock()
	}

	var id int
	var accuracy uint32
	require.Equal(t, errkind.Success, r.Create(&id, "ONCE", &accuracy, cb))
	require.Equal(t, errkind.Success, r.Set(id, 10_000, 0))

	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestTimer_DeletePreventsFurtherDispatch(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestTimerRegistry(p, tasks, 4, 32)

	var count int
	var mu sync.Mutex
	cb := func(id int) {
		mu.Lock()
		count++
		mu.Unlock()
	}

	var id int
	var accuracy uint32
	require.Equal(t, errkind.Success, r.Create(&id, "T", &accuracy, cb))
	require.Equal(t, errkind.Success, r.Set(id, 10_000, 10_000))

	time.Sleep(25 * time.Millisecond) // let it fire once or twice
	require.Equal(t, errkind.Success, r.Delete(id))

	mu.Lock()
	afterDelete := count
	mu.Unlock()

	time.Sleep(40 * time.Millisecond) // spec §8: no further callbacks within 20ms+ of delete
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, afterDelete, count, "no dispatch should occur after Delete")
}

func TestTimer_GetInfoReflectsSetParameters(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestTimerRegistry(p, tasks, 4, 32)

	var id int
	var accuracy uint32
	require.Equal(t, errkind.Success, r.Create(&id, "T", &accuracy, func(int) {}))
	require.Equal(t, errkind.Success, r.Set(id, 5000, 2000))

	info, k := r.GetInfo(id)
	require.Equal(t, errkind.Success, k)
	assert.EqualValues(t, 5000, info.StartDelay)
	assert.EqualValues(t, 2000, info.Interval)
	assert.Equal(t, accuracy, info.Accuracy)
}

func TestTimer_CreateRejectsNilArgs(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestTimerRegistry(p, tasks, 4, 32)

	var id int
	var accuracy uint32
	assert.Equal(t, errkind.InvalidPointer, r.Create(nil, "T", &accuracy, func(int) {}))
	assert.Equal(t, errkind.InvalidPointer, r.Create(&id, "T", nil, func(int) {}))
	assert.Equal(t, errkind.InvalidPointer, r.Create(&id, "T", &accuracy, nil))
}
