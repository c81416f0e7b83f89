package osal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakdam/osal-1/errkind"
	"github.com/zakdam/osal-1/port"
)

func newTestQueueRegistry(p port.Port, tasks creatorFinder, capacity, maxName int) *QueueRegistry {
	return NewQueueRegistry(p, tasks, capacity, maxName)
}

func TestQueue_PutGetScenario(t *testing.T) {
	// Spec §8 scenario 3, verbatim.
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestQueueRegistry(p, tasks, 4, 32)

	var q int
	require.Equal(t, errkind.Success, r.Create(&q, "Q", 2, 8))

	require.Equal(t, errkind.Success, r.Put(q, []byte("abcdefgh")))
	require.Equal(t, errkind.Success, r.Put(q, []byte("abcdefgh")))
	assert.Equal(t, errkind.QueueFull, r.Put(q, []byte("abcdefgh")))

	buf := make([]byte, 8)
	var n uint32
	require.Equal(t, errkind.Success, r.Get(q, buf, port.Pend, &n))
	assert.EqualValues(t, 8, n)
	assert.Equal(t, "abcdefgh", string(buf))

	require.Equal(t, errkind.Success, r.Get(q, buf, port.Check, &n))
	assert.Equal(t, errkind.QueueEmpty, r.Get(q, buf, port.Check, &n))
	assert.EqualValues(t, 0, n)

	small := make([]byte, 4)
	assert.Equal(t, errkind.QueueInvalidSize, r.Get(q, small, port.Check, &n))
	assert.EqualValues(t, 0, n)
}

func TestQueue_TimedGetTimeout(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestQueueRegistry(p, tasks, 4, 32)

	var q int
	require.Equal(t, errkind.Success, r.Create(&q, "Q", 1, 4))

	buf := make([]byte, 4)
	var n uint32
	start := time.Now()
	k := r.Get(q, buf, port.Milliseconds(20), &n)
	elapsed := time.Since(start)

	assert.Equal(t, errkind.QueueTimeout, k)
	assert.EqualValues(t, 0, n)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestQueue_DeleteThenInvalid(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestQueueRegistry(p, tasks, 4, 32)

	var q int
	require.Equal(t, errkind.Success, r.Create(&q, "Q", 1, 4))
	require.Equal(t, errkind.Success, r.Delete(q))

	assert.Equal(t, errkind.InvalidID, r.Put(q, []byte("abcd")))
	_, k := r.GetIDByName("Q")
	assert.Equal(t, errkind.NameNotFound, k)
}

func TestQueue_FIFOOrder(t *testing.T) {
	p := newTestPort()
	tasks := newTestTaskRegistry(p, 4, 32)
	r := newTestQueueRegistry(p, tasks, 4, 32)

	var q int
	require.Equal(t, errkind.Success, r.Create(&q, "Q", 4, 4))
	for _, msg := range []string{"aaaa", "bbbb", "cccc"} {
		require.Equal(t, errkind.Success, r.Put(q, []byte(msg)))
	}

	buf := make([]byte, 4)
	var n uint32
	for _, want := range []string{"aaaa", "bbbb", "cccc"} {
		require.Equal(t, errkind.Success, r.Get(q, buf, port.Check, &n))
		assert.Equal(t, want, string(buf))
	}
}
