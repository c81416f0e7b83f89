package simport

import (
	"sync"
	"time"

	"github.com/zakdam/osal-1/port"
)

// eventGroupHandle is a small bit-set with atomic set/clear and a wait that
// can block for any-of or all-of a mask. changed is closed and replaced on
// every mutation so waiters can block on it without missing a wakeup that
// lands between their state check and their wait: they capture changed
// under the lock, release the lock, then select on the captured channel,
// so a mutation between those two steps closes the very channel they are
// about to wait on.
type eventGroupHandle struct {
	name string

	mu      sync.Mutex
	bits    port.Bits
	changed chan struct{}
}

func (s *Sim) EventGroupCreate(name string) (port.EventGroupHandle, error) {
	return &eventGroupHandle{name: name, changed: make(chan struct{})}, nil
}

func (s *Sim) EventGroupDestroy(h port.EventGroupHandle) error {
	return nil
}

func (e *eventGroupHandle) notifyLocked() {
	close(e.changed)
	e.changed = make(chan struct{})
}

func (s *Sim) EventGroupSetBits(h port.EventGroupHandle, bits port.Bits) {
	e := h.(*eventGroupHandle)
	e.mu.Lock()
	e.bits |= bits
	e.notifyLocked()
	e.mu.Unlock()
}

func (s *Sim) EventGroupClearBits(h port.EventGroupHandle, bits port.Bits) {
	e := h.(*eventGroupHandle)
	e.mu.Lock()
	e.bits &^= bits
	e.notifyLocked()
	e.mu.Unlock()
}

func (s *Sim) EventGroupWaitBits(h port.EventGroupHandle, mask port.Bits, waitAll bool, w port.Wait) (port.Bits, error) {
	e := h.(*eventGroupHandle)

	var deadline <-chan time.Time
	if w != port.Pend && w != port.Check {
		timer := time.NewTimer(time.Duration(w) * time.Millisecond)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		e.mu.Lock()
		observed := e.bits & mask
		satisfied := observed != 0
		if waitAll {
			satisfied = mask != 0 && observed == mask
		}
		if satisfied {
			b := e.bits
			e.mu.Unlock()
			return b, nil
		}
		ch := e.changed
		e.mu.Unlock()

		switch w {
		case port.Check:
			return 0, port.ErrEmpty
		case port.Pend:
			<-ch
		default:
			select {
			case <-ch:
			case <-deadline:
				return 0, port.ErrTimeout
			}
		}
	}
}
