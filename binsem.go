package osal

import (
	"sync"
	"time"

	"github.com/zakdam/osal-1/errkind"
	"github.com/zakdam/osal-1/port"
)

// Event-group bits backing a binary semaphore, per spec §4.4.
const (
	binSemStateBit port.Bits = 1 << 0
	binSemFlushBit port.Bits = 1 << 1
	binSemAllBits            = binSemStateBit | binSemFlushBit
)

// BinSemInfo is a snapshot of a binary semaphore slot.
type BinSemInfo struct {
	Name         string
	Creator      int
	CurrentValue int
}

type binSemSlot struct {
	free         bool
	name         string
	creator      int
	handle       port.EventGroupHandle
	currentValue int
	waiters      int // tasks currently parked in Take/TimedTake; the last to drain a flush clears FLUSH
}

// BinSemRegistry is the fixed-capacity binary-semaphore table of spec §4.4,
// the single most intricate component of the core: Give/Take/Flush
// together implement a broadcast-release state machine on top of an event
// group that only natively offers set/clear/wait-bits.
type BinSemRegistry struct {
	mu      sync.Mutex
	slots   []binSemSlot
	maxName int
	port    port.Port
	tasks   creatorFinder
}

func NewBinSemRegistry(p port.Port, tasks creatorFinder, capacity, maxName int) *BinSemRegistry {
	r := &BinSemRegistry{slots: make([]binSemSlot, capacity), maxName: maxName, port: p, tasks: tasks}
	for i := range r.slots {
		r.releaseAt(i)
	}
	return r
}

func (r *BinSemRegistry) capacity() int       { return len(r.slots) }
func (r *BinSemRegistry) isFree(i int) bool   { return r.slots[i].free }
func (r *BinSemRegistry) nameAt(i int) string { return r.slots[i].name }
func (r *BinSemRegistry) reserveAt(i int)     { r.slots[i] = binSemSlot{free: false} }
func (r *BinSemRegistry) releaseAt(i int)     { r.slots[i] = binSemSlot{free: true} }
func (r *BinSemRegistry) commitAt(i int, name string, creator int) {
	r.slots[i].name = name
	r.slots[i].creator = creator
}

// Create makes a binary semaphore with the given initial value (0 or 1).
func (r *BinSemRegistry) Create(outID *int, name string, initial int) errkind.Kind {
	if outID == nil {
		return errkind.InvalidPointer
	}
	if len(name) >= r.maxName {
		return errkind.NameTooLong
	}
	if initial != 0 && initial != 1 {
		return errkind.InvalidSemValue
	}
	id, k := reserveByName(&r.mu, r, r.maxName, name)
	if k != errkind.Success {
		return k
	}

	creator := r.tasks.currentTaskID()
	handle, err := r.port.EventGroupCreate(name)
	r.mu.Lock()
	if err != nil {
		r.releaseAt(id)
		r.mu.Unlock()
		return errkind.KernelFailure
	}
	r.commitAt(id, name, creator)
	r.slots[id].handle = handle
	r.slots[id].currentValue = initial
	r.mu.Unlock()

	if initial == 1 {
		r.port.EventGroupSetBits(handle, binSemStateBit)
	}

	*outID = id
	return errkind.Success
}

func (r *BinSemRegistry) Delete(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	if err := r.port.EventGroupDestroy(handle); err != nil {
		return errkind.KernelFailure
	}
	r.mu.Lock()
	r.releaseAt(id)
	r.mu.Unlock()
	return errkind.Success
}

// Give releases the semaphore. If it is already available (current_value
// == 1), this is a no-op success: FLUSH residue is cleared by the last
// draining waiter (see Take), not here, closing the gap spec §9 flags in
// the naive "Give clears FLUSH" rule.
func (r *BinSemRegistry) Give(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	alreadySet := r.slots[id].currentValue >= 1
	if !alreadySet {
		r.slots[id].currentValue = 1
	}
	r.mu.Unlock()

	if !alreadySet {
		r.port.EventGroupSetBits(handle, binSemStateBit)
	}
	return errkind.Success
}

// Take blocks indefinitely for the semaphore to become available or for a
// flush to be in progress.
func (r *BinSemRegistry) Take(id int) errkind.Kind {
	return r.take(id, port.Pend)
}

// TimedTake blocks up to msecs milliseconds. msecs == 0 is an immediate,
// non-blocking poll (port.Check) rather than a call into port.Milliseconds,
// which requires a positive duration.
func (r *BinSemRegistry) TimedTake(id int, msecs uint32) errkind.Kind {
	if msecs == 0 {
		return r.take(id, port.Check)
	}
	return r.take(id, port.Milliseconds(msecs))
}

// take waits on the STATE|FLUSH event group and, on wakeup, settles which
// waiter actually consumed the token.
//
// EventGroupWaitBits reports the bits it observed, but it does not consume
// them: a single Give can close the event group's wait channel once and
// wake every task currently parked in Take, and all of them will then read
// STATE still set (nothing has cleared it yet). Trusting `observed`
// directly would let every one of them report success for one Give, so
// STATE consumption is instead settled against the slot's current_value
// under r.mu: whichever waiter finds current_value == 1 there is the one
// real winner; everyone else lost the race to a stale wakeup and loops
// back to wait again rather than returning a success it didn't earn. FLUSH
// has no such race — every waiter releasing on FLUSH is exactly the
// broadcast behavior Flush contracts for.
func (r *BinSemRegistry) take(id int, w port.Wait) errkind.Kind {
	bounded := w != port.Pend && w != port.Check
	var deadline time.Time
	if bounded {
		deadline = time.Now().Add(time.Duration(w) * time.Millisecond)
	}

	for {
		r.mu.Lock()
		if id < 0 || id >= len(r.slots) || r.slots[id].free {
			r.mu.Unlock()
			return errkind.InvalidID
		}
		handle := r.slots[id].handle
		r.slots[id].waiters++
		r.mu.Unlock()

		waitFor := w
		if bounded {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				r.mu.Lock()
				r.slots[id].waiters--
				r.mu.Unlock()
				return errkind.SemTimeout
			}
			// Round up so the wait never ends before the caller's deadline.
			ms := int64((remaining + time.Millisecond - 1) / time.Millisecond)
			if ms < 1 {
				ms = 1
			}
			waitFor = port.Milliseconds(uint32(ms))
		}

		observed, err := r.port.EventGroupWaitBits(handle, binSemAllBits, false, waitFor)

		r.mu.Lock()
		// The slot can't have been deleted while we were waiting on it (the
		// contract requires Delete to be serialized against in-flight waiters
		// by the caller / a wrapping port); validate defensively anyway.
		if id >= len(r.slots) {
			r.mu.Unlock()
			return errkind.InvalidID
		}
		r.slots[id].waiters--
		lastWaiter := r.slots[id].waiters == 0

		if err != nil {
			r.mu.Unlock()
			if err == port.ErrTimeout || err == port.ErrEmpty {
				return errkind.SemTimeout
			}
			return errkind.KernelFailure
		}

		if observed&binSemFlushBit != 0 {
			clearFlush := lastWaiter
			r.mu.Unlock()
			if clearFlush {
				r.port.EventGroupClearBits(handle, binSemFlushBit)
			}
			return errkind.Success
		}

		if r.slots[id].currentValue >= 1 {
			r.slots[id].currentValue = 0
			r.mu.Unlock()
			r.port.EventGroupClearBits(handle, binSemStateBit)
			return errkind.Success
		}
		r.mu.Unlock()

		if w == port.Check {
			return errkind.SemTimeout
		}
		// Lost the race for this Give's token to another waiter; loop back
		// and wait for the next one instead of returning a stale success.
	}
}

// Flush releases every task currently blocked in Take/TimedTake on this
// semaphore exactly once, without changing current_value. The last
// released waiter clears FLUSH once it has drained (see take).
func (r *BinSemRegistry) Flush(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	r.port.EventGroupSetBits(handle, binSemFlushBit)
	return errkind.Success
}

func (r *BinSemRegistry) GetInfo(id int) (BinSemInfo, errkind.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		return BinSemInfo{}, errkind.InvalidID
	}
	s := r.slots[id]
	return BinSemInfo{Name: s.name, Creator: s.creator, CurrentValue: s.currentValue}, errkind.Success
}

func (r *BinSemRegistry) GetIDByName(name string) (int, errkind.Kind) {
	return lookupByName(&r.mu, r, name)
}

func (r *BinSemRegistry) GetNameByID(id int) (string, errkind.Kind) {
	return nameByID(&r.mu, r, id)
}
