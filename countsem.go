package osal

import (
	"sync"

	"github.com/zakdam/osal-1/errkind"
	"github.com/zakdam/osal-1/port"
)

// CountSemInfo is a snapshot of a counting semaphore slot.
type CountSemInfo struct {
	Name    string
	Creator int
}

type countSemSlot struct {
	free    bool
	name    string
	creator int
	handle  port.SemHandle
}

// CountSemRegistry is the fixed-capacity counting-semaphore table of spec
// §4.5: a thin wrapper over the port's native counting semaphore, unlike
// BinSemRegistry which has to build flush semantics on top of an event
// group.
type CountSemRegistry struct {
	mu      sync.Mutex
	slots   []countSemSlot
	maxName int
	port    port.Port
	tasks   creatorFinder
}

func NewCountSemRegistry(p port.Port, tasks creatorFinder, capacity, maxName int) *CountSemRegistry {
	r := &CountSemRegistry{slots: make([]countSemSlot, capacity), maxName: maxName, port: p, tasks: tasks}
	for i := range r.slots {
		r.releaseAt(i)
	}
	return r
}

func (r *CountSemRegistry) capacity() int       { return len(r.slots) }
func (r *CountSemRegistry) isFree(i int) bool   { return r.slots[i].free }
func (r *CountSemRegistry) nameAt(i int) string { return r.slots[i].name }
func (r *CountSemRegistry) reserveAt(i int)     { r.slots[i] = countSemSlot{free: false} }
func (r *CountSemRegistry) releaseAt(i int)     { r.slots[i] = countSemSlot{free: true} }
func (r *CountSemRegistry) commitAt(i int, name string, creator int) {
	r.slots[i].name = name
	r.slots[i].creator = creator
}

// Create allocates a counting semaphore with the given initial value and
// maximum value, capped at 255 per spec §4.5.
func (r *CountSemRegistry) Create(outID *int, name string, initial, max uint32) errkind.Kind {
	if outID == nil {
		return errkind.InvalidPointer
	}
	if len(name) >= r.maxName {
		return errkind.NameTooLong
	}
	if max > 255 || initial > max {
		return errkind.InvalidSemValue
	}
	id, k := reserveByName(&r.mu, r, r.maxName, name)
	if k != errkind.Success {
		return k
	}

	creator := r.tasks.currentTaskID()
	handle, err := r.port.SemCreate(name, initial, max)
	r.mu.Lock()
	if err != nil {
		r.releaseAt(id)
		r.mu.Unlock()
		return errkind.KernelFailure
	}
	r.commitAt(id, name, creator)
	r.slots[id].handle = handle
	r.mu.Unlock()

	*outID = id
	return errkind.Success
}

func (r *CountSemRegistry) Delete(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	if err := r.port.SemDestroy(handle); err != nil {
		return errkind.KernelFailure
	}
	r.mu.Lock()
	r.releaseAt(id)
	r.mu.Unlock()
	return errkind.Success
}

// Give increments the semaphore's count. A Give on a semaphore whose count
// is already at max leaves the count unchanged and returns SemFailure.
func (r *CountSemRegistry) Give(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	if err := r.port.SemPost(handle); err != nil {
		return errkind.SemFailure
	}
	return errkind.Success
}

// Take blocks indefinitely for a count to become available.
func (r *CountSemRegistry) Take(id int) errkind.Kind {
	return r.take(id, port.Pend)
}

// TimedTake blocks up to msecs milliseconds. Per spec §4.5, every failure,
// a timeout included, maps to SemFailure; the port's distinct timeout
// error is not surfaced separately. msecs == 0 is an immediate,
// non-blocking poll (port.Check) rather than a call into port.Milliseconds,
// which requires a positive duration.
func (r *CountSemRegistry) TimedTake(id int, msecs uint32) errkind.Kind {
	if msecs == 0 {
		return r.take(id, port.Check)
	}
	return r.take(id, port.Milliseconds(msecs))
}

func (r *CountSemRegistry) take(id int, w port.Wait) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	if err := r.port.SemWait(handle, w); err != nil {
		return errkind.SemFailure
	}
	return errkind.Success
}

func (r *CountSemRegistry) GetInfo(id int) (CountSemInfo, errkind.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		return CountSemInfo{}, errkind.InvalidID
	}
	s := r.slots[id]
	return CountSemInfo{Name: s.name, Creator: s.creator}, errkind.Success
}

func (r *CountSemRegistry) GetIDByName(name string) (int, errkind.Kind) {
	return lookupByName(&r.mu, r, name)
}

func (r *CountSemRegistry) GetNameByID(id int) (string, errkind.Kind) {
	return nameByID(&r.mu, r, id)
}
