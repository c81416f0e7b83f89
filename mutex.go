package osal

import (
	"sync"

	"github.com/zakdam/osal-1/errkind"
	"github.com/zakdam/osal-1/port"
)

// MutexInfo is a snapshot of a mutex slot.
type MutexInfo struct {
	Name    string
	Creator int
}

type mutexSlot struct {
	free    bool
	name    string
	creator int
	handle  port.MutexHandle
}

// MutexRegistry is the fixed-capacity recursive-mutex table of spec §4.1,
// wrapping the port's recursive mutex directly: recursion counting and
// ownership live in port/simport, not here.
type MutexRegistry struct {
	mu      sync.Mutex
	slots   []mutexSlot
	maxName int
	port    port.Port
	tasks   creatorFinder
}

func NewMutexRegistry(p port.Port, tasks creatorFinder, capacity, maxName int) *MutexRegistry {
	r := &MutexRegistry{slots: make([]mutexSlot, capacity), maxName: maxName, port: p, tasks: tasks}
	for i := range r.slots {
		r.releaseAt(i)
	}
	return r
}

func (r *MutexRegistry) capacity() int       { return len(r.slots) }
func (r *MutexRegistry) isFree(i int) bool   { return r.slots[i].free }
func (r *MutexRegistry) nameAt(i int) string { return r.slots[i].name }
func (r *MutexRegistry) reserveAt(i int)     { r.slots[i] = mutexSlot{free: false} }
func (r *MutexRegistry) releaseAt(i int)     { r.slots[i] = mutexSlot{free: true} }
func (r *MutexRegistry) commitAt(i int, name string, creator int) {
	r.slots[i].name = name
	r.slots[i].creator = creator
}

func (r *MutexRegistry) Create(outID *int, name string) errkind.Kind {
	if outID == nil {
		return errkind.InvalidPointer
	}
	id, k := reserveByName(&r.mu, r, r.maxName, name)
	if k != errkind.Success {
		return k
	}

	creator := r.tasks.currentTaskID()
	handle, err := r.port.MutexCreate(name)
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

func (r *MutexRegistry) Delete(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	if err := r.port.MutexDestroy(handle); err != nil {
		return errkind.KernelFailure
	}
	r.mu.Lock()
	r.releaseAt(id)
	r.mu.Unlock()
	return errkind.Success
}

// Lock acquires the mutex, recursively if the caller already holds it.
func (r *MutexRegistry) Lock(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	if err := r.port.MutexLock(handle); err != nil {
		return errkind.KernelFailure
	}
	return errkind.Success
}

// Unlock releases one level of recursion. Unlocking a mutex the caller
// doesn't hold surfaces as MutexNotOwned (SPEC_FULL.md §D.4), rather than
// the generic KernelFailure every other wrapper falls back to.
func (r *MutexRegistry) Unlock(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	if err := r.port.MutexUnlock(handle); err != nil {
		if err == port.ErrNotOwner {
			return errkind.MutexNotOwned
		}
		return errkind.KernelFailure
	}
	return errkind.Success
}

func (r *MutexRegistry) GetInfo(id int) (MutexInfo, errkind.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		return MutexInfo{}, errkind.InvalidID
	}
	s := r.slots[id]
	return MutexInfo{Name: s.name, Creator: s.creator}, errkind.Success
}

func (r *MutexRegistry) GetIDByName(name string) (int, errkind.Kind) {
	return lookupByName(&r.mu, r, name)
}

func (r *MutexRegistry) GetNameByID(id int) (string, errkind.Kind) {
	return nameByID(&r.mu, r, id)
}
