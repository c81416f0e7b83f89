package osal

import (
	"sync"

	"github.com/zakdam/osal-1/errkind"
	"github.com/zakdam/osal-1/port"
)

// QueueInfo is a snapshot of a queue slot.
type QueueInfo struct {
	Name    string
	Creator int
	MsgSize uint32
}

type queueSlot struct {
	free    bool
	name    string
	creator int
	handle  port.QueueHandle
	msgSize uint32
}

// QueueRegistry is the fixed-capacity queue table of spec §4.3.
type QueueRegistry struct {
	mu      sync.Mutex
	slots   []queueSlot
	maxName int
	port    port.Port
	tasks   creatorFinder
}

func NewQueueRegistry(p port.Port, tasks creatorFinder, capacity, maxName int) *QueueRegistry {
	r := &QueueRegistry{slots: make([]queueSlot, capacity), maxName: maxName, port: p, tasks: tasks}
	for i := range r.slots {
		r.releaseAt(i)
	}
	return r
}

func (r *QueueRegistry) capacity() int       { return len(r.slots) }
func (r *QueueRegistry) isFree(i int) bool   { return r.slots[i].free }
func (r *QueueRegistry) nameAt(i int) string { return r.slots[i].name }
func (r *QueueRegistry) reserveAt(i int)     { r.slots[i] = queueSlot{free: false} }
func (r *QueueRegistry) releaseAt(i int)     { r.slots[i] = queueSlot{free: true} }
func (r *QueueRegistry) commitAt(i int, name string, creator int) {
	r.slots[i].name = name
	r.slots[i].creator = creator
}

// Create allocates a bounded FIFO queue of depth slots holding msgSize-byte
// messages.
func (r *QueueRegistry) Create(outID *int, name string, depth, msgSize uint32) errkind.Kind {
	if outID == nil {
		return errkind.InvalidPointer
	}
	id, k := reserveByName(&r.mu, r, r.maxName, name)
	if k != errkind.Success {
		return k
	}

	creator := r.tasks.currentTaskID()
	handle, err := r.port.QueueCreate(name, depth, msgSize)
	r.mu.Lock()
	if err != nil {
		r.releaseAt(id)
		r.mu.Unlock()
		return errkind.KernelFailure
	}
	r.commitAt(id, name, creator)
	r.slots[id].handle = handle
	r.slots[id].msgSize = msgSize
	r.mu.Unlock()

	*outID = id
	return errkind.Success
}

// Delete destroys the kernel queue, then frees the slot.
func (r *QueueRegistry) Delete(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	if err := r.port.QueueDestroy(handle); err != nil {
		return errkind.KernelFailure
	}
	r.mu.Lock()
	r.releaseAt(id)
	r.mu.Unlock()
	return errkind.Success
}

// Put enqueues msg without blocking.
func (r *QueueRegistry) Put(id int, msg []byte) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	if err := r.port.QueueSend(handle, msg); err != nil {
		if err == port.ErrFull {
			return errkind.QueueFull
		}
		return errkind.KernelFailure
	}
	return errkind.Success
}

// Get dequeues into buf, per the three timeout modes of spec §4.3. sizeCopied
// receives the configured message size on success, 0 on any defined
// failure. buf must be at least as large as the queue's message size.
func (r *QueueRegistry) Get(id int, buf []byte, w port.Wait, sizeCopied *uint32) errkind.Kind {
	if sizeCopied != nil {
		*sizeCopied = 0
	}
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	msgSize := r.slots[id].msgSize
	r.mu.Unlock()

	if uint32(len(buf)) < msgSize {
		return errkind.QueueInvalidSize
	}

	_, err := r.port.QueueReceive(handle, buf, w)
	if err != nil {
		switch err {
		case port.ErrEmpty:
			return errkind.QueueEmpty
		case port.ErrTimeout:
			return errkind.QueueTimeout
		default:
			return errkind.KernelFailure
		}
	}
	if sizeCopied != nil {
		*sizeCopied = msgSize
	}
	return errkind.Success
}

func (r *QueueRegistry) GetInfo(id int) (QueueInfo, errkind.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		return QueueInfo{}, errkind.InvalidID
	}
	s := r.slots[id]
	return QueueInfo{Name: s.name, Creator: s.creator, MsgSize: s.msgSize}, errkind.Success
}

func (r *QueueRegistry) GetIDByName(name string) (int, errkind.Kind) {
	return lookupByName(&r.mu, r, name)
}

func (r *QueueRegistry) GetNameByID(id int) (string, errkind.Kind) {
	return nameByID(&r.mu, r, id)
}
