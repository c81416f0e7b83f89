package osal

import (
	"runtime"
	"sync"

	"github.com/zakdam/osal-1/errkind"
	"github.com/zakdam/osal-1/port"
)

// TaskFunc is a task's entry point.
type TaskFunc func()

// DeleteHook is invoked by Delete on the deleted task's id, running in the
// caller's context, before the kernel terminates the task.
type DeleteHook func(id int)

// TaskInfo is a snapshot of a task slot, per SPEC_FULL.md §D.2.
type TaskInfo struct {
	Name      string
	Creator   int
	StackSize uint32
	Priority  uint32
}

type taskSlot struct {
	free       bool
	name       string
	creator    int
	handle     port.TaskHandle
	stackSize  uint32
	priority   uint32
	deleteHook DeleteHook
}

// TaskRegistry is the fixed-capacity task table of spec §4.2.
type TaskRegistry struct {
	mu      sync.Mutex
	slots   []taskSlot
	maxName int
	port    port.Port
}

// NewTaskRegistry constructs a registry with the given capacity and
// maximum name length (including terminator, per spec §6).
func NewTaskRegistry(p port.Port, capacity, maxName int) *TaskRegistry {
	r := &TaskRegistry{
		slots:   make([]taskSlot, capacity),
		maxName: maxName,
		port:    p,
	}
	for i := range r.slots {
		r.releaseAt(i)
	}
	return r
}

func (r *TaskRegistry) capacity() int      { return len(r.slots) }
func (r *TaskRegistry) isFree(i int) bool  { return r.slots[i].free }
func (r *TaskRegistry) nameAt(i int) string { return r.slots[i].name }
func (r *TaskRegistry) reserveAt(i int)    { r.slots[i] = taskSlot{free: false} }
func (r *TaskRegistry) releaseAt(i int)    { r.slots[i] = taskSlot{free: true} }
func (r *TaskRegistry) commitAt(i int, name string, creator int) {
	r.slots[i].name = name
	r.slots[i].creator = creator
}

// currentTaskID implements creatorFinder: it maps the calling goroutine's
// port.TaskHandle back to a registry id, or returns the registry's
// capacity (the scan's past-the-end index) if the caller isn't registered.
func (r *TaskRegistry) currentTaskID() int {
	h, ok := r.port.CurrentTask()
	if !ok {
		return r.capacity()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		if !r.slots[i].free && r.slots[i].handle == h {
			return i
		}
	}
	return r.capacity()
}

// Create spawns a kernel task and registers it, per spec §4.2/§4.1.
func (r *TaskRegistry) Create(outID *int, name string, fn TaskFunc, stackSize, priority uint32) errkind.Kind {
	if outID == nil || fn == nil {
		return errkind.InvalidPointer
	}
	if len(name) >= r.maxName {
		return errkind.NameTooLong
	}
	if priority > 255 {
		return errkind.InvalidPriority
	}
	id, k := reserveByName(&r.mu, r, r.maxName, name)
	if k != errkind.Success {
		return k
	}

	creator := r.currentTaskID()

	// Gate fn behind the slot commit below: without this, the spawned
	// goroutine can reach Register/GetID before its handle lands in the
	// slot, and the lookup-by-handle scan those rely on would race the
	// write and report InvalidID spuriously.
	ready := make(chan struct{})
	handle, err := r.port.TaskSpawn(name, stackSize, priority, func() {
		<-ready
		fn()
	})
	r.mu.Lock()
	if err != nil {
		r.releaseAt(id)
		r.mu.Unlock()
		return errkind.KernelFailure
	}
	r.commitAt(id, name, creator)
	r.slots[id].handle = handle
	r.slots[id].stackSize = stackSize
	r.slots[id].priority = priority
	r.mu.Unlock()
	close(ready)

	*outID = id
	return errkind.Success
}

// Delete terminates a task, firing its delete hook first. Calling
// Delete(id) on the currently running task is equivalent to Exit(): this
// call never returns to its caller in that case, exactly as Exit doesn't.
func (r *TaskRegistry) Delete(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	hook := r.slots[id].deleteHook
	handle := r.slots[id].handle
	r.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if err := r.port.TaskTerminate(handle); err != nil {
		return errkind.KernelFailure
	}

	r.mu.Lock()
	r.releaseAt(id)
	r.mu.Unlock()

	if self, ok := r.port.CurrentTask(); ok && self == handle {
		runtime.Goexit()
	}
	return errkind.Success
}

// Exit clears the calling task's own slot, then terminates it from within.
// Like the kernel's task-exit primitive, this never returns.
func (r *TaskRegistry) Exit() {
	if id := r.currentTaskID(); id < r.capacity() {
		r.Delete(id)
		return
	}
	runtime.Goexit()
}

// SetPriority validates id and priority, updates the kernel, then the slot.
func (r *TaskRegistry) SetPriority(id int, priority uint32) errkind.Kind {
	if priority > 255 {
		return errkind.InvalidPriority
	}
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.mu.Unlock()

	if err := r.port.TaskSetPriority(handle, priority); err != nil {
		return errkind.KernelFailure
	}

	r.mu.Lock()
	if id < len(r.slots) && !r.slots[id].free {
		r.slots[id].priority = priority
	}
	r.mu.Unlock()
	return errkind.Success
}

// Register binds the calling kernel task handle to its registry slot, so
// GetId can find it later via the port's per-task thread-local slot.
func (r *TaskRegistry) Register() errkind.Kind {
	handle, ok := r.port.CurrentTask()
	if !ok {
		return errkind.InvalidID
	}
	r.mu.Lock()
	id := -1
	for i := range r.slots {
		if !r.slots[i].free && r.slots[i].handle == handle {
			id = i
			break
		}
	}
	r.mu.Unlock()
	if id < 0 {
		return errkind.InvalidID
	}
	r.port.TaskLocalSet(handle, id)
	return errkind.Success
}

// GetID returns the calling task's registered id, or 0 if it has not
// called Register yet (spec §4.2: "tests must tolerate this").
func (r *TaskRegistry) GetID() int {
	handle, ok := r.port.CurrentTask()
	if !ok {
		return 0
	}
	id, ok := r.port.TaskLocalGet(handle)
	if !ok {
		return 0
	}
	return id
}

// InstallDeleteHandler records a delete hook on the calling task's slot.
func (r *TaskRegistry) InstallDeleteHandler(hook DeleteHook) errkind.Kind {
	id := r.currentTaskID()
	if id >= r.capacity() {
		return errkind.InvalidID
	}
	r.mu.Lock()
	r.slots[id].deleteHook = hook
	r.mu.Unlock()
	return errkind.Success
}

// GetInfo returns a snapshot of a task slot.
func (r *TaskRegistry) GetInfo(id int) (TaskInfo, errkind.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		return TaskInfo{}, errkind.InvalidID
	}
	s := r.slots[id]
	return TaskInfo{Name: s.name, Creator: s.creator, StackSize: s.stackSize, Priority: s.priority}, errkind.Success
}

// GetIDByName performs a name lookup, per spec §4.1 operation 4.
func (r *TaskRegistry) GetIDByName(name string) (int, errkind.Kind) {
	return lookupByName(&r.mu, r, name)
}

// GetNameByID is the reverse lookup (SPEC_FULL.md §D.3).
func (r *TaskRegistry) GetNameByID(id int) (string, errkind.Kind) {
	return nameByID(&r.mu, r, id)
}
