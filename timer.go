package osal

import (
	"sync"
	"time"

	"github.com/zakdam/osal-1/errkind"
	"github.com/zakdam/osal-1/port"
)

// TimerCallback is invoked by the periodic-timer mechanism with the
// timer's registry id every time its period elapses.
type TimerCallback func(id int)

// TimerInfo is a snapshot of a timer slot, per SPEC_FULL.md §D.2/§D.5.
type TimerInfo struct {
	Name       string
	Creator    int
	StartDelay uint32 // microseconds
	Interval   uint32 // microseconds; 0 means one-shot
	Accuracy   uint32 // microseconds; one scheduler tick
	// Remaining is the time left until the next expiration, estimated from
	// the wall-clock time the kernel timer was last armed plus the period it
	// was armed with; the port is not queried (SPEC_FULL.md §D.5,
	// OS_TimerGetInfo's next_interval field in the original).
	Remaining time.Duration
}

type timerSlot struct {
	free       bool
	name       string
	creator    int
	handle     port.TimerHandle
	startDelay uint32
	interval   uint32
	accuracy   uint32
	callback   TimerCallback

	// armedAt/period let GetInfo estimate time-to-next-fire without asking
	// the port for it; they only back the supplemental GetInfo.Remaining
	// field and have no other caller.
	armedAt time.Time
	period  time.Duration
}

// TimerRegistry is the fixed-capacity timer table of spec §4.6: it layers
// start-delay + repeating-interval semantics on top of a kernel that only
// offers one-shot software timers with a single callback per timer.
type TimerRegistry struct {
	mu      sync.Mutex
	slots   []timerSlot
	maxName int
	port    port.Port
	tasks   creatorFinder
}

// NewTimerRegistry constructs a registry with the given capacity and
// maximum name length.
func NewTimerRegistry(p port.Port, tasks creatorFinder, capacity, maxName int) *TimerRegistry {
	r := &TimerRegistry{slots: make([]timerSlot, capacity), maxName: maxName, port: p, tasks: tasks}
	for i := range r.slots {
		r.releaseAt(i)
	}
	return r
}

func (r *TimerRegistry) capacity() int       { return len(r.slots) }
func (r *TimerRegistry) isFree(i int) bool   { return r.slots[i].free }
func (r *TimerRegistry) nameAt(i int) string { return r.slots[i].name }
func (r *TimerRegistry) reserveAt(i int)     { r.slots[i] = timerSlot{free: false} }
func (r *TimerRegistry) releaseAt(i int)     { r.slots[i] = timerSlot{free: true} }
func (r *TimerRegistry) commitAt(i int, name string, creator int) {
	r.slots[i].name = name
	r.slots[i].creator = creator
}

// Create allocates a slot, records the user callback, and creates the
// backing kernel one-shot timer with a dummy non-zero period (the kernel
// rejects zero) without starting it, per spec §4.6 step 1. The accuracy
// out-parameter receives one scheduler tick expressed in microseconds.
func (r *TimerRegistry) Create(outID *int, name string, accuracy *uint32, cb TimerCallback) errkind.Kind {
	if outID == nil || accuracy == nil || cb == nil {
		return errkind.InvalidPointer
	}
	id, k := reserveByName(&r.mu, r, r.maxName, name)
	if k != errkind.Success {
		return k
	}

	creator := r.tasks.currentTaskID()
	acc := ticksToUS(r.port, 1)

	handle, err := r.port.TimerCreate(name, r.trampoline)
	r.mu.Lock()
	if err != nil {
		r.releaseAt(id)
		r.mu.Unlock()
		return errkind.TimerUnavailable
	}
	r.commitAt(id, name, creator)
	r.slots[id].handle = handle
	r.slots[id].accuracy = acc
	r.slots[id].callback = cb
	r.mu.Unlock()

	*outID = id
	*accuracy = acc
	return errkind.Success
}

// Set arms the timer: it fires once after start microseconds, then every
// interval microseconds thereafter (interval == 0 means one-shot). Values
// below one tick's worth of microseconds are rounded up to the accuracy,
// per spec §4.6 step 2.
func (r *TimerRegistry) Set(id int, startUS, intervalUS uint32) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	acc := r.slots[id].accuracy
	if startUS != 0 && startUS < acc {
		startUS = acc
	}
	if intervalUS != 0 && intervalUS < acc {
		intervalUS = acc
	}
	r.slots[id].startDelay = startUS
	r.slots[id].interval = intervalUS
	handle := r.slots[id].handle
	r.mu.Unlock()

	startTicks := usToTicks(r.port, startUS)
	if startTicks == 0 {
		// Kernel one-shot timers reject a zero period; a start delay of
		// zero still has to fire as soon as the scheduler can manage.
		startTicks = 1
	}
	period := ticksToDuration(r.port, startTicks)

	if err := r.port.TimerChangePeriod(handle, period); err != nil {
		return errkind.TimerInvalidArgs
	}
	if err := r.port.TimerStart(handle); err != nil {
		return errkind.TimerInternal
	}

	r.mu.Lock()
	if id < len(r.slots) && !r.slots[id].free && r.slots[id].handle == handle {
		r.slots[id].armedAt = time.Now()
		r.slots[id].period = period
	}
	r.mu.Unlock()
	return errkind.Success
}

// trampoline is the kernel's timer-expiration entry point (port.TimerCallback).
// It looks up the slot by kernel-handle identity under the registry lock,
// which is what lets it see a Delete that raced the expiration and refuses
// to dispatch (spec §9 "periodic-timer race"): Delete marks the slot free
// before destroying the kernel timer, so if this scan runs after that
// point it simply finds no allocated slot with a matching handle.
func (r *TimerRegistry) trampoline(h port.TimerHandle) {
	r.mu.Lock()
	id := -1
	for i := range r.slots {
		if !r.slots[i].free && r.slots[i].handle == h {
			id = i
			break
		}
	}
	if id < 0 {
		r.mu.Unlock()
		return
	}
	cb := r.slots[id].callback
	interval := r.slots[id].interval
	r.mu.Unlock()

	if cb != nil {
		cb(id)
	}

	if interval == 0 {
		// One-shot: stays stopped until the next Set, per spec §4.6 step 3.
		return
	}

	ticks := usToTicks(r.port, interval)
	period := ticksToDuration(r.port, ticks)

	r.mu.Lock()
	if id >= len(r.slots) || r.slots[id].free || r.slots[id].handle != h {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	if err := r.port.TimerChangePeriod(h, period); err != nil {
		return
	}
	if err := r.port.TimerStart(h); err != nil {
		return
	}

	r.mu.Lock()
	if id < len(r.slots) && !r.slots[id].free && r.slots[id].handle == h {
		r.slots[id].armedAt = time.Now()
		r.slots[id].period = period
	}
	r.mu.Unlock()
}

// Delete marks the slot free before destroying the kernel timer (spec §4.6
// step 4), so a racing expiry callback sees free and refuses to dispatch.
func (r *TimerRegistry) Delete(id int) errkind.Kind {
	r.mu.Lock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		r.mu.Unlock()
		return errkind.InvalidID
	}
	handle := r.slots[id].handle
	r.releaseAt(id)
	r.mu.Unlock()

	if err := r.port.TimerDestroy(handle); err != nil {
		return errkind.TimerInternal
	}
	return errkind.Success
}

// GetInfo returns a snapshot of a timer slot, including an estimate of the
// time remaining until its next expiration (SPEC_FULL.md §D.5).
func (r *TimerRegistry) GetInfo(id int) (TimerInfo, errkind.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.slots) || r.slots[id].free {
		return TimerInfo{}, errkind.InvalidID
	}
	s := r.slots[id]
	var remaining time.Duration
	if !s.armedAt.IsZero() {
		remaining = s.period - time.Since(s.armedAt)
		if remaining < 0 {
			remaining = 0
		}
	}
	return TimerInfo{
		Name:       s.name,
		Creator:    s.creator,
		StartDelay: s.startDelay,
		Interval:   s.interval,
		Accuracy:   s.accuracy,
		Remaining:  remaining,
	}, errkind.Success
}

func (r *TimerRegistry) GetIDByName(name string) (int, errkind.Kind) {
	return lookupByName(&r.mu, r, name)
}

func (r *TimerRegistry) GetNameByID(id int) (string, errkind.Kind) {
	return nameByID(&r.mu, r, id)
}
