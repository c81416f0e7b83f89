// Package simport is a reference port.Port built entirely on the Go
// runtime: goroutines stand in for kernel tasks, channels stand in for
// queues and event groups, and time.Timer stands in for the kernel's
// one-shot software timer service. The underlying real-time kernel is
// simulated, not implemented, so tests can run the object-table core
// without real embedded hardware.
//
// Go has no forced-termination primitive for an arbitrary goroutine, unlike
// FreeRTOS's vTaskDelete. TaskTerminate is therefore cooperative: it closes
// the task's Done channel, which a well-behaved TaskFunc should select on.
// This is a known, documented simulation gap, not a core defect.
package simport

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/zakdam/osal-1/internal/obslog"
	"github.com/zakdam/osal-1/port"
)

// Sim is a reference Port. The zero value is not usable; construct one with
// New.
type Sim struct {
	log hclog.Logger

	clockStartNanos int64
	ticksPerSec     uint32

	tasksMu    sync.Mutex
	tasksByGID map[int64]*taskHandle
}

// Option configures a Sim at construction time.
type Option func(*Sim)

// WithLogger overrides the logger the Sim holds. Defaults to
// obslog.Named("port"). None of the Sim's operations write to it.
func WithLogger(l hclog.Logger) Option {
	return func(s *Sim) { s.log = l }
}

// WithTicksPerSecond overrides the simulated scheduler tick rate. Defaults
// to 1000 (1ms ticks), the common FreeRTOS configTICK_RATE_HZ.
func WithTicksPerSecond(hz uint32) Option {
	return func(s *Sim) { s.ticksPerSec = hz }
}

// New constructs a ready-to-use Sim.
func New(opts ...Option) *Sim {
	s := &Sim{
		log:             obslog.Named("port"),
		clockStartNanos: monotonicNanos(),
		ticksPerSec:     1000,
		tasksByGID:      make(map[int64]*taskHandle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// taskHandle is the concrete port.TaskHandle for this port.
type taskHandle struct {
	name     string
	priority uint32

	mu       sync.Mutex
	local    int
	hasLocal bool

	// Done is closed by TaskTerminate as a cooperative stop request.
	Done chan struct{}
}

func (s *Sim) TaskSpawn(name string, stackSize, priority uint32, fn port.TaskFunc) (port.TaskHandle, error) {
	h := &taskHandle{name: name, priority: priority, Done: make(chan struct{})}
	started := make(chan struct{})
	go func() {
		gid := goroutineID()
		s.tasksMu.Lock()
		s.tasksByGID[gid] = h
		s.tasksMu.Unlock()
		close(started)
		defer func() {
			s.tasksMu.Lock()
			delete(s.tasksByGID, gid)
			s.tasksMu.Unlock()
		}()
		fn()
	}()
	<-started
	return h, nil
}

func (s *Sim) TaskTerminate(h port.TaskHandle) error {
	th := h.(*taskHandle)
	select {
	case <-th.Done:
		// already terminated
	default:
		close(th.Done)
	}
	return nil
}

func (s *Sim) TaskSetPriority(h port.TaskHandle, priority uint32) error {
	th := h.(*taskHandle)
	th.mu.Lock()
	th.priority = priority
	th.mu.Unlock()
	return nil
}

func (s *Sim) CurrentTask() (port.TaskHandle, bool) {
	gid := goroutineID()
	s.tasksMu.Lock()
	h, ok := s.tasksByGID[gid]
	s.tasksMu.Unlock()
	if !ok {
		return nil, false
	}
	return h, true
}

func (s *Sim) TaskLocalGet(h port.TaskHandle) (int, bool) {
	th := h.(*taskHandle)
	th.mu.Lock()
	defer th.mu.Unlock()
	return th.local, th.hasLocal
}

func (s *Sim) TaskLocalSet(h port.TaskHandle, value int) {
	th := h.(*taskHandle)
	th.mu.Lock()
	th.local = value
	th.hasLocal = true
	th.mu.Unlock()
}

func (s *Sim) Delay(d time.Duration) {
	time.Sleep(d)
}

func (s *Sim) GetTickCount() uint32 {
	elapsed := monotonicNanos() - s.clockStartNanos
	ticks := uint64(elapsed) * uint64(s.ticksPerSec) / uint64(time.Second)
	return uint32(ticks) // deliberate wraparound, matching the original's uint32 tick count
}

func (s *Sim) TicksPerSecond() uint32 {
	return s.ticksPerSec
}

// EnterCritical/ExitCritical bound a brief section during which the caller
// wants no other goroutine observing this Sim's bookkeeping to interleave.
// Go cannot disable preemption, so this is a plain mutex rather than a true
// critical section; it exists so core code can follow the port contract
// uniformly even though this Port can't offer the stronger guarantee real
// hardware does.
var criticalMu sync.Mutex

func (s *Sim) EnterCritical() interface{} {
	criticalMu.Lock()
	return nil
}

func (s *Sim) ExitCritical(interface{}) {
	criticalMu.Unlock()
}
