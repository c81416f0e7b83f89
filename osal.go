// Package osal is the object-table core: six fixed-capacity registries
// (task, queue, binary semaphore, counting semaphore, mutex, timer) plus
// the boot/idle/shutdown glue of spec §4.7. Everything here consumes
// kernel primitives only through port.Port; the underlying real-time
// kernel is an external collaborator (port/simport supplies a reference
// implementation for tests and the demo command).
package osal

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/zakdam/osal-1/config"
	"github.com/zakdam/osal-1/errkind"
	"github.com/zakdam/osal-1/internal/obslog"
	"github.com/zakdam/osal-1/port"
)

// shutdownSemName is reserved: Init allocates it itself, so an
// application that also tries to create a binary semaphore with this name
// gets the ordinary NameTaken failure rather than colliding silently.
const shutdownSemName = "__os_idle_shutdown"

// API is the process-wide object-table core: every registry, sharing one
// Port, plus the dedicated shutdown semaphore IdleLoop blocks on. Per spec
// §9, this has process-wide static lifetime and is constructed exactly
// once by Init before any application task spawns.
type API struct {
	Port port.Port

	Tasks     *TaskRegistry
	Queues    *QueueRegistry
	BinSems   *BinSemRegistry
	CountSems *CountSemRegistry
	Mutexes   *MutexRegistry
	Timers    *TimerRegistry

	shutdownSemID int
}

// ApplicationStartup is supplied by the embedding application. Boot invokes
// it once, from the root task, before entering IdleLoop; it must register
// tasks and return (spec §6, "Application interface").
type ApplicationStartup func(api *API) errkind.Kind

// ExitStatus mirrors the original's OS_APPLICATION_EXIT status argument:
// ExitSuccess maps to process exit code 0, anything else to a non-zero
// code (spec §4.7).
type ExitStatus int

const (
	ExitSuccess ExitStatus = iota
	ExitFailure
)

// osExit is a package variable so tests can intercept ApplicationExit
// instead of tearing down the test binary.
var osExit = os.Exit

// Init constructs every registry over p at the capacities in cfg. This is
// "the API init routine" of spec §3/§9: an explicit step with no implicit
// construction-order dependency, called once from the root task.
func Init(p port.Port, cfg config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tasks := NewTaskRegistry(p, cfg.MaxTasks, cfg.MaxAPIName)
	api := &API{
		Port:      p,
		Tasks:     tasks,
		Queues:    NewQueueRegistry(p, tasks, cfg.MaxQueues, cfg.MaxAPIName),
		BinSems:   NewBinSemRegistry(p, tasks, cfg.MaxBinSemaphores, cfg.MaxAPIName),
		CountSems: NewCountSemRegistry(p, tasks, cfg.MaxCountSemaphores, cfg.MaxAPIName),
		Mutexes:   NewMutexRegistry(p, tasks, cfg.MaxMutexes, cfg.MaxAPIName),
		Timers:    NewTimerRegistry(p, tasks, cfg.MaxTimers, cfg.MaxAPIName),
	}

	var shutdownID int
	if k := api.BinSems.Create(&shutdownID, shutdownSemName, 0); k != errkind.Success {
		return nil, k.Err()
	}
	api.shutdownSemID = shutdownID
	return api, nil
}

// Boot runs the root-task sequence of spec §4.7: call the application's
// startup hook, then block in IdleLoop until ApplicationShutdown releases
// it (ApplicationExit, if called instead, never returns here).
func (a *API) Boot(startup ApplicationStartup) errkind.Kind {
	log := obslog.Named("boot")
	if k := startup(a); k != errkind.Success {
		log.Error("application startup failed", "kind", k)
		return k
	}
	log.Info("application started, entering idle loop")
	a.IdleLoop()
	return errkind.Success
}

// IdleLoop blocks indefinitely on the dedicated shutdown binary semaphore.
// It returns once ApplicationShutdown posts to that semaphore.
func (a *API) IdleLoop() {
	a.BinSems.Take(a.shutdownSemID)
}

// ApplicationShutdown posts to the shutdown semaphore, releasing a blocked
// IdleLoop exactly once.
func (a *API) ApplicationShutdown() errkind.Kind {
	return a.BinSems.Give(a.shutdownSemID)
}

// ApplicationExit stops the scheduler and terminates the process with an
// exit code derived from status: 0 iff status is ExitSuccess, non-zero
// otherwise. Like the kernel's own process-exit primitive, it never
// returns to its caller.
func (a *API) ApplicationExit(status ExitStatus) {
	code := 0
	if status != ExitSuccess {
		code = 1
	}
	obslog.Named("boot").Info("application exit", "status", status, "code", code)
	osExit(code)
}

// GetTickCount returns the kernel tick counter: the OSAL monotonic clock
// mentioned in spec §1 but never given its own operation block there
// (SPEC_FULL.md §D.6).
func (a *API) GetTickCount() uint32 { return a.Port.GetTickCount() }

// MicrosecondsToTicks converts a microsecond duration to ticks: a non-zero
// value shorter than one tick becomes one tick, anything longer is
// floor-divided (OS_Milli2Ticks in the original; SPEC_FULL.md §D.6).
func (a *API) MicrosecondsToTicks(us uint32) uint32 { return usToTicks(a.Port, us) }

// TicksToMicroseconds is the inverse conversion (OS_Tick2Micros).
func (a *API) TicksToMicroseconds(ticks uint32) uint32 { return ticksToUS(a.Port, ticks) }

// DeleteAllObjects iterates every registry by id and deletes each allocated
// slot, tolerant of slots that are already free (spec §4.7). Individual
// failures don't stop the sweep; they're aggregated with
// hashicorp/go-multierror rather than silently dropped.
//
// Calling this from a task present in the Tasks registry deletes that task
// too (Delete(self) is Exit(), per spec §4.2) and this call never returns
// in that case; callers that need DeleteAllObjects to return should invoke
// it from the root task or an unregistered goroutine.
func (a *API) DeleteAllObjects() error {
	var result *multierror.Error

	for id := 0; id < a.Timers.capacity(); id++ {
		if k := a.Timers.Delete(id); k != errkind.Success && k != errkind.InvalidID {
			result = multierror.Append(result, fmt.Errorf("timer %d: %w", id, k.Err()))
		}
	}
	for id := 0; id < a.Mutexes.capacity(); id++ {
		if k := a.Mutexes.Delete(id); k != errkind.Success && k != errkind.InvalidID {
			result = multierror.Append(result, fmt.Errorf("mutex %d: %w", id, k.Err()))
		}
	}
	for id := 0; id < a.CountSems.capacity(); id++ {
		if k := a.CountSems.Delete(id); k != errkind.Success && k != errkind.InvalidID {
			result = multierror.Append(result, fmt.Errorf("countsem %d: %w", id, k.Err()))
		}
	}
	for id := 0; id < a.BinSems.capacity(); id++ {
		if id == a.shutdownSemID {
			continue
		}
		if k := a.BinSems.Delete(id); k != errkind.Success && k != errkind.InvalidID {
			result = multierror.Append(result, fmt.Errorf("binsem %d: %w", id, k.Err()))
		}
	}
	for id := 0; id < a.Queues.capacity(); id++ {
		if k := a.Queues.Delete(id); k != errkind.Success && k != errkind.InvalidID {
			result = multierror.Append(result, fmt.Errorf("queue %d: %w", id, k.Err()))
		}
	}
	for id := 0; id < a.Tasks.capacity(); id++ {
		if k := a.Tasks.Delete(id); k != errkind.Success && k != errkind.InvalidID {
			result = multierror.Append(result, fmt.Errorf("task %d: %w", id, k.Err()))
		}
	}

	return result.ErrorOrNil()
}
