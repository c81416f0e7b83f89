package simport

import (
	"sync"
	"time"

	"github.com/zakdam/osal-1/port"
)

// timerHandle is a one-shot software timer. Like the FreeRTOS software
// timer this simulates, it must be created with a non-zero period (the
// kernel rejects zero) and does not run until started.
type timerHandle struct {
	name string
	cb   port.TimerCallback

	mu     sync.Mutex
	period time.Duration
	timer  *time.Timer
}

func (s *Sim) TimerCreate(name string, cb port.TimerCallback) (port.TimerHandle, error) {
	return &timerHandle{name: name, cb: cb, period: time.Second}, nil
}

func (s *Sim) TimerDestroy(h port.TimerHandle) error {
	th := h.(*timerHandle)
	th.mu.Lock()
	if th.timer != nil {
		th.timer.Stop()
	}
	th.mu.Unlock()
	return nil
}

func (s *Sim) TimerChangePeriod(h port.TimerHandle, period time.Duration) error {
	th := h.(*timerHandle)
	th.mu.Lock()
	th.period = period
	th.mu.Unlock()
	return nil
}

func (s *Sim) TimerStart(h port.TimerHandle) error {
	th := h.(*timerHandle)
	th.mu.Lock()
	defer th.mu.Unlock()
	if th.timer != nil {
		th.timer.Stop()
	}
	period, cb := th.period, th.cb
	th.timer = time.AfterFunc(period, func() { cb(h) })
	return nil
}

func (s *Sim) TimerStop(h port.TimerHandle) error {
	th := h.(*timerHandle)
	th.mu.Lock()
	if th.timer != nil {
		th.timer.Stop()
	}
	th.mu.Unlock()
	return nil
}
