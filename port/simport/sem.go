package simport

import (
	"time"

	"github.com/zakdam/osal-1/port"
)

// semHandle is a counting semaphore implemented as a token-filled buffered
// channel, capacity max.
type semHandle struct {
	name string
	ch   chan struct{}
}

func (s *Sim) SemCreate(name string, initial, max uint32) (port.SemHandle, error) {
	h := &semHandle{name: name, ch: make(chan struct{}, max)}
	for i := uint32(0); i < initial; i++ {
		h.ch <- struct{}{}
	}
	return h, nil
}

func (s *Sim) SemDestroy(h port.SemHandle) error {
	return nil
}

func (s *Sim) SemPost(h port.SemHandle) error {
	sh := h.(*semHandle)
	select {
	case sh.ch <- struct{}{}:
		return nil
	default:
		return port.ErrFull
	}
}

func (s *Sim) SemWait(h port.SemHandle, w port.Wait) error {
	sh := h.(*semHandle)
	switch {
	case w == port.Pend:
		<-sh.ch
		return nil
	case w == port.Check:
		select {
		case <-sh.ch:
			return nil
		default:
			return port.ErrEmpty
		}
	default:
		select {
		case <-sh.ch:
			return nil
		case <-time.After(time.Duration(w) * time.Millisecond):
			return port.ErrTimeout
		}
	}
}
