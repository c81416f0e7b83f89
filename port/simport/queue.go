package simport

import (
	"time"

	"github.com/zakdam/osal-1/port"
)

// queueHandle is a bounded FIFO of fixed-size messages.
type queueHandle struct {
	name    string
	msgSize uint32
	ch      chan []byte
}

func (s *Sim) QueueCreate(name string, depth, msgSize uint32) (port.QueueHandle, error) {
	return &queueHandle{
		name:    name,
		msgSize: msgSize,
		ch:      make(chan []byte, depth),
	}, nil
}

func (s *Sim) QueueDestroy(h port.QueueHandle) error {
	return nil
}

func (s *Sim) QueueSend(h port.QueueHandle, msg []byte) error {
	q := h.(*queueHandle)
	cp := make([]byte, len(msg))
	copy(cp, msg)
	select {
	case q.ch <- cp:
		return nil
	default:
		return port.ErrFull
	}
}

func (s *Sim) QueueReceive(h port.QueueHandle, buf []byte, w port.Wait) (int, error) {
	q := h.(*queueHandle)
	switch {
	case w == port.Pend:
		msg := <-q.ch
		return copy(buf, msg), nil
	case w == port.Check:
		select {
		case msg := <-q.ch:
			return copy(buf, msg), nil
		default:
			return 0, port.ErrEmpty
		}
	default:
		select {
		case msg := <-q.ch:
			return copy(buf, msg), nil
		case <-time.After(time.Duration(w) * time.Millisecond):
			return 0, port.ErrTimeout
		}
	}
}
