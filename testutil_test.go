package osal

import (
	"github.com/zakdam/osal-1/port"
	"github.com/zakdam/osal-1/port/simport"
)

// newTestPort builds a fast-ticking Sim so timeout/timer tests don't have
// to wait on real wall-clock milliseconds for long.
func newTestPort() port.Port {
	return simport.New(simport.WithTicksPerSecond(1000))
}

func newTestTaskRegistry(p port.Port, capacity, maxName int) *TaskRegistry {
	return NewTaskRegistry(p, capacity, maxName)
}
