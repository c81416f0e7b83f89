package simport

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the calling goroutine's runtime id by parsing its
// stack trace header ("goroutine 123 [running]:"). This is the simulation's
// stand-in for the hardware TCB pointer a real kernel uses to identify
// "the calling task"; it has no role in the object-table core itself, which
// only ever sees the port.TaskHandle CurrentTask returns.
func goroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	i := bytes.IndexByte(buf, ' ')
	if i < 0 {
		return -1
	}
	id, err := strconv.ParseInt(string(buf[:i]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
