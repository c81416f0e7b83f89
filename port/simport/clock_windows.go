//go:build windows

package simport

import "time"

// monotonicNanos falls back to the Go runtime's own monotonic clock
// reading on Windows: golang.org/x/sys/unix's clock_gettime has no
// Windows counterpart here.
func monotonicNanos() int64 {
	return int64(time.Since(processStart))
}

// processStart carries the runtime's monotonic reading; time.Since on it
// measures with that reading, unlike UnixNano, which is wall-clock time.
var processStart = time.Now()
