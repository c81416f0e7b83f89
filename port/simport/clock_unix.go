//go:build !windows

package simport

import "golang.org/x/sys/unix"

// monotonicNanos reads the OS monotonic clock directly through
// golang.org/x/sys/unix. A simulated tick counter built on the kernel's
// own monotonic clock, rather than a wall-clock time.Time, is closer in
// spirit to a real hardware tick counter, which never runs backward or
// jumps on a wall-clock adjustment.
func monotonicNanos() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return ts.Nano()
}
